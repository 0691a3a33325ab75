package openinverter

// DeviceInfo holds the identity fields the gateway reports alongside its
// readings.
type DeviceInfo struct {
	Hostname string
	Mac      string
}

// Status is one decoded response from the gateway's /status endpoint: the
// identity fields plus every numeric reading keyed by its JSON field name.
type Status struct {
	Info     DeviceInfo
	Readings map[string]float64
}

const (
	fieldHostname = "Hostname"
	fieldMac      = "Mac"
)
