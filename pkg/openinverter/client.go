package openinverter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const statusPath = "/status"

// GatewayReader reads telemetry from an inverter gateway.
type GatewayReader interface {
	// Open validates the reader configuration. It does not contact the
	// device; reachability is probed by the first GetStatus call.
	Open() error
	Close() error
	// GetStatus fetches and decodes one full reading set.
	GetStatus(ctx context.Context) (*Status, error)
}

type httpGatewayReader struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// CreateHTTPGatewayReader returns a GatewayReader that polls the gateway's
// local HTTP API at the given IP address.
func CreateHTTPGatewayReader(ipAddress string, timeout time.Duration, logger *zap.Logger) (GatewayReader, error) {
	if net.ParseIP(ipAddress) == nil {
		return nil, fmt.Errorf("invalid gateway IP address %q", ipAddress)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &httpGatewayReader{
		baseURL: fmt.Sprintf("http://%s", ipAddress),
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

func (r *httpGatewayReader) Open() error {
	return nil
}

func (r *httpGatewayReader) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

func (r *httpGatewayReader) GetStatus(ctx context.Context) (*Status, error) {
	url := r.baseURL + statusPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request for %s: %w", url, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	status, err := decodeStatus(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not decode response from %s: %w", url, err)
	}
	r.logger.Debug("gateway status fetched", zap.Int("readings", len(status.Readings)))
	return status, nil
}

// decodeStatus parses the flat JSON object the gateway firmware returns.
// Numeric fields (and numeric strings) become readings; the identity fields
// are lifted into DeviceInfo; anything else is skipped.
func decodeStatus(body io.Reader) (*Status, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("empty status document")
	}

	status := &Status{
		Readings: make(map[string]float64, len(raw)),
	}
	for key, value := range raw {
		switch v := value.(type) {
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				continue
			}
			status.Readings[key] = f
		case string:
			switch key {
			case fieldHostname:
				status.Info.Hostname = v
			case fieldMac:
				status.Info.Mac = v
			default:
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					status.Readings[key] = f
				}
			}
		}
	}
	return status, nil
}
