package openinverter

import (
	"context"
	"sync"
)

func CreateTestGatewayReader() (*TestGatewayReader, error) {
	return &TestGatewayReader{
		status: TestStatus(),
	}, nil
}

// TestGatewayReader is an in-memory GatewayReader for actor tests. The
// returned status and error can be swapped between polls.
type TestGatewayReader struct {
	mu     sync.Mutex
	status *Status
	err    error
}

func (reader *TestGatewayReader) Open() error {
	return nil
}

func (reader *TestGatewayReader) Close() error {
	return nil
}

func (reader *TestGatewayReader) GetStatus(_ context.Context) (*Status, error) {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	if reader.err != nil {
		return nil, reader.err
	}
	return &Status{
		Info:     reader.status.Info,
		Readings: cloneReadings(reader.status.Readings),
	}, nil
}

func (reader *TestGatewayReader) SetStatus(status *Status) {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	reader.status = status
	reader.err = nil
}

func (reader *TestGatewayReader) SetError(err error) {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	reader.err = err
}

func TestStatus() *Status {
	return &Status{
		Info: DeviceInfo{
			Hostname: "openinverter-test",
			Mac:      "AA:BB:CC:DD:EE:FF",
		},
		Readings: map[string]float64{
			"InverterStatus":      1,
			"InputPower":          1520.5,
			"PV1Voltage":          320.4,
			"PV1InputCurrent":     4.7,
			"PV1InputPower":       1505.9,
			"OutputPower":         1480.2,
			"GridFrequency":       50.02,
			"TodayGenerateEnergy": 3.2,
			"TotalGenerateEnergy": 1204.7,
			"InverterTemperature": 38.1,
			"WifiRSSI":            -61,
		},
	}
}

func cloneReadings(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
