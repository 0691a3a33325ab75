package openinverter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDecodeStatus(t *testing.T) {

	require := require.New(t)

	body := `{
		"Hostname": "Growatt-Gateway",
		"Mac": "11:22:33:44:55:66",
		"InputPower": 1520.5,
		"PV1Voltage": "320.4",
		"TodayGenerateEnergy": 3.2,
		"InverterStatus": 1,
		"FirmwareBuild": "v2.1-beta"
	}`

	status, err := decodeStatus(strings.NewReader(body))
	require.NoError(err)

	assert.Equal(t, "Growatt-Gateway", status.Info.Hostname)
	assert.Equal(t, "11:22:33:44:55:66", status.Info.Mac)
	assert.EqualValues(t, 1520.5, status.Readings["InputPower"])
	// numeric strings are coerced
	assert.EqualValues(t, 320.4, status.Readings["PV1Voltage"])
	assert.EqualValues(t, 3.2, status.Readings["TodayGenerateEnergy"])
	assert.EqualValues(t, 1, status.Readings["InverterStatus"])
	// non-numeric strings are skipped
	_, ok := status.Readings["FirmwareBuild"]
	assert.False(t, ok)
}

func TestDecodeStatusInvalidJSON(t *testing.T) {
	_, err := decodeStatus(strings.NewReader("not json"))
	assert.Error(t, err)
}

func TestHTTPGatewayReader(t *testing.T) {

	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != statusPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Hostname":"gw","OutputPower":950.1,"TodayGenerateEnergy":1.4}`))
	}))
	defer server.Close()

	reader := &httpGatewayReader{
		baseURL: server.URL,
		client:  server.Client(),
		logger:  zap.NewNop(),
	}

	status, err := reader.GetStatus(context.Background())
	require.NoError(err)
	assert.Equal(t, "gw", status.Info.Hostname)
	assert.EqualValues(t, 950.1, status.Readings["OutputPower"])
	assert.EqualValues(t, 1.4, status.Readings["TodayGenerateEnergy"])
}

func TestHTTPGatewayReaderErrorStatus(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	reader := &httpGatewayReader{
		baseURL: server.URL,
		client:  server.Client(),
		logger:  zap.NewNop(),
	}

	_, err := reader.GetStatus(context.Background())
	assert.Error(t, err)
}

func TestHTTPGatewayReaderUnreachable(t *testing.T) {

	reader, err := CreateHTTPGatewayReader("127.0.0.1", 100*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	// nothing listens on port 80 of localhost in the test environment
	_, err = reader.GetStatus(context.Background())
	assert.Error(t, err)
}

func TestCreateHTTPGatewayReaderRejectsBadIP(t *testing.T) {
	_, err := CreateHTTPGatewayReader("not-an-ip", time.Second, nil)
	assert.Error(t, err)
}
