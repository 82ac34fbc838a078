package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/provmon/internal/config"
	"github.com/rileyhilliard/provmon/internal/logger"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// fleetJSON is what the fixture endpoint serves: one of each status.
const fleetJSON = `[
  {"id": "p1", "provider_service": "golem-provider@1", "status": "working",
   "yagna_running": true, "provider_running": true, "work": {"task": "render"},
   "last_seen": "2024-05-01T11:59:00Z", "latency_ms": 12.8},
  {"id": "p2", "provider_service": "golem-provider@2", "status": "waiting",
   "yagna_running": true, "provider_running": false,
   "last_seen": "2024-05-01T11:58:00Z", "notes": "idle"},
  {"id": "p3", "status": "unknown", "last_seen": "", "notes": "no heartbeat"}
]`

// fixtureEndpoint serves fleetJSON on /providers and 500 everywhere else.
func fixtureEndpoint(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/providers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fleetJSON))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// testApp wires an app against an in-memory machine list.
func testApp(t *testing.T, machines ...config.MachineConfig) *app {
	t.Helper()
	a := newApp(config.DefaultConfig(), config.NewMemoryStore(machines...), logger.Noop())
	t.Cleanup(a.close)
	return a
}

// setMachineMode flips --json for the duration of a test.
func setMachineMode(t *testing.T, on bool) {
	t.Helper()
	old := machineMode
	machineMode = on
	t.Cleanup(func() { machineMode = old })
}

// decodeEnvelope parses output written by WriteJSONSuccess and decodes
// its data into out.
func decodeEnvelope(t *testing.T, raw []byte, out any) JSONEnvelope {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *JSONError      `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return JSONEnvelope{Success: env.Success, Error: env.Error}
}
