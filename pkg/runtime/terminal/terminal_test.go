package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/impact-atlas/pkg/store/objects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingUploader struct {
	names []string
	types []string
	body  []byte
}

func (u *capturingUploader) Upload(_ context.Context, name, contentType string, body []byte) (string, error) {
	u.names = append(u.names, name)
	u.types = append(u.types, contentType)
	u.body = body
	return "s3://bucket/" + name, nil
}

func writeSettings(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "impact.yaml")
	content := fmt.Sprintf(`remote:
  base_url: %q
credentials:
  path: %q
models:
  - name: cpu-node
    model: org.boavizta.cpu.sci
    static_params:
      name: Intel Xeon Gold 6138f
      core_units: 24
aggregation:
  metrics: [energy]
  methods:
    energy: avg
export:
  bucket: reports
`, baseURL, filepath.Join(dir, "missing.cfg"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newEstimationServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/utils/country_code" {
			_, _ = w.Write([]byte(`{"France": "FRA", "Germany": "DEU"}`))
			return
		}
		_, _ = w.Write([]byte(`{"impacts": {"gwp": {"manufacture": 2, "use": 1}, "pe": {"manufacture": 10, "use": 7.2}}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestCLI(input string, uploader *capturingUploader) (*CLI, *bytes.Buffer) {
	var out bytes.Buffer
	cli := NewCLI(Options{
		Output:    &out,
		Input:     strings.NewReader(input),
		LogOutput: &bytes.Buffer{},
		Uploader: func(_ context.Context, _ objects.Settings) (objects.Uploader, error) {
			return uploader, nil
		},
		Now: func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) },
	})
	return cli, &out
}

func TestCLI_Calculate(t *testing.T) {
	srv := newEstimationServer(t)
	settings := writeSettings(t, srv.URL)

	input := `
- datetime: "2024-01-01T00:00:00Z"
  duration: 3600
  cpu: 0.5
- datetime: "2024-01-01T01:00:00Z"
  duration: 3600
  cpu: 0.25
`
	uploader := &capturingUploader{}
	cli, out := newTestCLI(input, uploader)

	// When
	err := cli.ExecuteContext(context.Background(),
		"calculate", "--config", settings, "--node", "cpu-node", "--format", "json", "--upload")

	// Then
	require.NoError(t, err)

	var report struct {
		Node   string             `json:"node"`
		Rows   []interface{}      `json:"rows"`
		Totals map[string]float64 `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "cpu-node", report.Node)
	assert.Len(t, report.Rows, 2)
	assert.InDelta(t, 4.0, report.Totals["e"], 1e-9)
	assert.InDelta(t, 4000.0, report.Totals["m"], 1e-9)

	require.Len(t, uploader.names, 1)
	assert.Equal(t, "cpu-node-20240501T080000Z.json", uploader.names[0])
	assert.Equal(t, "application/json", uploader.types[0])
	assert.JSONEq(t, out.String(), string(uploader.body))
}

func TestCLI_CalculateUnknownNode(t *testing.T) {
	srv := newEstimationServer(t)
	settings := writeSettings(t, srv.URL)

	cli, _ := newTestCLI("[]", &capturingUploader{})
	err := cli.ExecuteContext(context.Background(), "calculate", "--config", settings, "--node", "gpu-node")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `node "gpu-node" is not configured`)
}

func TestCLI_Aggregate(t *testing.T) {
	settings := writeSettings(t, "http://localhost")

	cli, out := newTestCLI(`[{"energy": 1, "carbon": 5}, {"energy": 2, "carbon": 5}]`, &capturingUploader{})
	err := cli.ExecuteContext(context.Background(),
		"aggregate", "--config", settings, "--metrics", "energy,carbon", "--format", "prometheus")

	require.NoError(t, err)
	assert.Contains(t, out.String(), "impact_energy 1.5")
	assert.Contains(t, out.String(), "impact_carbon 10")
}

func TestCLI_Locations(t *testing.T) {
	srv := newEstimationServer(t)
	settings := writeSettings(t, srv.URL)

	cli, out := newTestCLI("", &capturingUploader{})
	err := cli.ExecuteContext(context.Background(), "locations", "--config", settings)

	require.NoError(t, err)
	assert.Equal(t, "DEU\nFRA\n", out.String())
}

func TestCLI_InvalidFormat(t *testing.T) {
	settings := writeSettings(t, "http://localhost")

	cli, _ := newTestCLI("", &capturingUploader{})
	err := cli.ExecuteContext(context.Background(), "nodes", "--config", settings, "--format", "xml")

	assert.Error(t, err)
}
