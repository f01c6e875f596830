package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	melonerrors "github.com/matzehuels/melonchart/pkg/errors"
	"github.com/matzehuels/melonchart/pkg/melon"
	"github.com/matzehuels/melonchart/pkg/observability"
)

type testEnv struct {
	config string
	hits   *atomic.Int32
}

// newTestEnv points the XDG directories at temp dirs and writes a config
// file whose endpoint is a counting fake upstream.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "cache"))
	t.Cleanup(observability.Reset)

	fixture := loadChartFixture(t)
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(fixture)
	}))
	t.Cleanup(srv.Close)

	dir := filepath.Join(base, "config", appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.toml")
	content := "endpoint = \"" + srv.URL + "/chart.json\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return &testEnv{config: path, hits: hits}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&logs)
	err := root.Execute()
	return out.String(), err
}

func TestChartJSONCommand(t *testing.T) {
	newTestEnv(t)

	out, err := runCLI(t, "chart", "--json", "--image-size", "300")
	if err != nil {
		t.Fatalf("chart --json: %v", err)
	}
	var got struct {
		Name      string        `json:"name"`
		ImageSize int           `json:"imageSize"`
		Entries   []melon.Entry `json:"entries"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Name != "CHART_REALTIME" || got.ImageSize != 300 || len(got.Entries) != 3 {
		t.Errorf("chart = %+v", got)
	}
}

func TestChartTableCommand(t *testing.T) {
	newTestEnv(t)

	out, err := runCLI(t, "chart", "--limit", "2")
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if !strings.Contains(out, "Kitsch") || !strings.Contains(out, "I AM") || strings.Contains(out, "BTS") {
		t.Errorf("table output:\n%s", out)
	}

	if _, err := runCLI(t, "chart", "--limit", "-1"); !melonerrors.Is(err, melonerrors.ErrCodeInvalidInput) {
		t.Errorf("negative limit: got %v, want INVALID_INPUT", err)
	}
}

func TestNegativeImageSizeRejected(t *testing.T) {
	env := newTestEnv(t)

	for _, args := range [][]string{
		{"chart", "--image-size", "-5"},
		{"entry", "0", "--image-size", "-5"},
	} {
		_, err := runCLI(t, args...)
		if !melonerrors.Is(err, melonerrors.ErrCodeInvalidInput) {
			t.Errorf("%v: got %v, want INVALID_INPUT", args, err)
		}
	}
	if got := env.hits.Load(); got != 0 {
		t.Errorf("rejected flags should not reach upstream, got %d hits", got)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{melonerrors.New(melonerrors.ErrCodeInvalidInput, "index must be an integer"), "Error [INVALID_INPUT]: index must be an integer"},
		{&melon.IndexError{Index: 7, Len: 3}, "Error [OUT_OF_RANGE]: entry index out of range: index 7, length 3"},
		{errors.New("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		if got := ErrorMessage(tt.err); got != tt.want {
			t.Errorf("ErrorMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestChartOutputFile(t *testing.T) {
	newTestEnv(t)
	path := filepath.Join(t.TempDir(), "chart.json")

	if _, err := runCLI(t, "chart", "--json", "-o", path); err != nil {
		t.Fatalf("chart -o: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) || !bytes.Contains(data, []byte(`"name": "CHART_REALTIME"`)) {
		t.Errorf("file content:\n%s", data)
	}
}

func TestEntryCommand(t *testing.T) {
	newTestEnv(t)

	out, err := runCLI(t, "entry", "2")
	if err != nil {
		t.Fatalf("entry 2: %v", err)
	}
	var e melon.Entry
	if err := json.Unmarshal([]byte(out), &e); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if e.Artist != "BTS" || e.Title != "" || !e.IsNew {
		t.Errorf("entry = %+v", e)
	}

	if _, err := runCLI(t, "entry", "3"); !errors.Is(err, melon.ErrIndexOutOfRange) {
		t.Errorf("entry 3: got %v, want ErrIndexOutOfRange", err)
	}
	if _, err := runCLI(t, "entry", "two"); !melonerrors.Is(err, melonerrors.ErrCodeInvalidInput) {
		t.Errorf("entry two: got %v, want INVALID_INPUT", err)
	}
}

func TestFileCacheAcrossRuns(t *testing.T) {
	env := newTestEnv(t)

	for range 2 {
		if _, err := runCLI(t, "chart", "--json"); err != nil {
			t.Fatal(err)
		}
	}
	if got := env.hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1 (second run cached)", got)
	}

	if _, err := runCLI(t, "chart", "--json", "--refresh"); err != nil {
		t.Fatal(err)
	}
	if got := env.hits.Load(); got != 2 {
		t.Errorf("upstream hits after --refresh = %d, want 2", got)
	}

	if _, err := runCLI(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, err := runCLI(t, "chart", "--json"); err != nil {
		t.Fatal(err)
	}
	if got := env.hits.Load(); got != 3 {
		t.Errorf("upstream hits after cache clear = %d, want 3", got)
	}
}

func TestNoCacheFlag(t *testing.T) {
	env := newTestEnv(t)

	for range 2 {
		if _, err := runCLI(t, "--no-cache", "chart", "--json"); err != nil {
			t.Fatal(err)
		}
	}
	if got := env.hits.Load(); got != 2 {
		t.Errorf("upstream hits = %d, want 2", got)
	}
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := runCLI(t, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, "/chart.json\"") || !strings.Contains(out, `backend = "file"`) {
		t.Errorf("config output:\n%s", out)
	}

	out, err = runCLI(t, "config", "path")
	if err != nil || strings.TrimSpace(out) != env.config {
		t.Errorf("config path = %q (%v), want %q", out, err, env.config)
	}

	out, err = runCLI(t, "cache", "path")
	if err != nil || !strings.HasSuffix(strings.TrimSpace(out), filepath.Join("cache", appName)) {
		t.Errorf("cache path = %q (%v)", out, err)
	}

	_, err = runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "config")
	if !melonerrors.Is(err, melonerrors.ErrCodeFileNotFound) {
		t.Errorf("missing --config: got %v, want FILE_NOT_FOUND", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	newTestEnv(t)
	out, err := runCLI(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "melonchart") {
		t.Error("bash completion should mention the command name")
	}
}
