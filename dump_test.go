package mooring

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/Azhovan/mooring/filestore"
)

func TestDumpEffective_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := DumpEffective(&buf, populated()); err != nil {
		t.Fatalf("DumpEffective failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"port: 8080\n",
		`message-of-the-day: "hello: world"` + "\n",
		`level: "warn"` + "\n",
		`mode: "adventure"` + "\n",
		`timeout: "1m30s"` + "\n",
		`admins: ["alice", "bob"]` + "\n",
		"ports: {query: 25566, rcon: 25575}\n",
		`database.host: "db.internal"` + "\n",
		"database.port: 6432\n",
		"database.password: ***redacted***\n",
		"spawn.limits.ratio: 0.25\n",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\ngot:\n%s", want, output)
		}
	}

	if strings.Contains(output, "hunter2") {
		t.Errorf("secret leaked into output:\n%s", output)
	}
	if strings.Contains(output, "(source:") {
		t.Errorf("sources printed without WithSources:\n%s", output)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if !strings.HasPrefix(lines[0], "port:") || !strings.HasPrefix(lines[len(lines)-1], "id:") {
		t.Errorf("fields not in declaration order:\n%s", output)
	}
}

func TestDumpEffective_WithSources(t *testing.T) {
	store := filestore.NewMemory()
	store.Put("config.yml", []byte("port: 8080\nlevel: loud\n"))

	h, err := NewLoader[serverConfig]().WithStorage(store).Open("config.yml")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	var buf bytes.Buffer
	if err := DumpEffective(&buf, h.Get(), WithSources()); err != nil {
		t.Fatalf("DumpEffective failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"port: 8080 (source: document)\n",
		`level: "info" (source: fallback)` + "\n",
		`database.host: "localhost" (source: default)` + "\n",
		"database.password: ***redacted*** (source: default)\n",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\ngot:\n%s", want, output)
		}
	}
}

func TestDumpEffective_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := DumpEffective(&buf, populated(), AsJSON()); err != nil {
		t.Fatalf("DumpEffective failed: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if got["port"] != float64(8080) {
		t.Errorf("port = %v", got["port"])
	}
	if got["timeout"] != "1m30s" {
		t.Errorf("timeout = %v", got["timeout"])
	}

	db, ok := got["database"].(map[string]any)
	if !ok {
		t.Fatalf("database is %T, want object", got["database"])
	}
	if db["password"] != redacted {
		t.Errorf("password = %v, want redacted", db["password"])
	}
	if db["host"] != "db.internal" {
		t.Errorf("host = %v", db["host"])
	}

	worlds, ok := got["worlds"].([]any)
	if !ok || len(worlds) != 2 {
		t.Fatalf("worlds = %v", got["worlds"])
	}
	first := worlds[0].(map[string]any)
	if first["name"] != "nether" || first["seed"] != float64(-42) {
		t.Errorf("worlds[0] = %v", first)
	}

	if !strings.Contains(buf.String(), "\n  \"") {
		t.Errorf("expected two-space indentation:\n%s", buf.String())
	}
}

func TestDumpEffective_JSONCompact(t *testing.T) {
	var buf bytes.Buffer
	if err := DumpEffective(&buf, populated(), AsJSON(), WithIndent("")); err != nil {
		t.Fatalf("DumpEffective failed: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("compact JSON should be one line:\n%s", buf.String())
	}
}

func TestDumpEffective_NilConfig(t *testing.T) {
	var buf bytes.Buffer
	if err := DumpEffective[serverConfig](&buf, nil); !errors.Is(err, ErrNilConfig) {
		t.Errorf("expected ErrNilConfig, got %v", err)
	}
}

type route struct {
	Origin point
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestDumpEffective_WriteError(t *testing.T) {
	if err := DumpEffective(failingWriter{}, populated()); err == nil {
		t.Error("expected write error")
	}
	if err := DumpEffective(failingWriter{}, populated(), AsJSON()); err == nil {
		t.Error("expected write error for JSON")
	}
}

func TestDumpEffective_UsingRegistry(t *testing.T) {
	r := NewRegistry()
	if err := RegisterCodec(r, decodePoint, encodePoint); err != nil {
		t.Fatalf("RegisterCodec failed: %v", err)
	}

	cfg := &route{Origin: point{X: 3, Y: 4}}
	var buf bytes.Buffer
	if err := DumpEffective(&buf, cfg, UsingRegistry(r)); err != nil {
		t.Fatalf("DumpEffective failed: %v", err)
	}
	if !strings.Contains(buf.String(), `origin: "3;4"`) {
		t.Errorf("custom codec not used:\n%s", buf.String())
	}

	// point is a plain struct to the default registry.
	buf.Reset()
	if err := DumpEffective(&buf, cfg); err != nil {
		t.Fatalf("DumpEffective failed: %v", err)
	}
	if !strings.Contains(buf.String(), "origin.x: 3\n") {
		t.Errorf("expected structural output:\n%s", buf.String())
	}
}
