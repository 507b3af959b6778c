package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/remoter/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

const localSettings = `
transport: local
concurrency: 2
logging:
  level: error
  format: json
`

const projectYAML = `
name: demo
remoter:
  - script: run.sh
    input-file: data.txt
    output:
      directory: results
      file: out.txt
    machines:
      - user: me
        host: m1
        working-dir: /work
        py-interpreter-path: sh
      - user: me
        host: m2:2200
        working-dir: /work
        py-interpreter-path: sh
`

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("expected JSON, got %q", out)
	}
	if info["version"] == "" {
		t.Error("expected a version")
	}
}

func TestSchemaCmd(t *testing.T) {
	tests := []struct {
		format string
		decode func([]byte, any) error
	}{
		{"json", json.Unmarshal},
		{"yaml", yaml.Unmarshal},
	}
	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			out, err := execute(t, "schema", "--format", tc.format)
			if err != nil {
				t.Fatal(err)
			}
			var doc map[string]any
			if err := tc.decode([]byte(out), &doc); err != nil {
				t.Fatalf("invalid %s: %v", tc.format, err)
			}
			props, _ := doc["properties"].(map[string]any)
			block, _ := props["remoter"].(map[string]any)
			if block["type"] != "array" {
				t.Errorf("expected the remoter block to be an array, got %v", block)
			}
			if doc["title"] != "remoter project" {
				t.Errorf("unexpected title %v", doc["title"])
			}
		})
	}
}

func TestSchemaCmdUnknownFormat(t *testing.T) {
	if _, err := execute(t, "schema", "--format", "toml"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestCheckCmd(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "remoter.settings.yaml", localSettings)
	proj := writeFile(t, dir, "remoter.yaml", projectYAML)

	out, err := execute(t, "check", "--settings", settings, "--config", proj)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "is valid: 1 task(s)") || !strings.Contains(out, "runRemoteExecution") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestCheckCmdInvalidProject(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "remoter.settings.yaml", localSettings)
	proj := writeFile(t, dir, "remoter.yaml", strings.Replace(projectYAML, "input-file", "input", 1))

	_, err := execute(t, "check", "--settings", settings, "--config", proj)
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
	if !strings.Contains(err.Error(), "remoter[0].input-file: is required") {
		t.Errorf("expected the missing key in %q", err.Error())
	}
}

func TestCheckCmdMissingProject(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "remoter.settings.yaml", localSettings)
	_, err := execute(t, "check", "--settings", settings, "--config", filepath.Join(dir, "missing.yaml"))
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestRunCmdLocalTransport(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "remoter.settings.yaml", localSettings)
	proj := writeFile(t, dir, "remoter.yaml", projectYAML)
	writeFile(t, dir, "run.sh", "sed 's/^/seen /' input.txt > out.txt\n")
	writeFile(t, dir, "data.txt", "x\ny\n")

	if _, err := execute(t, "run", "--settings", settings, "--config", proj); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "results", "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %q", data)
	}
	for _, l := range lines {
		if l != "seen x" && l != "seen y" {
			t.Errorf("unexpected line %q", l)
		}
	}
}

func TestRunCmdUnknownTask(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "remoter.settings.yaml", localSettings)
	proj := writeFile(t, dir, "remoter.yaml", projectYAML)

	_, err := execute(t, "run", "--settings", settings, "--config", proj, "deploy")
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG for an unknown task, got %v", err)
	}
}
