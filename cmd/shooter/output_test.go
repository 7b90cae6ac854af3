package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/five82/shooter/internal/app"
	"github.com/five82/shooter/internal/shooter"
)

func sampleReport() generateReport {
	credits := 3
	return generateReport{
		Result: app.Result{
			Handle:  shooter.JobHandle{TaskID: "abc"},
			Credits: &credits,
			Outcome: shooter.Succeeded([]shooter.ImageRef{{PreviewURL: "/m/a.png", DownloadURL: "/m/a_hr.png"}}, nil),
		},
		Saved: []string{"/tmp/abc_1.png"},
	}
}

func TestWriteOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	report := sampleReport()
	if err := writeOutput(&buf, formatJSON, report, report.writeText); err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	outcome := decoded["outcome"].(map[string]any)
	if outcome["kind"] != "succeeded" {
		t.Fatalf("kind = %v, want succeeded", outcome["kind"])
	}
	if decoded["credits"] != float64(3) {
		t.Fatalf("credits = %v", decoded["credits"])
	}
}

func TestWriteOutput_YAMLInlinesResult(t *testing.T) {
	var buf bytes.Buffer
	report := sampleReport()
	if err := writeOutput(&buf, formatYAML, report, report.writeText); err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	job, ok := decoded["job"].(map[string]any)
	if !ok || job["task_id"] != "abc" {
		t.Fatalf("job = %#v", decoded["job"])
	}
	if _, ok := decoded["saved"]; !ok {
		t.Fatal("saved paths missing")
	}
}

func TestWriteOutput_Text(t *testing.T) {
	var buf bytes.Buffer
	report := sampleReport()
	if err := writeOutput(&buf, formatText, report, report.writeText); err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"abc", "succeeded", "/m/a_hr.png", "/tmp/abc_1.png"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Message") {
		t.Errorf("empty fields should be skipped:\n%s", out)
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{formatText, formatJSON, formatYAML} {
		if err := validateFormat(f); err != nil {
			t.Errorf("validateFormat(%q) = %v", f, err)
		}
	}
	if err := validateFormat("xml"); err == nil {
		t.Fatal("validateFormat(xml) should fail")
	}
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"generate", "status", "download"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag missing")
	}
}
