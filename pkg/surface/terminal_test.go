package surface_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/trialscope/trialscope/pkg/dashboard"
	"github.com/trialscope/trialscope/pkg/snapshot"
	"github.com/trialscope/trialscope/pkg/surface"
)

func sampleModel() *dashboard.Model {
	e := dashboard.NewEngine(dashboard.DefaultOptions())
	return e.Build(snapshot.Baseline(), time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC))
}

func TestTerminalRenderer_BasicOutput(t *testing.T) {
	// Set NO_COLOR to avoid ANSI codes in test comparison
	t.Setenv("NO_COLOR", "1")

	model := sampleModel()
	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer

	if err := r.Render(&buf, model); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Trialscope: DQI",
		"Readiness " + string(model.ExecutiveKPIs.ReadinessStatus.Current),
		"profile standard, ladder standard",
		"KPIs:",
		"Query Resolution",
		"DQI breakdown:",
		"Readiness criteria:",
		"Lowest-scoring sites:",
		"Insights:",
		"Recommended actions:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
	if strings.Contains(output, "\033[") {
		t.Error("unexpected ANSI codes with NO_COLOR set")
	}
	if strings.Contains(output, "baseline data") {
		t.Error("live model should not carry the baseline banner")
	}
}

func TestTerminalRenderer_BaselineBanner(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	model := sampleModel()
	model.Provenance.Source = dashboard.SourceBaseline
	model.Provenance.SourceError = "bucket unreachable"

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, model); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "Showing baseline data: bucket unreachable") {
		t.Error("expected baseline banner")
	}
}

func TestTerminalRenderer_ColorRespected(t *testing.T) {
	// Without NO_COLOR, output should have ANSI codes
	if v, ok := os.LookupEnv("NO_COLOR"); ok {
		os.Unsetenv("NO_COLOR")
		defer os.Setenv("NO_COLOR", v)
	}

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, sampleModel()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[") {
		t.Error("expected ANSI escape codes when NO_COLOR is not set")
	}
}

func TestMarkdownReport(t *testing.T) {
	model := sampleModel()
	report := (&surface.MarkdownRenderer{}).BuildReport(model)

	wantConclusion := map[string]string{"ready": "success", "at-risk": "neutral", "not-ready": "failure"}
	status := string(model.ExecutiveKPIs.ReadinessStatus.Current)
	if report.Conclusion != wantConclusion[status] {
		t.Errorf("conclusion = %s for readiness %s", report.Conclusion, status)
	}
	if !strings.Contains(report.Title, "readiness "+status) {
		t.Errorf("title = %q", report.Title)
	}
	for _, want := range []string{"### Headline KPIs", "| Data Quality Index |", "### Readiness criteria", "### Recommendations"} {
		if !strings.Contains(report.Summary, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestJSONRendererRoundTrips(t *testing.T) {
	model := sampleModel()
	var buf bytes.Buffer
	if err := (&surface.JSONRenderer{}).Render(&buf, model); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var decoded dashboard.Model
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ExecutiveKPIs.DQI.Current != model.ExecutiveKPIs.DQI.Current {
		t.Errorf("dqi = %v, want %v", decoded.ExecutiveKPIs.DQI.Current, model.ExecutiveKPIs.DQI.Current)
	}
	if !strings.Contains(buf.String(), "\n  \"executiveKPIs\"") {
		t.Error("expected two-space indentation")
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		want    surface.Renderer
		wantErr bool
	}{
		{"", &surface.TerminalRenderer{}, false},
		{"text", &surface.TerminalRenderer{}, false},
		{"json", &surface.JSONRenderer{}, false},
		{"markdown", &surface.MarkdownRenderer{}, false},
		{"xml", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := surface.ForFormat(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ForFormat(%q) error = %v", tt.format, err)
			}
			if tt.wantErr {
				return
			}
			if fmt.Sprintf("%T", got) != fmt.Sprintf("%T", tt.want) {
				t.Errorf("ForFormat(%q) = %T, want %T", tt.format, got, tt.want)
			}
		})
	}
}
