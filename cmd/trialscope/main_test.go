package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/trialscope/trialscope/pkg/config"
	"github.com/trialscope/trialscope/pkg/dashboard"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

func TestBuildCmdFlags(t *testing.T) {
	cmd := newBuildCmd()
	f := cmd.Flags()

	outputFmt, _ := f.GetString("output")
	if outputFmt != "text" {
		t.Errorf("default output = %q, want text", outputFmt)
	}
	for _, flag := range []string{"snapshot", "output", "now", "profile", "ladder"} {
		if f.Lookup(flag) == nil {
			t.Errorf("missing flag: %s", flag)
		}
	}
}

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"build", "score", "classify", "diff", "publish", "serve"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %s not registered: %v", name, err)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing persistent flag: config")
	}
}

func TestExecuteCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "absent.yaml")
	snapPath := filepath.Join(dir, "study.json")
	if err := snapshot.Save(snapPath, snapshot.Baseline()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"build json", []string{"build", "--snapshot", snapPath, "--output", "json", "--now", "2025-03-14T08:00:00Z"}, false},
		{"build baseline markdown", []string{"build", "--snapshot", "baseline", "--output", "markdown"}, false},
		{"build bad format", []string{"build", "--snapshot", "baseline", "--output", "xml"}, true},
		{"build bad now", []string{"build", "--snapshot", "baseline", "--now", "yesterday"}, true},
		{"build bad profile", []string{"build", "--snapshot", "baseline", "--profile", "weighted"}, true},
		{"score compare", []string{"score", "--snapshot", snapPath, "--compare"}, false},
		{"classify", []string{"classify", "--open-saes", "5", "--resolution", "90"}, false},
		{"classify negative", []string{"classify", "--open-saes", "-1", "--resolution", "90"}, true},
		{"classify missing resolution", []string{"classify", "--open-saes", "1"}, true},
		{"diff", []string{"diff", "--base", "baseline", "--head", snapPath}, false},
		{"publish", []string{"publish", "--snapshot", snapPath}, false},
		{"publish missing file", []string{"publish", "--snapshot", filepath.Join(dir, "nope.json")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", dir)
			root := newRootCmd()
			root.SetArgs(append([]string{"--config", cfgPath}, tt.args...))
			err := root.Execute()
			if (err != nil) != tt.wantErr {
				t.Errorf("Execute(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestScoreProfiles(t *testing.T) {
	snap, err := snapshot.Parse([]byte(`{"queries":{"total":1000,"open":200},"saes":{"total":500,"open":0}}`))
	if err != nil {
		t.Fatal(err)
	}
	results, err := scoreProfiles(snap, []string{"standard", "decomposed"})
	if err != nil {
		t.Fatalf("scoreProfiles: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Score != 95 {
		t.Errorf("standard score = %d, want 95", results[0].Score)
	}
	if results[1].Profile != "decomposed" {
		t.Errorf("second profile = %s", results[1].Profile)
	}

	if _, err := scoreProfiles(snap, []string{"nope"}); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestCompareModels(t *testing.T) {
	engine := dashboard.NewEngine(dashboard.DefaultOptions())
	now := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	base := engine.Build(snapshot.Baseline(), now)
	same := compareModels(base, engine.Build(snapshot.Baseline(), now))
	for _, k := range same.KPIs {
		if k.Delta != 0 {
			t.Errorf("%s delta = %v, want 0", k.Label, k.Delta)
		}
	}
	if len(same.Sites) != 0 {
		t.Errorf("site changes = %v, want none", same.Sites)
	}

	improved := snapshot.Baseline()
	improved.SAEs.Open = 0
	d := compareModels(base, engine.Build(improved, now))
	var openSAEs kpiChange
	for _, k := range d.KPIs {
		if k.Label == base.ExecutiveKPIs.OpenSAEs.Label {
			openSAEs = k
		}
	}
	if openSAEs.Base != 6 || openSAEs.Head != 0 || openSAEs.Delta != -6 {
		t.Errorf("open SAE change = %+v", openSAEs)
	}
}

func TestEngineOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	engineOverrides{ladder: "lenient"}.apply(cfg)
	if cfg.Scoring.Ladder != "lenient" || cfg.Scoring.Profile != "standard" {
		t.Errorf("scoring = %+v", cfg.Scoring)
	}

	ladder, err := ladderFor(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ladder.OpenSAECeiling != 100 {
		t.Errorf("ceiling = %d, want 100", ladder.OpenSAECeiling)
	}
}

func TestParseNow(t *testing.T) {
	got, err := parseNow("2025-03-14T08:00:00Z")
	if err != nil || !got.Equal(time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("parseNow = %v, %v", got, err)
	}
	if _, err := parseNow("14 March"); err == nil {
		t.Error("expected error for non-RFC3339 time")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"a", "b", "c"}, "a"},
		{[]string{"", "b", "c"}, "b"},
		{[]string{"", "", "c"}, "c"},
		{[]string{"", "", ""}, ""},
	}

	for _, tt := range tests {
		got := firstNonEmpty(tt.args...)
		if got != tt.want {
			t.Errorf("firstNonEmpty(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
