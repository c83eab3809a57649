package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trialscope/trialscope/pkg/config"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

func TestLocalStorePutGet(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)
	ctx := context.Background()

	data := []byte(`{"queries":{"total":5}}`)
	if err := s.Put(ctx, "study-1/latest.json", data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "study-1/latest.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Get = %q, want %q", got, data)
	}

	expectedPath := filepath.Join(dir, "study-1", "latest.json")
	if _, err := os.Stat(expectedPath); err != nil {
		t.Errorf("expected file at %s: %v", expectedPath, err)
	}
}

func TestLocalStoreGetNotFound(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	_, err := s.Get(context.Background(), "missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSourceFetch(t *testing.T) {
	dir := t.TempDir()
	src := New(NewLocalStore(dir), "latest.json")
	ctx := context.Background()

	if err := src.Publish(ctx, snapshot.BaselineJSON()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	snap, err := src.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snap.Queries.Total != 2400 {
		t.Errorf("fetched queries total = %d, want 2400", snap.Queries.Total)
	}
	if !strings.HasPrefix(src.Location(), "file://") || !strings.HasSuffix(src.Location(), "latest.json") {
		t.Errorf("Location() = %s", src.Location())
	}
}

func TestSourceFetchErrors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	missing := New(NewLocalStore(dir), "nope.json")
	if _, err := missing.Fetch(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	bad := New(NewLocalStore(dir), "bad.json")
	if _, err := bad.Fetch(ctx); err == nil {
		t.Error("expected parse error")
	}

	if err := bad.Publish(ctx, []byte("[1,2")); err == nil {
		t.Error("expected Publish to reject invalid document")
	}
}

func TestOpenFileSource(t *testing.T) {
	dir := t.TempDir()
	src, err := Open(context.Background(), config.SourceConfig{Kind: "file", Path: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !strings.HasSuffix(src.Location(), "snapshots/latest.json") {
		t.Errorf("default key not applied: %s", src.Location())
	}

	if _, err := Open(context.Background(), config.SourceConfig{Kind: "ftp"}); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := Open(context.Background(), config.SourceConfig{Kind: "s3"}); err == nil {
		t.Error("expected error for s3 without bucket")
	}
}
