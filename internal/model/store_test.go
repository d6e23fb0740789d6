package model_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vacancy-pipeline/internal/model"
)

func newArtifact(at time.Time, instructions string) *model.Artifact {
	return &model.Artifact{
		Version:      model.VersionFor(at),
		CreatedAt:    at,
		Instructions: instructions,
		ExampleCount: 1,
	}
}

func TestFileStore_SaveWritesVersionAndLatest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models") // created on first use
	store := model.NewFileStore(dir)

	at := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	res, err := store.Save(newArtifact(at, "v1"))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if filepath.Base(res.VersionPath) != "optimized_parser_2024_03_09_14_05.json" {
		t.Fatalf("unexpected versioned name %s", res.VersionPath)
	}
	if filepath.Base(res.LatestPath) != "optimized_parser_latest.json" {
		t.Fatalf("unexpected latest name %s", res.LatestPath)
	}

	latest, err := store.Latest()
	if err != nil {
		t.Fatalf("expected latest, got %v", err)
	}
	if latest.Instructions != "v1" {
		t.Fatalf("expected v1, got %q", latest.Instructions)
	}

	versioned, err := model.Load(res.VersionPath)
	if err != nil || versioned.Instructions != "v1" {
		t.Fatalf("versioned copy unreadable: %v", err)
	}
}

func TestFileStore_VersionsAreKept(t *testing.T) {
	dir := t.TempDir()
	store := model.NewFileStore(dir)

	first := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	r1, err := store.Save(newArtifact(first, "v1"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(newArtifact(second, "v2")); err != nil {
		t.Fatal(err)
	}

	old, err := model.Load(r1.VersionPath)
	if err != nil || old.Instructions != "v1" {
		t.Fatalf("first version must survive a later save: %v", err)
	}
	latest, err := store.Latest()
	if err != nil || latest.Instructions != "v2" {
		t.Fatalf("latest must point at v2, got %+v err=%v", latest, err)
	}
}

func TestFileStore_ExistingVersionNotOverwritten(t *testing.T) {
	dir := t.TempDir()
	store := model.NewFileStore(dir)
	at := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	if _, err := store.Save(newArtifact(at, "original")); err != nil {
		t.Fatal(err)
	}
	_, err := store.Save(newArtifact(at, "replacement"))
	if !errors.Is(err, model.ErrVersionExists) {
		t.Fatalf("expected ErrVersionExists, got %v", err)
	}

	latest, err := store.Latest()
	if err != nil || latest.Instructions != "original" {
		t.Fatalf("a rejected save must leave latest untouched, got %+v err=%v", latest, err)
	}
	v, _ := model.Load(store.VersionPath(model.VersionFor(at)))
	if v.Instructions != "original" {
		t.Fatalf("versioned copy was overwritten: %q", v.Instructions)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, ".artifact-*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestFileStore_LatestMissing(t *testing.T) {
	store := model.NewFileStore(t.TempDir())
	if _, err := store.Latest(); !errors.Is(err, model.ErrNoArtifact) {
		t.Fatalf("expected ErrNoArtifact, got %v", err)
	}
}

func TestFileStore_LatestCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := model.NewFileStore(dir)
	if err := os.WriteFile(store.LatestPath(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Latest(); err == nil {
		t.Fatal("expected parse error for corrupt artifact")
	}
}

func TestFileStore_SaveRejectsEmptyVersion(t *testing.T) {
	store := model.NewFileStore(t.TempDir())
	if _, err := store.Save(&model.Artifact{}); !errors.Is(err, model.ErrInvalidVersion) {
		t.Fatalf("expected ErrInvalidVersion, got %v", err)
	}
}
