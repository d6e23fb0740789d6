package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

const (
	latestName = "optimized_parser_latest.json"
	lockName   = ".optimized_parser.lock"
)

var (
	ErrNoArtifact     = errors.New("no model artifact")
	ErrVersionExists  = errors.New("model version already exists")
	ErrInvalidVersion = errors.New("artifact version is empty")
)

// SaveResult reports where an artifact was written.
type SaveResult struct {
	VersionPath string
	LatestPath  string
}

// FileStore keeps artifacts in a directory: an immutable
// optimized_parser_<version>.json per training run and an
// optimized_parser_latest.json alias that is replaced last.
type FileStore struct {
	dir string

	mu         sync.Mutex
	cached     *Artifact
	cachedStat os.FileInfo
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) LatestPath() string { return filepath.Join(s.dir, latestName) }

func (s *FileStore) VersionPath(version string) string {
	return filepath.Join(s.dir, fmt.Sprintf("optimized_parser_%s.json", version))
}

// Save writes the versioned copy and, only once that succeeded, replaces the
// latest alias. An existing versioned copy is never overwritten.
func (s *FileStore) Save(a *Artifact) (SaveResult, error) {
	if a == nil || a.Version == "" {
		return SaveResult{}, ErrInvalidVersion
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return SaveResult{}, fmt.Errorf("create model dir: %w", err)
	}

	lock := flock.New(filepath.Join(s.dir, lockName))
	if err := lock.Lock(); err != nil {
		return SaveResult{}, fmt.Errorf("lock model dir: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return SaveResult{}, fmt.Errorf("marshal artifact: %w", err)
	}

	res := SaveResult{VersionPath: s.VersionPath(a.Version), LatestPath: s.LatestPath()}

	tmp, err := s.writeTemp(data)
	if err != nil {
		return SaveResult{}, err
	}
	// Link fails when the target exists, so a version is written at most once.
	if err := os.Link(tmp, res.VersionPath); err != nil {
		_ = os.Remove(tmp)
		if errors.Is(err, os.ErrExist) {
			return SaveResult{}, fmt.Errorf("%w: %s", ErrVersionExists, a.Version)
		}
		return SaveResult{}, fmt.Errorf("write versioned artifact: %w", err)
	}
	if err := os.Rename(tmp, res.LatestPath); err != nil {
		_ = os.Remove(tmp)
		return SaveResult{}, fmt.Errorf("replace latest artifact: %w", err)
	}

	return res, nil
}

func (s *FileStore) writeTemp(data []byte) (string, error) {
	f, err := os.CreateTemp(s.dir, ".artifact-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("write temp artifact: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("sync temp artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close temp artifact: %w", err)
	}
	return name, nil
}

// Latest returns the artifact behind the latest alias. The parsed artifact is
// cached until the file changes.
func (s *FileStore) Latest() (*Artifact, error) {
	path := s.LatestPath()

	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoArtifact
		}
		return nil, fmt.Errorf("stat latest artifact: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The alias is replaced by rename, so a new file means a new artifact.
	if s.cached != nil && os.SameFile(st, s.cachedStat) && st.ModTime().Equal(s.cachedStat.ModTime()) {
		return s.cached, nil
	}

	a, err := Load(path)
	if err != nil {
		return nil, err
	}
	s.cached, s.cachedStat = a, st
	return a, nil
}

// Load parses an artifact file.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoArtifact
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", filepath.Base(path), err)
	}
	if a.Version == "" {
		return nil, fmt.Errorf("parse artifact %s: %w", filepath.Base(path), ErrInvalidVersion)
	}
	return &a, nil
}
