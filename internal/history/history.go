// Package history keeps a small JSON file of protected-VM samples, one per run.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type Sample struct {
	TimestampUTC time.Time `json:"timestampUtc"`
	ProtectedVMs int       `json:"protectedVms"`
	EntitledVMs  int       `json:"entitledVms"`
}

type file struct {
	Samples []Sample `json:"samples"`
}

type Store struct {
	path       string
	maxSamples int
	now        func() time.Time

	mu      sync.Mutex
	samples []Sample
}

// Open loads the store at path. A missing file is an empty history.
func Open(path string, maxSamples int) (*Store, error) {
	if maxSamples <= 0 {
		maxSamples = 400
	}
	s := &Store{path: path, maxSamples: maxSamples, now: time.Now}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("history: read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("history: parse %s: %w", path, err)
	}
	sort.SliceStable(f.Samples, func(i, j int) bool {
		return f.Samples[i].TimestampUTC.Before(f.Samples[j].TimestampUTC)
	})
	s.samples = f.Samples
	return s, nil
}

// Record appends a sample and rewrites the file.
func (s *Store) Record(sample Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sample.TimestampUTC.IsZero() {
		sample.TimestampUTC = s.now().UTC()
	}
	s.samples = append(s.samples, sample)
	if len(s.samples) > s.maxSamples {
		s.samples = s.samples[len(s.samples)-s.maxSamples:]
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("history: mkdir: %w", err)
	}
	raw, err := json.MarshalIndent(file{Samples: s.samples}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("history: write %s: %w", s.path, err)
	}
	return nil
}

// Samples returns protected-VM counts recorded within the last days, oldest first.
func (s *Store) Samples(days int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	out := []int{}
	for _, sample := range s.samples {
		if sample.TimestampUTC.After(cutoff) {
			out = append(out, sample.ProtectedVMs)
		}
	}
	return out, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}
