// Package report writes a YAML summary of a pipeline run.
package report

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Manifest struct {
	RunID      string            `yaml:"run_id"`
	Pipeline   string            `yaml:"pipeline"`
	StartedAt  time.Time         `yaml:"started_at"`
	FinishedAt time.Time         `yaml:"finished_at"`
	Inputs     map[string]string `yaml:"inputs"`
	Outputs    map[string]string `yaml:"outputs"`
	Counts     map[string]int    `yaml:"counts"`
	Settings   map[string]any    `yaml:"settings,omitempty"`
}

// NewManifest starts a manifest with a fresh run id.
func NewManifest(pipeline string) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Pipeline:  pipeline,
		StartedAt: time.Now().UTC(),
		Inputs:    map[string]string{},
		Outputs:   map[string]string{},
		Counts:    map[string]int{},
		Settings:  map[string]any{},
	}
}

func (m *Manifest) Finish() { m.FinishedAt = time.Now().UTC() }

func (m *Manifest) Duration() time.Duration {
	if m.FinishedAt.IsZero() {
		return time.Since(m.StartedAt)
	}
	return m.FinishedAt.Sub(m.StartedAt)
}

func (m *Manifest) Write(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}
