// Package state records what kvpview last did to each view, so status can
// report it without reading the log files.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reloquent/kvpview/internal/config"
)

const DefaultPath = "~/.kvpview/state.yaml"

// State is the run history, keyed by qualified view name.
type State struct {
	LastUpdated time.Time              `yaml:"last_updated"`
	Views       map[string]ViewRecord  `yaml:"views,omitempty"`
	Unions      map[string]UnionRecord `yaml:"unions,omitempty"`
}

// ViewRecord describes the last successful refresh of a yearly view.
type ViewRecord struct {
	Source      string    `yaml:"source"`
	Fields      int       `yaml:"fields"`
	RefreshedAt time.Time `yaml:"refreshed_at"`
}

// UnionRecord describes the last append attempt against a union view.
type UnionRecord struct {
	Yearly    string    `yaml:"yearly"`
	Outcome   string    `yaml:"outcome"`
	CheckedAt time.Time `yaml:"checked_at"`
}

// Load reads the state file. A missing file yields an empty state.
func Load(path string) (*State, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(config.ExpandHome(path))
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	s := New()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	if s.Views == nil {
		s.Views = make(map[string]ViewRecord)
	}
	if s.Unions == nil {
		s.Unions = make(map[string]UnionRecord)
	}
	return s, nil
}

// Save writes the state file, creating its directory.
func (s *State) Save(path string) error {
	if path == "" {
		path = DefaultPath
	}
	path = config.ExpandHome(path)

	s.LastUpdated = time.Now()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// New creates an empty state.
func New() *State {
	return &State{
		LastUpdated: time.Now(),
		Views:       make(map[string]ViewRecord),
		Unions:      make(map[string]UnionRecord),
	}
}

// RecordView stores a successful refresh of view.
func (s *State) RecordView(view, source string, fields int) {
	s.Views[view] = ViewRecord{Source: source, Fields: fields, RefreshedAt: time.Now()}
}

// RecordUnion stores the outcome of appending yearly to union.
func (s *State) RecordUnion(union, yearly, outcome string) {
	s.Unions[union] = UnionRecord{Yearly: yearly, Outcome: outcome, CheckedAt: time.Now()}
}

// ViewNames returns the recorded view names in order.
func (s *State) ViewNames() []string {
	names := make([]string, 0, len(s.Views))
	for name := range s.Views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
