// Package file loads flow definitions exported by the visual editor from a
// directory of YAML or JSON files, one flow per file.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// Repository implements ports.FlowRepository over a flows directory.
// Definitions are loaded eagerly; call Reload to pick up new exports.
type Repository struct {
	dir string

	mu    sync.RWMutex
	flows map[string]*domain.FlowDefinition
}

// Open loads every flow definition under dir.
func Open(dir string) (*Repository, error) {
	r := &Repository{dir: dir, flows: make(map[string]*domain.FlowDefinition)}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the flows directory, replacing the loaded set.
func (r *Repository) Reload() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading flows directory %q: %w", r.dir, err)
	}

	flows := make(map[string]*domain.FlowDefinition)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		def, err := readDefinition(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			return err
		}
		if def == nil {
			continue // not a flow file
		}
		if _, dup := flows[def.ID]; dup {
			return fmt.Errorf("duplicate flow id %q in %q", def.ID, entry.Name())
		}
		flows[def.ID] = def
	}

	r.mu.Lock()
	r.flows = flows
	r.mu.Unlock()
	return nil
}

// Load reads a single flow-definition file. Used by the simulate command.
func Load(path string) (*domain.FlowDefinition, error) {
	def, err := readDefinition(path)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("%q is not a flow file (expected .yaml, .yml or .json)", path)
	}
	return def, nil
}

func readDefinition(path string) (*domain.FlowDefinition, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" && ext != ".json" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading flow file %q: %w", path, err)
	}

	var def domain.FlowDefinition
	if ext == ".json" {
		err = json.Unmarshal(data, &def)
	} else {
		err = yaml.Unmarshal(data, &def)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing flow file %q: %w", path, err)
	}
	if def.ID == "" {
		return nil, fmt.Errorf("flow file %q has no id", path)
	}

	// Exported files rarely carry an updatedAt; fall back to the file's
	// mtime so the snapshot cache still sees version changes.
	if def.UpdatedAt.IsZero() {
		if info, err := os.Stat(path); err == nil {
			def.UpdatedAt = info.ModTime().UTC()
		}
	}
	return &def, nil
}

// GetFlow retrieves a flow by ID.
func (r *Repository) GetFlow(ctx context.Context, id string) (*domain.FlowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.flows[id]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return def, nil
}

// ActiveFlows returns every loaded flow with IsActive set.
func (r *Repository) ActiveFlows(ctx context.Context) ([]*domain.FlowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active := make([]*domain.FlowDefinition, 0, len(r.flows))
	for _, def := range r.flows {
		if def.IsActive {
			active = append(active, def)
		}
	}
	return active, nil
}

// All returns every loaded flow, active or not. Used by the validate command.
func (r *Repository) All() []*domain.FlowDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*domain.FlowDefinition, 0, len(r.flows))
	for _, def := range r.flows {
		all = append(all, def)
	}
	return all
}
