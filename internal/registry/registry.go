// Package registry provides the process-wide cache of loaded models. Models
// are acquired lazily on first use; concurrent first use performs exactly one
// load. A failed load is not cached, so the next caller retries.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/example/crossmodal/internal/hub"
	"github.com/example/crossmodal/internal/tensor"
)

// ErrModelUnavailable wraps every load failure, so callers can distinguish
// "the model could not be acquired" from inference-time errors.
var ErrModelUnavailable = errors.New("model unavailable")

// Runner executes a loaded model graph.
type Runner interface {
	Run(ctx context.Context, inputs map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error)
	Close()
}

// Model is a loaded, ready-to-run hub model.
type Model struct {
	ID     string
	Bundle hub.Bundle
	runner Runner
}

// NewModel pairs a bundle with its runner. Exposed for loaders and tests.
func NewModel(id string, bundle hub.Bundle, runner Runner) *Model {
	return &Model{ID: id, Bundle: bundle, runner: runner}
}

// Run executes the model graph with the given named inputs.
func (m *Model) Run(ctx context.Context, inputs map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error) {
	return m.runner.Run(ctx, inputs)
}

// Close releases the model's runtime resources.
func (m *Model) Close() {
	if m.runner != nil {
		m.runner.Close()
	}
}

// LoadFunc acquires a model by ID. Implementations are expected to be slow
// (disk, shared-library init); the cache guarantees one call per miss.
type LoadFunc func(ctx context.Context, modelID string) (*Model, error)

// Cache is the lazy model cache. Safe for concurrent use.
type Cache struct {
	load LoadFunc

	mu     sync.RWMutex
	models map[string]*Model

	group singleflight.Group
}

func NewCache(load LoadFunc) *Cache {
	return &Cache{
		load:   load,
		models: make(map[string]*Model),
	}
}

// Model returns the cached model, loading it on first use. Concurrent calls
// for the same ID share a single load; a load error is returned to every
// waiter and nothing is cached.
func (c *Cache) Model(ctx context.Context, modelID string) (*Model, error) {
	c.mu.RLock()
	m, ok := c.models[modelID]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	v, err, _ := c.group.Do(modelID, func() (any, error) {
		// Re-check under the flight: another call may have stored the model
		// between our read miss and this flight winning.
		c.mu.RLock()
		cached, ok := c.models[modelID]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := c.load(ctx, modelID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, modelID, err)
		}

		c.mu.Lock()
		c.models[modelID] = loaded
		c.mu.Unlock()

		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Model), nil
}

// Loaded returns the IDs of all currently cached models, sorted.
func (c *Cache) Loaded() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.models))
	for id := range c.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Close releases every cached model and empties the cache.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, m := range c.models {
		m.Close()
		delete(c.models, id)
	}
}
