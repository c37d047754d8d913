package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/sandevgo/polychat/internal/config"
	"github.com/sandevgo/polychat/internal/core"
	"github.com/sandevgo/polychat/pkg/log"
)

// Registry owns the active {provider, model} selection. The selection is
// per-process and not persisted across restarts. Switching providers
// invalidates the cached model list.
type Registry struct {
	cfg *config.ProviderConfig

	mu      sync.RWMutex
	name    string
	model   string
	current core.ChatProvider
	models  []core.Model
}

func NewRegistry(cfg *config.ProviderConfig) (*Registry, error) {
	provider, err := NewProvider(cfg.Provider, cfg)
	if err != nil {
		return nil, err
	}
	return &Registry{
		cfg:     cfg,
		name:    cfg.Provider,
		model:   cfg.Model,
		current: provider,
	}, nil
}

// Provider returns the active adapter.
func (r *Registry) Provider() core.ChatProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Selection returns the active {provider, model} pair.
func (r *Registry) Selection() (string, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name, r.model
}

// Select switches the active provider and drops the cached model list.
func (r *Registry) Select(name string) error {
	provider, err := NewProvider(name, r.cfg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.name = name
	r.current = provider
	r.models = nil
	r.model = ""
	return nil
}

func (r *Registry) SetModel(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.model = model
}

// ListModels queries the active backend, caching the result. An
// unavailable backend degrades to an empty list instead of an error so
// callers never see transport failures here.
func (r *Registry) ListModels(ctx context.Context) []core.Model {
	r.mu.RLock()
	cached := r.models
	provider := r.current
	name := r.name
	r.mu.RUnlock()

	if cached != nil {
		return cached
	}

	models, err := provider.Models(ctx)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("provider", name).Msg("model listing unavailable")
		return []core.Model{}
	}

	r.mu.Lock()
	r.models = models
	r.mu.Unlock()
	return models
}

// InvalidateModels drops the cached model list, e.g. after a pull.
func (r *Registry) InvalidateModels() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = nil
}

// Puller returns the active provider's pull capability, if it has one.
func (r *Registry) Puller() (core.ModelPuller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	puller, ok := r.current.(core.ModelPuller)
	if !ok {
		return nil, fmt.Errorf("provider %s cannot pull models", r.name)
	}
	return puller, nil
}
