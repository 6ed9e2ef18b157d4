// Package llm binds named model providers to the capability categories the
// platform serves. The registry is built once at startup from an explicit,
// ordered source list and is read-only afterwards; request handlers resolve
// a tenant's configured provider name into a factory at call time.
package llm

import (
	"fmt"
	log "log/slog"
	"sort"

	"github.com/sharedcode/dbal"
)

// Category is one model capability tenants can configure a provider for.
type Category string

const (
	Chat         Category = "chat"
	Vision       Category = "vision"
	Embedding    Category = "embedding"
	Rerank       Category = "rerank"
	SpeechToText Category = "speech_to_text"
	TextToSpeech Category = "text_to_speech"
)

// Categories returns every capability category, in registry build order.
func Categories() []Category {
	return []Category{Chat, Vision, Embedding, Rerank, SpeechToText, TextToSpeech}
}

// ParseCategory validates a category string from configuration or storage.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown capability category '%s'", s)
}

// ModelConfig carries what a factory needs to construct a client for one
// tenant-chosen model.
type ModelConfig struct {
	Provider  string
	ModelName string
	APIKey    string
	BaseURL   string
	MaxTokens int
	Extra     map[string]any
}

// Model is the least common surface of a built client. Capability-specific
// method sets (chat, embedding, ...) are asserted by the caller.
type Model interface {
	Provider() string
}

// Factory constructs a provider's client from its configuration.
type Factory func(cfg ModelConfig) (Model, error)

// Binding declares the provider names one implementation answers to and the
// factory that builds it. A single factory may serve several names (hosted
// and self-hosted variants of the same provider, for example).
type Binding struct {
	Providers []string
	Build     Factory
}

// Source enumerates one category's bindings. A nil Bindings func marks a
// capability this build does not ship; the category is skipped and its
// registry stays empty rather than failing startup.
type Source struct {
	Category Category
	Bindings func() []Binding
}

// Registry maps provider names to factories per capability category. Built
// once by NewRegistry, it exposes no mutating methods afterwards.
type Registry struct {
	factories map[Category]map[string]Factory
}

// NewRegistry builds the lookup tables from sources, in order. Rebinding a
// provider name within a category is allowed and deterministic: the later
// source wins, and the override is logged. A binding that declares no
// provider names fails the build.
func NewRegistry(sources []Source) (*Registry, error) {
	r := &Registry{factories: make(map[Category]map[string]Factory, len(Categories()))}
	for _, c := range Categories() {
		r.factories[c] = map[string]Factory{}
	}
	for _, src := range sources {
		if _, ok := r.factories[src.Category]; !ok {
			return nil, fmt.Errorf("unknown capability category '%s'", src.Category)
		}
		if src.Bindings == nil {
			log.Debug("capability source not present, skipped", "category", string(src.Category))
			continue
		}
		for _, b := range src.Bindings() {
			if len(b.Providers) == 0 {
				return nil, fmt.Errorf("category %s: binding declares no provider names", src.Category)
			}
			if b.Build == nil {
				return nil, fmt.Errorf("category %s: binding for %v has no factory", src.Category, b.Providers)
			}
			for _, name := range b.Providers {
				if _, bound := r.factories[src.Category][name]; bound {
					log.Warn("provider rebound, later registration wins", "category", string(src.Category), "provider", name)
				}
				r.factories[src.Category][name] = b.Build
			}
		}
	}
	return r, nil
}

// Resolve returns the factory bound to provider in category. A miss is the
// user-facing UnsupportedProvider error, distinct from lookup plumbing
// failures, so API layers can report it as a tenant configuration problem.
func (r *Registry) Resolve(category Category, provider string) (Factory, error) {
	f, ok := r.factories[category][provider]
	if !ok {
		return nil, dbal.Error{
			Code:     dbal.UnsupportedProvider,
			Err:      fmt.Errorf("unsupported provider '%s' for %s model", provider, category),
			UserData: provider,
		}
	}
	return f, nil
}

// Build resolves cfg.Provider in category and constructs the client.
func (r *Registry) Build(category Category, cfg ModelConfig) (Model, error) {
	f, err := r.Resolve(category, cfg.Provider)
	if err != nil {
		return nil, err
	}
	return f(cfg)
}

// Has reports whether provider is bound in category.
func (r *Registry) Has(category Category, provider string) bool {
	_, ok := r.factories[category][provider]
	return ok
}

// Providers returns the provider names bound in category, sorted.
func (r *Registry) Providers(category Category) []string {
	names := make([]string, 0, len(r.factories[category]))
	for name := range r.factories[category] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
