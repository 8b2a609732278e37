package llm

import (
	"fmt"
	"sort"
	"sync"
)

// ProviderFactory builds Provider instances from a provider code plus
// the minimal per-instance settings. The factory package registers the
// real constructors; this indirection keeps the llm package free of
// imports on its own sub-packages.
type ProviderFactory interface {
	CreateProvider(providerCode string, apiKey string, baseURL string) (Provider, error)
}

// DefaultProviderFactory is a concurrency-safe in-memory
// ProviderFactory keyed by provider code.
type DefaultProviderFactory struct {
	mu           sync.RWMutex
	constructors map[string]func(apiKey, baseURL string) (Provider, error)
}

// NewDefaultProviderFactory returns an empty factory.
func NewDefaultProviderFactory() *DefaultProviderFactory {
	return &DefaultProviderFactory{
		constructors: make(map[string]func(apiKey, baseURL string) (Provider, error)),
	}
}

// RegisterProvider maps code to a constructor, replacing any previous
// registration.
func (f *DefaultProviderFactory) RegisterProvider(code string, constructor func(apiKey, baseURL string) (Provider, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[code] = constructor
}

// CreateProvider builds a provider for code.
func (f *DefaultProviderFactory) CreateProvider(providerCode string, apiKey string, baseURL string) (Provider, error) {
	f.mu.RLock()
	constructor, exists := f.constructors[providerCode]
	f.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("no constructor registered for provider code %q", providerCode)
	}

	return constructor(apiKey, baseURL)
}

// Codes returns the sorted registered provider codes.
func (f *DefaultProviderFactory) Codes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	codes := make([]string, 0, len(f.constructors))
	for code := range f.constructors {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
