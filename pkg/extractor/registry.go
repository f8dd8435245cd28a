package extractor

import (
	"sort"
	"sync"
)

// Registry maps input formats to the extractors able to read them
type Registry struct {
	extractors map[string][]DataExtractor
	mu         sync.RWMutex
}

// NewRegistry creates a new extractor registry
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string][]DataExtractor),
	}
}

// Register adds an extractor under every format it supports
func (r *Registry) Register(extractor DataExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, format := range extractor.SupportedFormats() {
		r.extractors[format] = append(r.extractors[format], extractor)
	}
}

// GetExtractorsForFormat returns all extractors that support the given format
func (r *Registry) GetExtractorsForFormat(format string) []DataExtractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.extractors[format]
}

// GetExtractorByName finds an extractor with the given name for a format
func (r *Registry) GetExtractorByName(name string, format string) DataExtractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.extractors[format] {
		if e.Name() == name {
			return e
		}
	}

	return nil
}

// GetSupportedFormats returns all formats with a registered extractor, sorted
func (r *Registry) GetSupportedFormats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.extractors))
	for format := range r.extractors {
		formats = append(formats, format)
	}
	sort.Strings(formats)

	return formats
}
