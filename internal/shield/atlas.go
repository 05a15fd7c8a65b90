package shield

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"sort"
	"sync"
)

// ErrImageExists is returned when an id is registered twice.
var ErrImageExists = errors.New("image already registered")

// ErrImageNotFound is returned for unknown ids.
var ErrImageNotFound = errors.New("image not found")

// Atlas is the image registry of a map renderer, keyed by icon id.
type Atlas interface {
	HasImage(id string) bool
	AddImage(id string, img image.Image) error
}

// MemoryAtlas is an Atlas kept in memory. It is safe for concurrent use.
type MemoryAtlas struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewMemoryAtlas creates an empty atlas.
func NewMemoryAtlas() *MemoryAtlas {
	return &MemoryAtlas{images: make(map[string]image.Image)}
}

// HasImage reports whether id is registered.
func (a *MemoryAtlas) HasImage(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.images[id]
	return ok
}

// AddImage registers img under id.
func (a *MemoryAtlas) AddImage(id string, img image.Image) error {
	if img == nil {
		return fmt.Errorf("nil image for %s", id)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.images[id]; ok {
		return fmt.Errorf("%w: %s", ErrImageExists, id)
	}
	a.images[id] = img
	return nil
}

// Image returns the image registered under id.
func (a *MemoryAtlas) Image(id string) (image.Image, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	img, ok := a.images[id]
	return img, ok
}

// IDs returns all registered ids, sorted.
func (a *MemoryAtlas) IDs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, 0, len(a.images))
	for id := range a.images {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered images.
func (a *MemoryAtlas) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.images)
}

// WritePNG encodes the image registered under id.
func (a *MemoryAtlas) WritePNG(w io.Writer, id string) error {
	img, ok := a.Image(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	return png.Encode(w, img)
}
