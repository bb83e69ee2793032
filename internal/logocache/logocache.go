// Package logocache is the explicit resource cache for decoded logo
// bitmaps: inserted via Put, decoded lazily on first use, pruned via Remove.
// During a batch export the cache is only read, so concurrent renders can
// share it safely.
package logocache

import (
	"bytes"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// Cache maps logo ids to bitmaps. The zero value is not usable; call New.
type Cache struct {
	mu      sync.RWMutex
	encoded map[string][]byte
	decoded map[string]image.Image
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		encoded: make(map[string][]byte),
		decoded: make(map[string]image.Image),
	}
}

// Put registers the encoded bytes for a logo id, replacing any previous
// entry and dropping its decoded bitmap.
func (c *Cache) Put(id string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoded[id] = data
	delete(c.decoded, id)
}

// PutImage registers an already-decoded bitmap for a logo id.
func (c *Cache) PutImage(id string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoded[id] = img
	delete(c.encoded, id)
}

// Remove evicts a logo entirely.
func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.encoded, id)
	delete(c.decoded, id)
}

// Len reports the number of known logo ids.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.decoded)
	for id := range c.encoded {
		if _, ok := c.decoded[id]; !ok {
			n++
		}
	}
	return n
}

// Resolve returns the decoded bitmap for a logo id, decoding and caching it
// on first use. A missing id or undecodable payload yields ok=false; the
// compositor skips such layers rather than failing the image.
func (c *Cache) Resolve(id string) (image.Image, bool) {
	c.mu.RLock()
	if img, ok := c.decoded[id]; ok {
		c.mu.RUnlock()
		return img, true
	}
	data, ok := c.encoded[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}

	c.mu.Lock()
	c.decoded[id] = img
	c.mu.Unlock()
	return img, true
}
