// Package fontcache resolves font families to concrete font.Face values,
// caching parsed fonts and sized faces. A family that cannot be resolved
// falls back to the bundled Go Regular face so a render degrades instead of
// failing.
package fontcache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/markforge/watermark-engine/internal/apperr"
)

// Cache loads .ttf files from a directory and hands out sized faces.
// Safe for concurrent use.
type Cache struct {
	dir string

	mu       sync.Mutex
	fonts    map[string]fontEntry // keyed by lowercased family variant
	faces    map[faceKey]font.Face
	fallback *truetype.Font
}

// fontEntry remembers both the resolved font and whether the resolution
// degraded to the fallback, so repeated lookups report consistently.
type fontEntry struct {
	font *truetype.Font
	err  error
}

type faceKey struct {
	family string
	size   float64 // pixels, already rounded by the caller
}

// New creates a cache reading font files from dir. An empty dir is valid:
// every lookup then resolves to the fallback face.
func New(dir string) *Cache {
	fb, err := truetype.Parse(goregular.TTF)
	if err != nil {
		// The bundled font is a compile-time constant; parsing cannot fail
		// at runtime with a released x/image.
		panic(fmt.Sprintf("fontcache: parse bundled font: %v", err))
	}
	return &Cache{
		dir:      dir,
		fonts:    make(map[string]fontEntry),
		faces:    make(map[faceKey]font.Face),
		fallback: fb,
	}
}

// Face returns a face for the family at the given pixel size. Weight and
// style select a variant file when present ("Family-Bold.ttf",
// "Family-Italic.ttf", "Family-BoldItalic.ttf"). When no matching file
// exists the bundled fallback face is returned together with an error
// wrapping apperr.ErrFontResolve; the face is still usable.
func (c *Cache) Face(family, weight, style string, sizePx float64) (font.Face, error) {
	if sizePx <= 0 {
		sizePx = 1
	}

	variant := variantName(family, weight, style)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.load(variant, family)

	key := faceKey{family: variant, size: sizePx}
	face, ok := c.faces[key]
	if !ok {
		face = truetype.NewFace(entry.font, &truetype.Options{Size: sizePx})
		c.faces[key] = face
	}
	return face, entry.err
}

// load finds a parsed font for the variant, trying the exact variant file
// first, then the plain family file, then the fallback.
func (c *Cache) load(variant, family string) fontEntry {
	if e, ok := c.fonts[variant]; ok {
		return e
	}

	for _, name := range []string{variant, strings.ToLower(family)} {
		if name == "" {
			continue
		}
		f, err := c.parseFile(name)
		if err == nil {
			e := fontEntry{font: f}
			c.fonts[variant] = e
			return e
		}
	}

	e := fontEntry{font: c.fallback}
	if family != "" {
		e.err = fmt.Errorf("%w: family %q", apperr.ErrFontResolve, family)
	}
	c.fonts[variant] = e
	return e
}

func (c *Cache) parseFile(name string) (*truetype.Font, error) {
	if c.dir == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(filepath.Join(c.dir, name+".ttf"))
	if err != nil {
		return nil, err
	}
	return truetype.Parse(data)
}

func variantName(family, weight, style string) string {
	family = strings.ToLower(strings.TrimSpace(family))
	if family == "" {
		return ""
	}
	bold := strings.EqualFold(weight, "bold") || weight == "700"
	italic := strings.EqualFold(style, "italic")
	switch {
	case bold && italic:
		return family + "-bolditalic"
	case bold:
		return family + "-bold"
	case italic:
		return family + "-italic"
	}
	return family
}
