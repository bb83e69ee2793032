package logocache

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func encodedPNG(t *testing.T) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, imaging.Encode(buf, imaging.New(8, 8, color.White), imaging.PNG))
	return buf.Bytes()
}

func TestResolveDecodesLazily(t *testing.T) {
	c := New()
	c.Put("logo", encodedPNG(t))

	img, ok := c.Resolve("logo")
	require.True(t, ok)
	require.Equal(t, 8, img.Bounds().Dx())

	// Second lookup hits the decoded entry and returns the same bitmap.
	again, ok := c.Resolve("logo")
	require.True(t, ok)
	require.Same(t, img, again)
}

func TestResolveMiss(t *testing.T) {
	c := New()

	img, ok := c.Resolve("nope")

	require.False(t, ok)
	require.Nil(t, img)
}

func TestResolveUndecodablePayload(t *testing.T) {
	c := New()
	c.Put("bad", []byte("not an image"))

	_, ok := c.Resolve("bad")

	require.False(t, ok)
}

func TestPutImage(t *testing.T) {
	c := New()
	bitmap := imaging.New(4, 4, color.Black)
	c.PutImage("logo", bitmap)

	img, ok := c.Resolve("logo")

	require.True(t, ok)
	require.Same(t, bitmap, img)
}

func TestPutReplacesDecodedEntry(t *testing.T) {
	c := New()
	c.PutImage("logo", imaging.New(4, 4, color.Black))

	c.Put("logo", encodedPNG(t))

	img, ok := c.Resolve("logo")
	require.True(t, ok)
	require.Equal(t, 8, img.Bounds().Dx())
}

func TestRemoveAndLen(t *testing.T) {
	c := New()
	require.Equal(t, 0, c.Len())

	c.Put("a", encodedPNG(t))
	c.PutImage("b", imaging.New(4, 4, color.Black))
	require.Equal(t, 2, c.Len())

	// Resolving does not change the id count.
	_, ok := c.Resolve("a")
	require.True(t, ok)
	require.Equal(t, 2, c.Len())

	c.Remove("a")
	require.Equal(t, 1, c.Len())

	_, ok = c.Resolve("a")
	require.False(t, ok)
}
