package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	ctx := Context{ImageName: "beach.jpg", Operation: "Export"}

	tests := []struct {
		name      string
		err       error
		wantTitle string
	}{
		{name: "decode", err: fmt.Errorf("%w: bad header", ErrImageDecode), wantTitle: "Could not read image"},
		{name: "surface", err: fmt.Errorf("%w: 0x0", ErrRenderSurface), wantTitle: "Rendering failed"},
		{name: "encode", err: fmt.Errorf("%w: webp", ErrArtifactEncode), wantTitle: "Could not save result"},
		{name: "font", err: fmt.Errorf("%w: family \"Futura\"", ErrFontResolve), wantTitle: "Font unavailable"},
		{name: "cancelled", err: ErrCancelled, wantTitle: "Export cancelled"},
		{name: "unknown", err: errors.New("boom"), wantTitle: "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.err, ctx)

			require.Equal(t, tt.wantTitle, got.Title)
			require.Equal(t, "beach.jpg", got.ImageName)
			require.Contains(t, got.Message, "beach.jpg")
			require.NotEmpty(t, got.SuggestedAction)
			// Raw diagnostic detail must never leak through.
			require.NotContains(t, got.Message, "boom")
			require.NotContains(t, got.Message, "bad header")
		})
	}
}

func TestNormalizeWithoutImageName(t *testing.T) {
	got := Normalize(errors.New("boom"), Context{Operation: "Export"})

	require.Equal(t, "Something went wrong", got.Title)
	require.Equal(t, "Export failed for the image.", got.Message)
	require.Empty(t, got.ImageName)
}
