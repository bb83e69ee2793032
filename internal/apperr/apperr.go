// Package apperr maps raw rendering and export failures into a small
// user-facing taxonomy with a suggested next action. Raw diagnostic detail
// never reaches the caller.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel categories. Lower layers wrap one of these into the errors they
// return so Normalize can classify without string matching.
var (
	ErrImageDecode    = errors.New("image decode failed")
	ErrRenderSurface  = errors.New("render surface unavailable")
	ErrArtifactEncode = errors.New("artifact encode failed")
	ErrFontResolve    = errors.New("font resolution failed")
	ErrCancelled      = errors.New("export cancelled")
)

// Context names the image and operation a failure belongs to, when known.
type Context struct {
	ImageName string
	Operation string
}

// Normalized is the user-facing shape of a failure.
type Normalized struct {
	Title           string `json:"title"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggested_action"`
	ImageName       string `json:"image_name,omitempty"`
}

// Normalize classifies err against the known categories and produces a
// short, actionable description. Unrecognized errors fall back to a generic
// "<operation> failed for <image>" message.
func Normalize(err error, ctx Context) Normalized {
	name := ctx.ImageName
	if name == "" {
		name = "the image"
	}

	switch {
	case errors.Is(err, ErrImageDecode):
		return Normalized{
			Title:           "Could not read image",
			Message:         fmt.Sprintf("%s could not be decoded. The file may be corrupt or in an unsupported format.", name),
			SuggestedAction: "Re-export the image as JPEG or PNG and try again.",
			ImageName:       ctx.ImageName,
		}
	case errors.Is(err, ErrRenderSurface):
		return Normalized{
			Title:           "Rendering failed",
			Message:         fmt.Sprintf("A drawing surface could not be prepared for %s. The image may be too large.", name),
			SuggestedAction: "Try exporting at a smaller scale or lower resolution.",
			ImageName:       ctx.ImageName,
		}
	case errors.Is(err, ErrArtifactEncode):
		return Normalized{
			Title:           "Could not save result",
			Message:         fmt.Sprintf("The rendered output for %s could not be encoded.", name),
			SuggestedAction: "Try a different output format or quality setting.",
			ImageName:       ctx.ImageName,
		}
	case errors.Is(err, ErrFontResolve):
		return Normalized{
			Title:           "Font unavailable",
			Message:         fmt.Sprintf("A font used on %s is not available; a default font was used instead.", name),
			SuggestedAction: "Install the missing font or pick another one.",
			ImageName:       ctx.ImageName,
		}
	case errors.Is(err, ErrCancelled):
		return Normalized{
			Title:           "Export cancelled",
			Message:         fmt.Sprintf("%s was not exported because the batch was cancelled.", name),
			SuggestedAction: "Start the export again to process the remaining images.",
			ImageName:       ctx.ImageName,
		}
	}

	op := ctx.Operation
	if op == "" {
		op = "The operation"
	}
	return Normalized{
		Title:           "Something went wrong",
		Message:         fmt.Sprintf("%s failed for %s.", op, name),
		SuggestedAction: "Try again; if the problem persists, remove the image from the batch.",
		ImageName:       ctx.ImageName,
	}
}
