// Package vars expands per-image text placeholders at render time.
package vars

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Context carries the per-image values substituted into text layers.
// Timestamp is injected by the caller (captured once per batch) so that
// repeated renders of the same batch stay deterministic.
type Context struct {
	Filename  string
	Timestamp time.Time
	Index     int // 1-based position in the batch
}

// Expand replaces the supported placeholders in s:
//
//	{filename} - the image's filename without extension
//	{date}     - YYYY-MM-DD
//	{year}     - four-digit year
//	{index}    - 1-based sequence index within the batch
//
// Unknown placeholders are left untouched.
func Expand(s string, ctx Context) string {
	if !strings.Contains(s, "{") {
		return s
	}

	name := strings.TrimSuffix(ctx.Filename, filepath.Ext(ctx.Filename))

	r := strings.NewReplacer(
		"{filename}", name,
		"{date}", ctx.Timestamp.Format("2006-01-02"),
		"{year}", strconv.Itoa(ctx.Timestamp.Year()),
		"{index}", strconv.Itoa(ctx.Index),
	)
	return r.Replace(s)
}
