// Package export runs the compositor across a batch of images under a
// bounded worker pool, tracking per-image lifecycle state with cancellation,
// retry of failures and aggregate progress reporting.
package export

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/markforge/watermark-engine/internal/apperr"
	"github.com/markforge/watermark-engine/internal/model"
	"github.com/markforge/watermark-engine/internal/render"
	"github.com/markforge/watermark-engine/internal/vars"
)

// DefaultConcurrency bounds simultaneous renders. The cap exists to bound
// peak memory from full-resolution surfaces, not to maximize CPU use.
const DefaultConcurrency = 2

var (
	// ErrAlreadyRunning is returned when an export is started while a
	// previous one is still in flight.
	ErrAlreadyRunning = errors.New("an export is already running")
	// ErrNoBatch is returned by RetryFailed before any export has run.
	ErrNoBatch = errors.New("no batch to retry")
)

// LayerResolver returns the effective layer list for an image id (the
// override list when one exists, otherwise the global list).
type LayerResolver func(imageID string) []model.WatermarkLayer

// ProgressFunc receives a snapshot after every state transition. It is
// invoked synchronously under the controller's lock and must not call back
// into the controller.
type ProgressFunc func(model.ExportProgress)

// Option configures a Controller.
type Option func(*Controller)

// WithConcurrency overrides the worker pool size.
func WithConcurrency(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// Controller owns the state of one batch export at a time. The result list
// is mutated only under the single mutex, one mutation per task completion,
// so concurrently finishing tasks never lose updates.
type Controller struct {
	compositor  *render.Compositor
	concurrency int

	mu         sync.Mutex
	running    bool
	cancelFn   context.CancelFunc
	images     []model.ProcessedImage
	results    []model.ExportResult
	completed  int
	layers     LayerResolver
	logos      render.LogoResolver
	opts       model.RenderOptions
	onProgress ProgressFunc
	startedAt  time.Time
}

// New creates a Controller rendering with the given compositor.
func New(compositor *render.Compositor, opts ...Option) *Controller {
	c := &Controller{
		compositor:  compositor,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExportAll renders every image of the batch and returns the final result
// list. A per-image failure is recorded on that image only and never aborts
// the rest of the batch. Rejects concurrent calls with ErrAlreadyRunning.
func (c *Controller) ExportAll(ctx context.Context, images []model.ProcessedImage, layers LayerResolver, logos render.LogoResolver, opts model.RenderOptions, onProgress ProgressFunc) ([]model.ExportResult, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.running = true
	c.cancelFn = cancel
	c.images = append([]model.ProcessedImage(nil), images...)
	c.results = make([]model.ExportResult, len(images))
	for i, img := range images {
		c.results[i] = model.ExportResult{ImageID: img.ID, Status: model.StatusPending}
	}
	c.completed = 0
	c.layers = layers
	c.logos = logos
	c.opts = opts
	c.onProgress = onProgress
	// One timestamp per batch keeps {date}/{year} substitution identical
	// across all images and across reruns within the batch.
	c.startedAt = time.Now()
	c.reportLocked()
	indices := make([]int, len(images))
	for i := range indices {
		indices[i] = i
	}
	c.mu.Unlock()

	c.runPool(runCtx, indices)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.cancelFn = nil
	cancel()
	return c.snapshotLocked(), nil
}

// RetryFailed re-queues only the images currently Failed and runs them
// through the same worker pool. Done results are untouched.
func (c *Controller) RetryFailed(ctx context.Context) ([]model.ExportResult, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	if len(c.results) == 0 {
		c.mu.Unlock()
		return nil, ErrNoBatch
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.running = true
	c.cancelFn = cancel

	var indices []int
	for i := range c.results {
		if c.results[i].Status == model.StatusFailed {
			c.results[i] = model.ExportResult{ImageID: c.results[i].ImageID, Status: model.StatusPending}
			c.completed--
			indices = append(indices, i)
		}
	}
	c.reportLocked()
	c.mu.Unlock()

	c.runPool(runCtx, indices)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.cancelFn = nil
	cancel()
	return c.snapshotLocked(), nil
}

// Cancel signals the running batch to stop. Images still Pending fail with
// a cancellation reason; renders already in progress finish naturally.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancelFn
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Running reports whether a batch is currently in flight.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Results returns the latest immutable snapshot of per-image outcomes.
func (c *Controller) Results() []model.ExportResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// runPool feeds image indices to a fixed set of workers. Task start order
// is the batch input order; completion order is unconstrained.
func (c *Controller) runPool(ctx context.Context, indices []int) {
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < c.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c.runOne(ctx, i)
			}
		}()
	}
	for _, i := range indices {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// runOne moves one image through Pending -> Processing -> Done/Failed.
// Cancellation is honored at the task-start boundary.
func (c *Controller) runOne(ctx context.Context, i int) {
	img := c.images[i]
	errCtx := apperr.Context{ImageName: img.Filename, Operation: "Export"}

	if ctx.Err() != nil {
		c.complete(i, model.StatusFailed, nil, apperr.Normalize(apperr.ErrCancelled, errCtx).Message)
		return
	}

	c.transition(i, model.StatusProcessing)

	artifact, err := c.renderOne(img, i)
	if err != nil {
		c.complete(i, model.StatusFailed, nil, apperr.Normalize(err, errCtx).Message)
		return
	}
	c.complete(i, model.StatusDone, artifact, "")
}

// renderOne prepares one image's effective layers (normalized, variables
// substituted) and renders it. The resolved layer list is copied, never
// mutated in place.
func (c *Controller) renderOne(img model.ProcessedImage, i int) (*model.Artifact, error) {
	var layers []model.WatermarkLayer
	if c.layers != nil {
		layers = model.NormalizeLayers(c.layers(img.ID))
	}

	vctx := vars.Context{Filename: img.Filename, Timestamp: c.startedAt, Index: i + 1}
	for li := range layers {
		if layers[li].Kind == model.KindText {
			layers[li].Text = vars.Expand(layers[li].Text, vctx)
		}
	}

	base, err := decodeSource(img.Source)
	if err != nil {
		return nil, err
	}
	return c.compositor.Render(base, layers, c.opts, c.logos)
}

func (c *Controller) transition(i int, s model.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[i].Status = s
	c.reportLocked()
}

func (c *Controller) complete(i int, s model.Status, artifact *model.Artifact, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[i].Status = s
	c.results[i].Artifact = artifact
	c.results[i].Error = errMsg
	c.completed++
	c.reportLocked()
}

func (c *Controller) reportLocked() {
	if c.onProgress == nil {
		return
	}
	c.onProgress(model.ExportProgress{
		Completed: c.completed,
		Total:     len(c.results),
		Results:   c.snapshotLocked(),
	})
}

func (c *Controller) snapshotLocked() []model.ExportResult {
	return append([]model.ExportResult(nil), c.results...)
}
