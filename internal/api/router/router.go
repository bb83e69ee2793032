package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/markforge/watermark-engine/internal/api/handlers/export"
	"github.com/markforge/watermark-engine/internal/middleware"
)

func Setup(h *export.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware())
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	api.POST("/export", h.Submit)   // submitting a batch export
	api.GET("/export/:id", h.Get)   // batch status and per-image results
	api.POST("/preview", h.Preview) // single-image watermark preview

	return r
}
