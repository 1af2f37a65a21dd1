// Package router wires handlers to the gin engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mannyyang/docubeam/internal/server/middleware"
)

// DocumentHandler lists the route handlers the router mounts.
type DocumentHandler interface {
	Upload(c *gin.Context)
	List(c *gin.Context)
	Get(c *gin.Context)
	Delete(c *gin.Context)
	OCRResult(c *gin.Context)
	Text(c *gin.Context)
	Page(c *gin.Context)
	Status(c *gin.Context)
	Retry(c *gin.Context)
	Images(c *gin.Context)
	Summary(c *gin.Context)
	Search(c *gin.Context)
	File(c *gin.Context)
}

// New builds the engine with all routes and middleware.
func New(apiKey string, docs DocumentHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Health check, no auth.
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	d := r.Group("/documents")
	if apiKey != "" {
		d.Use(middleware.APIKey(apiKey))
	}
	{
		d.POST("/upload", docs.Upload)
		d.GET("", docs.List)
		d.GET("/:id", docs.Get)
		d.DELETE("/:id", docs.Delete)
		d.GET("/:id/ocr", docs.OCRResult)
		d.GET("/:id/ocr/status", docs.Status)
		d.POST("/:id/ocr/retry", docs.Retry)
		d.GET("/:id/text", docs.Text)
		d.GET("/:id/pages/:pageNumber", docs.Page)
		d.GET("/:id/images", docs.Images)
		d.GET("/:id/summary", docs.Summary)
		d.GET("/:id/search", docs.Search)
		d.GET("/:id/file", docs.File)
	}

	return r
}
