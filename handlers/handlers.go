// Package handlers exposes the task store over HTTP using gin.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tasklist/store"
	"tasklist/web"
)

// Options shapes responses.
type Options struct {
	// ExposeErrorDetails adds the underlying error text to 500 responses.
	ExposeErrorDetails bool
}

// Handler serves the task endpoint, the page and the export.
type Handler struct {
	store  store.Store
	logger *slog.Logger
	opts   Options
}

// New creates a Handler.
func New(st store.Store, logger *slog.Logger, opts Options) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  st,
		logger: logger.With("component", "http"),
		opts:   opts,
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(st store.Store, logger *slog.Logger, opts Options) (*gin.Engine, error) {
	h := New(st, logger, opts)

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())
	r.SetHTMLTemplate(tmpl)

	h.Register(r)
	return r, nil
}

// Register adds the routes to r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.health)
	r.GET("/", h.index)

	tasks := r.Group("/api/tasks")
	tasks.GET("", h.listTasks)
	tasks.POST("", h.createTask)
	tasks.PUT("", h.updateTask)
	tasks.DELETE("", h.deleteTask)
	tasks.POST("/toggle", h.toggleTask)
	tasks.GET("/export", h.exportTasks)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			h.logger.ErrorContext(c.Request.Context(), "request", attrs...)
		case status >= http.StatusBadRequest:
			h.logger.WarnContext(c.Request.Context(), "request", attrs...)
		default:
			h.logger.InfoContext(c.Request.Context(), "request", attrs...)
		}
	}
}
