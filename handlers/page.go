package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklist/export"
	"tasklist/models"
)

type pageData struct {
	Tasks []models.Task
	Stats models.Stats
	Error string
}

// GET / renders the task list.
func (h *Handler) index(c *gin.Context) {
	tasks, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "store operation failed", "op", "list", "error", err)
		c.HTML(http.StatusInternalServerError, "index.html", pageData{Error: "Failed to load tasks"})
		return
	}
	c.HTML(http.StatusOK, "index.html", pageData{
		Tasks: tasks,
		Stats: models.Summarize(tasks),
	})
}

// GET /api/tasks/export?format=json|csv|pdf
func (h *Handler) exportTasks(c *gin.Context) {
	tasks, err := h.store.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "list", err, "Failed to fetch tasks")
		return
	}

	doc, err := export.Render(tasks, c.DefaultQuery("format", "json"))
	if errors.Is(err, export.ErrUnknownFormat) {
		badRequest(c, "Unknown export format")
		return
	}
	if err != nil {
		h.respondError(c, "export", err, "Failed to export tasks")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
