package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklist/models"
)

type createRequest struct {
	Title string `json:"title"`
}

type updateRequest struct {
	ID   string `json:"id"`
	Done *bool  `json:"done"`
}

type idRequest struct {
	ID string `json:"id"`
}

// GET /api/tasks
func (h *Handler) listTasks(c *gin.Context) {
	tasks, err := h.store.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "list", err, "Failed to fetch tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// POST /api/tasks
func (h *Handler) createTask(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	title, err := models.NormalizeTitle(req.Title)
	if err != nil {
		h.respondError(c, "create", err, "")
		return
	}

	task, err := h.store.Create(c.Request.Context(), title)
	if err != nil {
		h.respondError(c, "create", err, "Failed to create task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

// PUT /api/tasks sets done to the value the caller sends.
func (h *Handler) updateTask(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if err := models.ValidateID(req.ID); err != nil {
		h.respondError(c, "set_done", err, "")
		return
	}
	if req.Done == nil {
		badRequest(c, "Done is required")
		return
	}

	task, err := h.store.SetDone(c.Request.Context(), req.ID, *req.Done)
	if err != nil {
		h.respondError(c, "set_done", err, "Failed to update task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// POST /api/tasks/toggle flips done inside the store.
func (h *Handler) toggleTask(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if err := models.ValidateID(req.ID); err != nil {
		h.respondError(c, "toggle", err, "")
		return
	}

	task, err := h.store.Toggle(c.Request.Context(), req.ID)
	if err != nil {
		h.respondError(c, "toggle", err, "Failed to toggle task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// DELETE /api/tasks
func (h *Handler) deleteTask(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if err := models.ValidateID(req.ID); err != nil {
		h.respondError(c, "delete", err, "")
		return
	}

	if err := h.store.Delete(c.Request.Context(), req.ID); err != nil {
		h.respondError(c, "delete", err, "Failed to delete task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
