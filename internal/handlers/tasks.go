package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskify/backend/internal/middleware"
	"taskify/backend/internal/services"
)

type TaskHandler struct {
	db    *gorm.DB
	tasks services.TaskService
}

func NewTaskHandler(db *gorm.DB, tasks services.TaskService) *TaskHandler {
	return &TaskHandler{db: db, tasks: tasks}
}

func (h *TaskHandler) Create(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var input services.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.tasks.CreateTask(h.db, actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, task)
}

func (h *TaskHandler) List(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	tasks, err := h.tasks.GetTasks(h.db, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondList(c, tasks, len(tasks))
}

func (h *TaskHandler) ListMine(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	tasks, err := h.tasks.GetMyTasks(h.db, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondList(c, tasks, len(tasks))
}

func (h *TaskHandler) ListByUser(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	userID, err := uuid.FromString(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	tasks, err := h.tasks.GetTasksByUser(h.db, actor, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondList(c, tasks, len(tasks))
}

// ListInRadius returns the caller's tasks within distance km of a
// point. Admins see every located task in range.
func (h *TaskHandler) ListInRadius(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	lat, err := strconv.ParseFloat(c.Param("lat"), 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid latitude")
		return
	}
	lng, err := strconv.ParseFloat(c.Param("lng"), 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid longitude")
		return
	}
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil || distance < 0 {
		respondError(c, http.StatusBadRequest, "Invalid distance")
		return
	}

	tasks, err := h.tasks.GetTasksInRadius(h.db, actor, lat, lng, distance)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondList(c, tasks, len(tasks))
}

func (h *TaskHandler) Get(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task id")
		return
	}

	task, err := h.tasks.GetTaskByID(h.db, actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task id")
		return
	}

	var update services.TaskUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.tasks.UpdateTask(h.db, actor, id, update)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, task)
}

func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.tasks.UpdateTaskStatus(h.db, actor, id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task id")
		return
	}

	if err := h.tasks.DeleteTask(h.db, actor, id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Task deleted successfully")
}
