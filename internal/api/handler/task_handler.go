package handler

import (
	"errors"
	"io"
	"net/http"

	"caseflow/internal/access"
	"caseflow/internal/api/dto"
	"caseflow/internal/core/ports"
	"caseflow/internal/domain"
	"caseflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	tasks *service.TaskService
	perms ports.PermissionChecker
}

func NewTaskHandler(tasks *service.TaskService, perms ports.PermissionChecker) *TaskHandler {
	return &TaskHandler{tasks: tasks, perms: perms}
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svcReq := service.CreateTaskRequest{
		ExpedienteID:   req.ExpedienteID,
		Title:          req.Title,
		Description:    req.Description,
		Type:           domain.TaskType(req.Type),
		Priority:       domain.TaskPriority(req.Priority),
		AssignedUserID: req.AssignedUserID,
		DueAt:          req.DueAt,
	}
	if req.DepartmentID != nil {
		svcReq.DepartmentID = *req.DepartmentID
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), svcReq)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) ListByExpediente(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	filter := ports.TaskFilter{Status: domain.TaskStatus(c.Query("status"))}
	tasks, err := h.tasks.ListByExpediente(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) MyTasks(c *gin.Context) {
	tasks, err := h.tasks.MyTasks(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) AddDependency(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddDependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	edge, err := h.tasks.AddDependency(c.Request.Context(), id, req.DependsOnID, domain.DependencyType(req.Type))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, edge)
}

func (h *TaskHandler) Dependencies(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deps, err := h.tasks.Dependencies(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deps)
}

func (h *TaskHandler) Dependents(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deps, err := h.tasks.Dependents(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deps)
}

func (h *TaskHandler) CanStart(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	canStart, err := h.tasks.CanStart(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"can_start": canStart})
}

func (h *TaskHandler) Start(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.authorized(c, id) {
		return
	}
	task, err := h.tasks.Start(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.authorized(c, id) {
		return
	}
	task, err := h.tasks.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Assign(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.authorized(c, id) {
		return
	}
	task, err := h.tasks.Assign(c.Request.Context(), id, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Complete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	// Body is optional: completing without a result falls back to a default.
	var req dto.CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.authorized(c, id) {
		return
	}
	task, err := h.tasks.Complete(c.Request.Context(), id, actorFrom(c).ID, req.Result)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// authorized loads the task and checks the actor may manage it. Writes the
// error response itself when the check fails.
func (h *TaskHandler) authorized(c *gin.Context, id uuid.UUID) bool {
	task, err := h.tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !h.perms.CanAct(actorFrom(c), access.ActionManageTask, task) {
		forbid(c)
		return false
	}
	return true
}
