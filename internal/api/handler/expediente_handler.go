package handler

import (
	"net/http"
	"strconv"

	"caseflow/internal/access"
	"caseflow/internal/api/dto"
	"caseflow/internal/core/ports"
	"caseflow/internal/domain"
	"caseflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ExpedienteHandler struct {
	workflow *service.WorkflowService
	perms    ports.PermissionChecker
}

func NewExpedienteHandler(workflow *service.WorkflowService, perms ports.PermissionChecker) *ExpedienteHandler {
	return &ExpedienteHandler{workflow: workflow, perms: perms}
}

func (h *ExpedienteHandler) Create(c *gin.Context) {
	var req dto.CreateExpedienteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := h.workflow.CreateExpediente(c.Request.Context(), service.CreateExpedienteRequest{
		CaseNumber:       req.CaseNumber,
		OwnerName:        req.OwnerName,
		OwnerCedula:      req.OwnerCedula,
		Address:          req.Address,
		Municipality:     req.Municipality,
		Province:         req.Province,
		LandArea:         req.LandArea,
		ConstructionArea: req.ConstructionArea,
		AppraisalValue:   req.AppraisalValue,
		Metadata:         req.Metadata,
		CreatedBy:        actorFrom(c).ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exp)
}

func (h *ExpedienteHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	exp, err := h.workflow.GetExpediente(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

func (h *ExpedienteHandler) List(c *gin.Context) {
	filter := ports.ExpedienteFilter{
		Status:      domain.CaseStatus(c.Query("status")),
		OwnerCedula: c.Query("owner_cedula"),
		Limit:       intQuery(c, "limit", 20),
		Offset:      intQuery(c, "offset", 0),
	}
	if raw := c.Query("department_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid department_id"})
			return
		}
		filter.DepartmentID = &id
	}
	if raw := c.Query("state_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state_id"})
			return
		}
		filter.StateID = &id
	}

	items, total, err := h.workflow.ListExpedientes(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *ExpedienteHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	exp, err := h.workflow.GetExpediente(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.perms.CanAct(actorFrom(c), access.ActionTransition, exp) {
		forbid(c)
		return
	}
	if err := h.workflow.DeleteExpediente(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ExpedienteHandler) Transition(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := h.workflow.GetExpediente(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	actor := actorFrom(c)
	if !h.perms.CanAct(actor, access.ActionTransition, exp) {
		forbid(c)
		return
	}

	tr, err := h.workflow.ProposeTransition(c.Request.Context(), service.TransitionRequest{
		ExpedienteID:    id,
		ToStateID:       req.ToStateID,
		ToDepartmentID:  req.ToDepartmentID,
		Actor:           actor.ID,
		Comments:        req.Comments,
		RejectionReason: req.RejectionReason,
		Metadata:        req.Metadata,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tr)
}

func (h *ExpedienteHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	transitions, err := h.workflow.History(c.Request.Context(), id, intQuery(c, "limit", 50), intQuery(c, "offset", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transitions)
}

func (h *ExpedienteHandler) Context(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	wc, err := h.workflow.WorkflowContext(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wc)
}

func (h *ExpedienteHandler) NextStates(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	states, err := h.workflow.AvailableNextStates(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, states)
}

func (h *ExpedienteHandler) NextDepartments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	departments, err := h.workflow.AvailableNextDepartments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, departments)
}

func (h *ExpedienteHandler) Analytics(c *gin.Context) {
	analytics, err := h.workflow.Analytics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *ExpedienteHandler) DepartmentStatistics(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	stats, err := h.workflow.DepartmentStatistics(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
