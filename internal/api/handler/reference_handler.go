package handler

import (
	"net/http"

	"caseflow/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// ReferenceHandler exposes the workflow reference data (states and
// departments) for UI pickers.
type ReferenceHandler struct {
	refs ports.ReferenceRepository
}

func NewReferenceHandler(refs ports.ReferenceRepository) *ReferenceHandler {
	return &ReferenceHandler{refs: refs}
}

func (h *ReferenceHandler) ListStates(c *gin.Context) {
	states, err := h.refs.ListStates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, states)
}

func (h *ReferenceHandler) ListDepartments(c *gin.Context) {
	departments, err := h.refs.ListDepartments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, departments)
}
