package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/api/middleware"
	"github.com/opsboard/opsboard/internal/core/agentquery"
)

type AgentQueryHandler struct {
	service *agentquery.Service
}

func NewAgentQueryHandler(service *agentquery.Service) *AgentQueryHandler {
	return &AgentQueryHandler{service: service}
}

// List returns the row page only. KPIs come from Stats so a page change
// never re-triggers the KPI computation.
func (h *AgentQueryHandler) List(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	page, err := h.service.List(c.Request.Context(), tenantID, parseListRequest(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *AgentQueryHandler) Stats(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	metrics, err := h.service.Stats(c.Request.Context(), tenantID, parseListRequest(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, metrics)
}

func (h *AgentQueryHandler) Export(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	rows, err := h.service.Export(c.Request.Context(), tenantID, parseListRequest(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	respondCSV(c, "agent-queries", agentquery.CSVColumns(), rows)
}

func (h *AgentQueryHandler) Create(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	var req agentquery.CreateQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := h.service.Create(c.Request.Context(), tenantID, &req)
	if err != nil {
		if errors.Is(err, agentquery.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, q)
}

func (h *AgentQueryHandler) Delete(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, id); err != nil {
		if errors.Is(err, agentquery.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
