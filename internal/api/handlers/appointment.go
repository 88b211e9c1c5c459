package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/api/middleware"
	"github.com/opsboard/opsboard/internal/core/appointment"
)

type AppointmentHandler struct {
	service *appointment.Service
}

func NewAppointmentHandler(service *appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

func (h *AppointmentHandler) List(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	result, err := h.service.List(c.Request.Context(), tenantID, parseListRequest(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AppointmentHandler) Export(c *gin.Context) {
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

	respondCSV(c, "appointments", appointment.CSVColumns(), rows)
}

func (h *AppointmentHandler) Create(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	var req appointment.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.service.Create(c.Request.Context(), tenantID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list, err := h.service.List(c.Request.Context(), tenantID, parseListRequest(c))
	if err != nil {
		c.JSON(http.StatusCreated, gin.H{"item": a})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": a, "list": list})
}

// UpdateStatus handles the manual status selector. Selecting the current
// status is accepted as a no-op and returns the unchanged appointment.
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}

	var req appointment.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.service.UpdateStatus(c.Request.Context(), tenantID, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, appointment.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	list, err := h.service.List(c.Request.Context(), tenantID, parseListRequest(c))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"item": a})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": a, "list": list})
}

func (h *AppointmentHandler) Delete(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, id); err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
