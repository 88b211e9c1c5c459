package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/api/middleware"
	"github.com/opsboard/opsboard/internal/core/catalog"
	"github.com/opsboard/opsboard/internal/core/validation"
)

type CatalogHandler struct {
	service *catalog.Service
}

func NewCatalogHandler(service *catalog.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) List(c *gin.Context) {
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

func (h *CatalogHandler) Export(c *gin.Context) {
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

	respondCSV(c, "catalog-items", catalog.CSVColumns(), rows)
}

// UploadDocument ingests a document item from a multipart form: the file
// under "file", the display name under "name", optional metadata JSON under
// "metadata". Validation rejects the upload before any byte is stored.
func (h *CatalogHandler) UploadDocument(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = fileHeader.Filename
	}

	var metadata map[string]interface{}
	if raw := c.PostForm("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "metadata must be valid JSON"})
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	item, err := h.service.CreateDocument(
		c.Request.Context(), tenantID,
		name, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size,
		file, metadata,
	)
	if err != nil {
		if validation.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": validation.GetValidationErrors(err)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list, err := h.service.List(c.Request.Context(), tenantID, parseListRequest(c))
	if err != nil {
		c.JSON(http.StatusCreated, gin.H{"item": item})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item, "list": list})
}

func (h *CatalogHandler) CreateURL(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	var req catalog.CreateURLItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.service.CreateURL(c.Request.Context(), tenantID, &req)
	if err != nil {
		if validation.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": validation.GetValidationErrors(err)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list, err := h.service.List(c.Request.Context(), tenantID, parseListRequest(c))
	if err != nil {
		c.JSON(http.StatusCreated, gin.H{"item": item})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item, "list": list})
}

func (h *CatalogHandler) Get(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	item, err := h.service.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, item)
}

// Update returns the updated item immediately alongside the refetched list.
// The item reflects the write even if the refetch half fails, so the caller
// can merge it into its cached view ahead of the authoritative list.
func (h *CatalogHandler) Update(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	var req catalog.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.service.Update(c.Request.Context(), tenantID, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, catalog.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case validation.IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": validation.GetValidationErrors(err)})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	list, err := h.service.List(c.Request.Context(), tenantID, parseListRequest(c))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"item": item})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "list": list})
}

func (h *CatalogHandler) Delete(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) Download(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	item, rc, err := h.service.Download(c.Request.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer rc.Close()

	c.Header("Content-Type", item.Document.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, item.Name))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
