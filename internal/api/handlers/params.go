package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsboard/opsboard/internal/pipeline"
)

// Query params consumed by the list machinery; everything else is treated as
// an equality filter (the "all" sentinel and unmapped keys drop out inside
// the pipeline).
var reservedParams = map[string]bool{
	"search":      true,
	"page":        true,
	"page_size":   true,
	"from":        true,
	"to":          true,
	"range_field": true,
}

// parseListRequest builds a pipeline request from query params. Filters are
// applied before the page so the page survives: an explicit page param means
// the caller already holds this exact filter state.
func parseListRequest(c *gin.Context) pipeline.ListRequest {
	req := pipeline.NewListRequest()

	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		req.SetEquality(key, values[0])
	}

	if search := c.Query("search"); search != "" {
		req.SetSearch(search)
	}

	from := parseDate(c.Query("from"))
	to := parseDate(c.Query("to"))
	if from != nil || to != nil {
		field := c.DefaultQuery("range_field", "created_at")
		req.SetRange(field, from, to)
	}

	if size, err := strconv.Atoi(c.Query("page_size")); err == nil {
		req.SetPageSize(size)
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		req.SetPage(page)
	}

	return req
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return nil
		}
	}
	return &t
}

// respondCSV streams the full filtered set as a CSV attachment.
func respondCSV[T any](c *gin.Context, name string, columns []pipeline.CSVColumn[T], rows []T) {
	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	if err := pipeline.WriteCSV(c.Writer, columns, rows); err != nil {
		_ = c.Error(err)
	}
}
