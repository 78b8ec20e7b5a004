package api

import (
	"strconv"

	"animehome/backend/internal/service"
	apperrors "animehome/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// idParam parses a positive integer path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.Error(apperrors.ValidationWithDetails("INVALID_ID", "Invalid "+name, c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

// pageParams reads ?skip=&limit= with the defaults of the list endpoints.
func pageParams(c *gin.Context) (service.Page, bool) {
	page := service.Page{Limit: service.DefaultLimit}

	if v := c.Query("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			c.Error(apperrors.ValidationWithDetails("INVALID_QUERY", "skip must be a non-negative integer", v))
			return page, false
		}
		page.Skip = skip
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.Error(apperrors.ValidationWithDetails("INVALID_QUERY", "limit must be a non-negative integer", v))
			return page, false
		}
		page.Limit = limit
	}
	return page, true
}

func bindError(c *gin.Context, err error) {
	c.Error(apperrors.ValidationWithDetails("VALIDATION_ERROR", "Invalid request body", err.Error()))
}

// handle registers h under path with and without a trailing slash.
func handle(r gin.IRoutes, method, path string, h gin.HandlerFunc) {
	r.Handle(method, path, h)
	r.Handle(method, path+"/", h)
}
