package router

import (
	"os"

	"animehome/backend/pkg/validator"
)

// openAPIValidator loads the request schema and serves it under /api/docs.
// A missing or invalid schema disables validation rather than failing startup.
func (r *Router) openAPIValidator(schemaPath string) *validator.OpenAPIValidator {
	if schemaPath == "" {
		return nil
	}
	if _, err := os.Stat(schemaPath); os.IsNotExist(err) {
		r.Logger.Warn("OpenAPI schema file not found, skipping validation", "path", schemaPath)
		return nil
	}

	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		r.Logger.Error("Failed to initialize OpenAPI validator", "error", err.Error())
		return nil
	}

	r.Engine.StaticFile("/api/docs/openapi.yaml", schemaPath)
	r.Logger.Info("OpenAPI validation enabled", "schema", schemaPath, "operations", v.Operations())
	return v
}
