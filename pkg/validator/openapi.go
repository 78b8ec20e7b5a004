package validator

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	apperrors "animehome/backend/pkg/errors"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
)

// OpenAPIValidator validates requests against an OpenAPI document
type OpenAPIValidator struct {
	swagger    *openapi3.T
	router     routers.Router
	schemaPath string
	mutex      sync.RWMutex
}

// NewOpenAPIValidator creates a new OpenAPI validator
func NewOpenAPIValidator(schemaPath string) (*OpenAPIValidator, error) {
	v := &OpenAPIValidator{schemaPath: schemaPath}
	if err := v.ReloadSchema(); err != nil {
		return nil, err
	}
	return v, nil
}

// loadOpenAPISchema loads the OpenAPI schema from disk
func loadOpenAPISchema(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	swagger, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI schema from %s: %w", path, err)
	}

	if err := swagger.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI schema: %w", err)
	}

	return swagger, nil
}

// ReloadSchema reloads the OpenAPI schema from disk
func (v *OpenAPIValidator) ReloadSchema() error {
	swagger, err := loadOpenAPISchema(v.schemaPath)
	if err != nil {
		return err
	}

	router, err := gorillamux.NewRouter(swagger)
	if err != nil {
		return fmt.Errorf("error creating OpenAPI router: %w", err)
	}

	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.swagger = swagger
	v.router = router
	return nil
}

// Operations counts the operations described by the loaded document.
func (v *OpenAPIValidator) Operations() int {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	n := 0
	for _, item := range v.swagger.Paths.Map() {
		n += len(item.Operations())
	}
	return n
}

// Middleware returns a Gin middleware that rejects requests violating the document
// with 422. Requests for routes the document does not describe pass through.
func (v *OpenAPIValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		v.mutex.RLock()
		router := v.router
		v.mutex.RUnlock()

		route, pathParams, err := router.FindRoute(c.Request)
		if err != nil {
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         false,
			},
		}

		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			appErr := apperrors.ValidationWithDetails("VALIDATION_ERROR", "Invalid request", describe(err))
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, apperrors.Body(appErr))
			return
		}

		c.Next()
	}
}

// describe keeps the part of a validation error a client can act on.
func describe(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return fmt.Sprintf("parameter %q: %v", reqErr.Parameter.Name, reqErr.Err)
		}
		if reqErr.Err != nil {
			return reqErr.Err.Error()
		}
		return reqErr.Reason
	}
	return err.Error()
}
