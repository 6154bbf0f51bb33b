package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/galleryhub/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// exposeStackKey is set on the gin context when error responses may include
// the captured stack.
const exposeStackKey = "exposeStack"

// ExposeStack marks every request so error envelopes carry a stack trace.
func ExposeStack() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(exposeStackKey, true)
		c.Next()
	}
}

func respondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondError translates a service error into the failure envelope.
func respondError(c *gin.Context, err error) {
	appErr := services.AsAppError(err)
	status := appErr.StatusCode()

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", appErr.Error(),
		)
	}

	body := gin.H{"success": false, "error": appErr.PublicMessage()}
	if c.GetBool(exposeStackKey) {
		body["stack"] = appErr.Stack()
	}
	c.AbortWithStatusJSON(status, body)
}

// recoverPanic is the catch-all for panics escaping a handler.
func recoverPanic(c *gin.Context, recovered any) {
	slog.Error("panic recovered", "path", c.Request.URL.Path, "panic", recovered)
	respondError(c, services.NewBackendError("Internal server error", nil))
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, services.NewValidationError("Invalid id")
	}
	return uint(id), nil
}

// optionalInt reads a non-negative integer query parameter; absent means nil.
func optionalInt(c *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, services.NewValidationError("Invalid " + key + " parameter")
	}
	return &v, nil
}

// optionalBool reads a boolean query parameter; absent means nil.
func optionalBool(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, services.NewValidationError("Invalid " + key + " parameter")
	}
	return &v, nil
}

// listParams collects the shared listing filters from the query string.
func listParams(c *gin.Context) (services.ImageQueryParams, error) {
	params := services.ImageQueryParams{
		Category: strings.TrimSpace(c.Query("category")),
		Status:   strings.TrimSpace(c.Query("status")),
	}
	var err error
	if params.Featured, err = optionalBool(c, "featured"); err != nil {
		return params, err
	}
	if params.Limit, err = optionalInt(c, "limit"); err != nil {
		return params, err
	}
	if params.Offset, err = optionalInt(c, "offset"); err != nil {
		return params, err
	}
	return params, nil
}
