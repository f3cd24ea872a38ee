// Response helpers shared by all endpoints. Every error goes through fail so
// the envelope stays uniform and 5xx responses are logged with the request's
// logger.
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "record not found"
//	}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/climetry/go-notify-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"record not found"`
}

// retryAfterSeconds is advertised on 503 responses; readiness flaps and
// store timeouts clear quickly.
const retryAfterSeconds = "1"

// fail aborts the request with an ErrorResponse. 5xx responses are logged at
// error level, client errors at debug.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	}

	lg := middleware.LoggerFrom(c)
	ev := lg.Debug()
	if status >= http.StatusInternalServerError {
		ev = lg.Error()
	}
	ev.Int("status", status).
		Str("code", code).
		Str("message", msg).
		Msg("api error")

	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", retryAfterSeconds)
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is fail for the router's NoRoute/NoMethod handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// created answers a POST: 201 for a new record, 200 plus the replay header
// when an earlier request with the same idempotency key already created it.
func created(c *gin.Context, collection, id string, replayed bool) {
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	c.JSON(status, CreatedResponse{ID: id, Collection: collection})
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
