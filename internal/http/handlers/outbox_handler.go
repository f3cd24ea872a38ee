// Outbox inspection handlers. Delivery failures never surface as request
// errors; they are recorded on the outbox records, and these endpoints are
// how operators find them:
//   - GET /outbox            (paginated, optional ?state=pending|sent|failed)
//   - GET /outbox/stats      (counts per state and change-feed backlog)
//   - GET /outbox/{id}
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/climetry/go-notify-backend/internal/domain"
)

// ListOutboxResponse contains a page of outbox records.
type ListOutboxResponse struct {
	Records    []domain.OutboxRecord `json:"records"`
	Pagination Pagination            `json:"pagination"`
}

// ListOutbox godoc
// @ID          listOutbox
// @Summary     List outbox records
// @Description Newest first. Filter by delivery state to find failed pushes.
// @Tags        Outbox
// @Produce     json
// @Param       state      query  string  false  "Delivery state"  Enums(pending, sent, failed)
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListOutboxResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown state"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /outbox [get]
func (h *Handlers) ListOutbox(c *gin.Context) {
	state := domain.DeliveryState(strings.ToLower(strings.TrimSpace(c.Query("state"))))
	page, pageSize := clampPagination(c)

	items, total, err := h.outbox.ListPage(c.Request.Context(), state, page, pageSize)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.OutboxRecord{}
	}
	ok(c, http.StatusOK, ListOutboxResponse{
		Records:    items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetOutbox godoc
// @ID          getOutbox
// @Summary     Get an outbox record
// @Tags        Outbox
// @Produce     json
// @Param       id  path  string  true  "Outbox record ID"
// @Success     200  {object}  domain.OutboxRecord
// @Failure     404  {object}  handlers.ErrorResponse  "Record not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /outbox/{id} [get]
func (h *Handlers) GetOutbox(c *gin.Context) {
	rec, err := h.outbox.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	// Records only move forward; state plus settle time identifies a version.
	var settled int64
	if rec.SentAt != nil {
		settled = rec.SentAt.UnixNano()
	}
	etag := fmt.Sprintf(`W/"outbox:%s:%s:%d:%d"`, rec.ID, rec.DeliveryState, settled, len(rec.Error))
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}
	ok(c, http.StatusOK, rec)
}

// OutboxStats godoc
// @ID          outboxStats
// @Summary     Outbox and change-feed counters
// @Tags        Outbox
// @Produce     json
// @Success     200  {object}  repo.OutboxStats
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /outbox/stats [get]
func (h *Handlers) OutboxStats(c *gin.Context) {
	st, err := h.outbox.Stats(c.Request.Context())
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, st)
}
