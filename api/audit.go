package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/avoronova/flatbook/internal/service/audit"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	service audit.AuditUseCase
}

type auditRecordResponse struct {
	ID         int64           `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Actor      string          `json:"actor"`
	Details    json.RawMessage `json:"details,omitempty"`
	OccurredAt string          `json:"occurred_at"`
}

func NewAuditHandler(service audit.AuditUseCase) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
}

func (h *AuditHandler) list(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	records, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]auditRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, auditRecordResponse{
			ID:         rec.ID,
			Action:     string(rec.Action),
			EntityType: rec.EntityType,
			EntityID:   rec.EntityID,
			Actor:      rec.Actor,
			Details:    rec.Details,
			OccurredAt: rec.OccurredAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, resp)
}
