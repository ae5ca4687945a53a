package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/dispatcher"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/service"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/approval"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// DeliveryCounter reports notification delivery attempts per status
type DeliveryCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// HandlerDeps are the services behind the HTTP handlers. Deliveries is optional.
type HandlerDeps struct {
	Router     service.MessageRouter
	Audit      service.AuditService
	Records    port.RecordRepository
	Handbook   *approval.Handbook
	Dispatcher dispatcher.Dispatcher
	Deliveries DeliveryCounter
	Version    string
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   HandlerDeps
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps HandlerDeps, logger Logger) *Handlers {
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handlers{deps: deps, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// MessageRequest is the body of POST /api/v1/messages
type MessageRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role"`
	Text   string `json:"text" binding:"required"`
}

// PolicyResponse is one handbook section
type PolicyResponse struct {
	Topic string `json:"topic"`
	Text  string `json:"text"`
}

// StatsResponse combines dispatcher counters and logged delivery outcomes
type StatsResponse struct {
	Dispatcher dispatcher.Stats `json:"dispatcher"`
	Deliveries map[string]int   `json:"deliveries,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   h.deps.Version,
		},
	})
}

// SubmitMessage handles POST /api/v1/messages.
// Routing outcomes, rejections and failures included, are returned with 200;
// only malformed input is a 400.
func (h *Handlers) SubmitMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid message body", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "user_id and text are required",
		})
		return
	}

	role := entity.UserRole(req.Role)
	if role == "" {
		role = entity.RoleResident
	}

	result := h.deps.Router.SubmitMessage(c.Request.Context(), req.UserID, role, req.Text)
	if result.AuditCode == entity.CodeInvalidInput {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Data:    result,
			Error:   result.ResponseText,
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: result.Status != entity.StatusFailed,
		Data:    result,
	})
}

// ListPolicies handles GET /api/v1/policies
func (h *Handlers) ListPolicies(c *gin.Context) {
	topics := h.deps.Handbook.Topics()
	policies := make([]PolicyResponse, 0, len(topics))
	for _, topic := range topics {
		text, _ := h.deps.Handbook.Topic(topic)
		policies = append(policies, PolicyResponse{Topic: topic, Text: text})
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: policies})
}

// GetPolicy handles GET /api/v1/policies/:topic
func (h *Handlers) GetPolicy(c *gin.Context) {
	topic := c.Param("topic")
	text, ok := h.deps.Handbook.Topic(topic)
	if !ok {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "unknown policy topic",
		})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: PolicyResponse{Topic: topic, Text: text}})
}

// GetRecord handles GET /api/v1/records/:id
func (h *Handlers) GetRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid record id",
		})
		return
	}

	rec, err := h.deps.Records.GetByID(c.Request.Context(), id)
	if errors.Is(err, port.ErrNotFound) {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "record not found",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get record", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to load record",
		})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: rec})
}

// ListAuditRequest represents query parameters for listing audit entries
type ListAuditRequest struct {
	ActorID       string `form:"actor_id"`
	CorrelationID string `form:"correlation_id"`
	Limit         int    `form:"limit"`
}

// ListAudit handles GET /api/v1/audit
func (h *Handlers) ListAudit(c *gin.Context) {
	var req ListAuditRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}

	entries, err := h.deps.Audit.List(c.Request.Context(), port.AuditFilter{
		ActorID:       req.ActorID,
		CorrelationID: req.CorrelationID,
		Limit:         req.Limit,
	})
	if err != nil {
		h.logger.Error("Failed to list audit entries", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to list audit entries",
		})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// NotificationStats handles GET /api/v1/notifications/stats
func (h *Handlers) NotificationStats(c *gin.Context) {
	resp := StatsResponse{}
	if h.deps.Dispatcher != nil {
		resp.Dispatcher = h.deps.Dispatcher.Stats()
	}
	if h.deps.Deliveries != nil {
		counts, err := h.deps.Deliveries.CountByStatus(c.Request.Context())
		if err != nil {
			h.logger.Error("Failed to count deliveries", "error", err)
			c.JSON(http.StatusInternalServerError, Response{
				Success: false,
				Error:   "failed to count deliveries",
			})
			return
		}
		resp.Deliveries = counts
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}
