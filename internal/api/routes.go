// Package api exposes the HTTP surface: device auth, single-shot turns,
// conversation history, and the websocket upgrade.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/internal/auth"
	ws "github.com/vaanihq/vaani/internal/websocket"
)

// TurnService is the slice of the turn use case the handlers need.
type TurnService interface {
	ProcessTurn(ctx context.Context, userText string, pc entities.ProcessContext) (string, error)
	History(ctx context.Context, conversationID string) ([]entities.TurnRecord, error)
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	authenticator *auth.Authenticator
	turns         TurnService
	hub           *ws.Hub
	defaultDomain string
	logger        *zap.Logger
}

// InitRoutes registers all routes on the echo instance.
func InitRoutes(
	e *echo.Echo,
	authenticator *auth.Authenticator,
	turns TurnService,
	hub *ws.Hub,
	defaultDomain string,
	logger *zap.Logger,
) {
	h := &Handler{
		authenticator: authenticator,
		turns:         turns,
		hub:           hub,
		defaultDomain: defaultDomain,
		logger:        logger,
	}

	e.GET("/health", h.health)
	e.POST("/api/v1/device/auth", h.deviceAuth)

	v1 := e.Group("/api/v1", h.requireToken)
	v1.POST("/turn", h.turn)
	v1.GET("/conversations/:id", h.conversationHistory)

	e.GET("/ws", h.serveWebSocket)
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": h.hub.ClientCount(),
	})
}

func (h *Handler) deviceAuth(c echo.Context) error {
	var req DeviceAuthRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "malformed request body"})
	}
	if req.DeviceID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "device_id is required"})
	}

	token, expiresAt, err := h.authenticator.GenerateDeviceToken(req.DeviceID)
	if err != nil {
		h.logger.Error("failed to issue device token",
			zap.String("deviceID", req.DeviceID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "token_issue_failed"})
	}
	return c.JSON(http.StatusOK, DeviceAuthResponse{Token: token, ExpiresAt: expiresAt})
}

func (h *Handler) turn(c echo.Context) error {
	var req TurnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "malformed request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "text is required"})
	}
	lang := entities.Language(req.Language)
	if !lang.Supported() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "unsupported language"})
	}
	domain := req.Domain
	if domain == "" {
		domain = h.defaultDomain
	}

	pc := entities.NewProcessContext(lang, domain, req.ConversationID)
	if req.Segment != "" {
		pc = pc.WithSegment(req.Segment)
	}

	text, err := h.turns.ProcessTurn(c.Request().Context(), req.Text, pc)
	if err != nil {
		h.logger.Error("turn failed",
			zap.String("turnID", pc.TurnID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "turn_failed"})
	}
	return c.JSON(http.StatusOK, TurnResponse{
		ConversationID: pc.ConversationID,
		TurnID:         pc.TurnID,
		Text:           text,
	})
}

func (h *Handler) conversationHistory(c echo.Context) error {
	conversationID := c.Param("id")
	records, err := h.turns.History(c.Request().Context(), conversationID)
	if err != nil {
		h.logger.Error("failed to load conversation history",
			zap.String("conversationID", conversationID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "history_failed"})
	}

	resp := ConversationHistoryResponse{
		ConversationID: conversationID,
		Turns:          make([]TurnHistoryEntry, 0, len(records)),
	}
	for _, r := range records {
		resp.Turns = append(resp.Turns, TurnHistoryEntry{
			TurnID:    r.TurnID,
			Language:  string(r.Language),
			UserText:  r.UserText,
			AgentText: r.AgentText,
			Compliant: r.Compliant,
			CreatedAt: r.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// serveWebSocket authenticates via the token query parameter, since browser
// and embedded websocket clients cannot set an Authorization header on the
// upgrade request.
func (h *Handler) serveWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "missing token"})
	}
	claims, err := h.authenticator.ValidateToken(token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "invalid token"})
	}
	return ws.HandleWebSocketWithAuth(h.hub, c, claims.DeviceID, h.logger)
}

// requireToken guards the JSON endpoints with a bearer token.
func (h *Handler) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "missing bearer token"})
		}
		claims, err := h.authenticator.ValidateToken(token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "invalid token"})
		}
		c.Set("deviceID", claims.DeviceID)
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
