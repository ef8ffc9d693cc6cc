package chat

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/persona-probe/backend/internal/model/chat"
	chatService "github.com/zhouzirui/persona-probe/backend/internal/service/chat"
	"github.com/zhouzirui/persona-probe/backend/pkg/utils"
)

const (
	errInvalidSession  = "Invalid session"
	errSessionNotFound = "Session not found"
	errInvalidBody     = "invalid request body"
	errSessionBusy     = "session busy, request cancelled"
)

// Handler 会话相关的HTTP处理器
type Handler struct {
	registry *chatService.Registry
}

// New 创建聊天处理器
func New(registry *chatService.Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Post("/session/create", h.handleCreateSession)
	r.Post("/session/end", h.handleEndSession)
	r.Post("/message", h.handleMessage)
}

type createSessionRequest struct {
	PersonaID string `json:"persona_id"`
}

type messageRequest struct {
	SessionID   string `json:"session_id"`
	Message     string `json:"message"`
	IsRoleCheck bool   `json:"is_role_check"`
}

type messageResponse struct {
	Response string       `json:"response"`
	Summary  chat.Summary `json:"summary"`
}

type endSessionRequest struct {
	SessionID string `json:"session_id"`
}

type summaryResponse struct {
	Summary chat.Summary `json:"summary"`
}

// handleListSessions 返回所有活跃会话的摘要
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.registry.ListSummaries(r.Context()))
}

// handleGetSession 返回单个会话的摘要
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	conv, err := h.registry.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, errSessionNotFound)
		return
	}
	utils.RespondJSON(w, http.StatusOK, summaryResponse{Summary: conv.Summary()})
}

// handleCreateSession 创建会话，persona_id 可选，未知的 persona 视为无
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload createSessionRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	info, err := h.registry.CreateSession(r.Context(), strings.TrimSpace(payload.PersonaID))
	if err != nil {
		log.Printf("[chat] create session failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, info)
}

// handleMessage 发送用户消息并返回模型回复
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, errInvalidSession)
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, summary, err := h.registry.SendMessage(r.Context(), payload.SessionID, payload.Message, payload.IsRoleCheck)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusBadRequest, errInvalidSession)
			return
		}
		respondFailure(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, messageResponse{Response: reply, Summary: summary})
}

// handleEndSession 结束会话并返回最终摘要
func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var payload endSessionRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	summary, err := h.registry.EndSession(r.Context(), payload.SessionID)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, errSessionNotFound)
			return
		}
		respondFailure(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, summaryResponse{Summary: summary})
}

// respondFailure 生成失败返回 500；等待会话期间请求被取消或超时返回 503
func respondFailure(w http.ResponseWriter, err error) {
	var genErr *chatService.GenerationError
	if !errors.As(err, &genErr) && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		utils.RespondError(w, http.StatusServiceUnavailable, errSessionBusy)
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
