package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sovadim/knowledge-engine/internal/domain/node"
	"github.com/sovadim/knowledge-engine/internal/engine"
	"github.com/sovadim/knowledge-engine/pkg/api"
	apperrors "github.com/sovadim/knowledge-engine/pkg/errors"
)

// SessionHandler serves the interview surface.
type SessionHandler struct {
	engine   *engine.Engine
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(eng *engine.Engine, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		engine:   eng,
		validate: validator.New(),
		logger:   logger,
	}
}

// Start handles POST /api/sessions?level=.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	level, err := node.ParseLevel(r.URL.Query().Get("level"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	result, err := h.engine.Start(r.Context(), level)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, api.StartSessionResponse{
		SessionID: result.SessionID,
		NodeID:    result.NodeID,
		Question:  result.Question,
	})
}

// Answer handles POST /api/sessions/{sessionID}/answer.
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req api.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, apperrors.NewValidation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, apperrors.NewValidation(err.Error()))
		return
	}

	result, err := h.engine.Answer(r.Context(), sessionID, req.Answer)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, api.AnswerResponse{
		Passed:    result.Passed,
		Score:     result.Score,
		Completed: result.Completed,
		NodeID:    result.NodeID,
		Question:  result.Question,
	})
}

// Stop handles POST /api/sessions/{sessionID}/stop.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Stop(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, api.MessageResponse{Message: result.Message})
}

// Get handles GET /api/sessions/{sessionID}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.engine.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, sess)
}

// Summary handles GET /api/sessions/{sessionID}/summary.
func (h *SessionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.Summary(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, api.SummaryResponse{Summary: summary})
}
