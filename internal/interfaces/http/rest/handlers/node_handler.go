// Package handlers contains the REST handlers: thin adapters that
// decode requests, call the core, and encode results.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sovadim/knowledge-engine/internal/domain/node"
	"github.com/sovadim/knowledge-engine/internal/graph"
	"github.com/sovadim/knowledge-engine/pkg/api"
	apperrors "github.com/sovadim/knowledge-engine/pkg/errors"
	"github.com/sovadim/knowledge-engine/pkg/observability"
)

// NodeHandler serves the graph editing surface.
type NodeHandler struct {
	store    *graph.Store
	validate *validator.Validate
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewNodeHandler creates a node handler.
func NewNodeHandler(store *graph.Store, logger *zap.Logger, metrics *observability.Metrics) *NodeHandler {
	if metrics == nil {
		metrics = observability.NewNopMetrics()
	}
	return &NodeHandler{
		store:    store,
		validate: validator.New(),
		logger:   logger,
		metrics:  metrics,
	}
}

// List handles GET /api/nodes.
func (h *NodeHandler) List(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.store.ListNodes())
}

// Get handles GET /api/nodes/{nodeID}.
func (h *NodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	n, err := h.store.GetNode(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, n)
}

// Create handles POST /api/nodes.
func (h *NodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, apperrors.NewValidation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, apperrors.NewValidation(err.Error()))
		return
	}

	n, err := h.store.CreateNode(graph.NodeSpec{
		ID:          req.ID,
		Name:        req.Name,
		Level:       node.Level(req.Level),
		Question:    req.Question,
		Criteria:    req.Criteria,
		ParentNodes: req.ParentNodes,
		ChildNodes:  req.ChildNodes,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}
	h.metrics.GraphNodes.Set(float64(h.store.Len()))
	api.Success(w, http.StatusCreated, n)
}

// Edit handles PATCH /api/nodes/{nodeID}.
func (h *NodeHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	var req api.EditNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, apperrors.NewValidation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, apperrors.NewValidation(err.Error()))
		return
	}

	patch := graph.NodePatch{
		Name:     req.Name,
		Question: req.Question,
		Criteria: req.Criteria,
	}
	if req.Level != nil {
		level := node.Level(*req.Level)
		patch.Level = &level
	}

	n, err := h.store.EditNode(id, patch)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, n)
}

// Delete handles DELETE /api/nodes/{nodeID}.
func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if err := h.store.DeleteNode(id); err != nil {
		api.HandleError(w, err)
		return
	}
	h.metrics.GraphNodes.Set(float64(h.store.Len()))
	api.Success(w, http.StatusNoContent, nil)
}

// Enable handles POST /api/nodes/{nodeID}/enable.
func (h *NodeHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

// Disable handles POST /api/nodes/{nodeID}/disable.
func (h *NodeHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

func (h *NodeHandler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	id, err := nodeIDParam(r)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	n, err := h.store.SetEnabled(id, enabled)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, n)
}

// Reset handles POST /api/nodes/reset.
func (h *NodeHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.store.ResetAll()
	api.Success(w, http.StatusOK, api.MessageResponse{Message: "graph progress reset"})
}

// CreateEdge handles POST /api/edges?from=&to=.
func (h *NodeHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	from, to, err := edgeParams(r)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if err := h.store.CreateEdge(from, to); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, api.MessageResponse{Message: "edge created"})
}

// DeleteEdge handles DELETE /api/edges?from=&to=.
func (h *NodeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	from, to, err := edgeParams(r)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if err := h.store.DeleteEdge(from, to); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}

func nodeIDParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "nodeID")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidation("node id must be an integer")
	}
	return id, nil
}

func edgeParams(r *http.Request) (int, int, error) {
	from, err := strconv.Atoi(r.URL.Query().Get("from"))
	if err != nil {
		return 0, 0, apperrors.NewValidation("query parameter 'from' must be an integer")
	}
	to, err := strconv.Atoi(r.URL.Query().Get("to"))
	if err != nil {
		return 0, 0, apperrors.NewValidation("query parameter 'to' must be an integer")
	}
	return from, to, nil
}
