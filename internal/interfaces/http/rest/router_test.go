package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sovadim/knowledge-engine/internal/domain/node"
	"github.com/sovadim/knowledge-engine/internal/engine"
	"github.com/sovadim/knowledge-engine/internal/evaluator"
	"github.com/sovadim/knowledge-engine/internal/graph"
	"github.com/sovadim/knowledge-engine/internal/interfaces/http/rest/handlers"
	sessionstore "github.com/sovadim/knowledge-engine/internal/session"
	"github.com/sovadim/knowledge-engine/pkg/api"
)

func newTestServer(t *testing.T, oracle evaluator.Oracle) (*httptest.Server, *graph.Store) {
	t.Helper()
	logger := zap.NewNop()
	store := graph.NewStore(logger)
	sessions := sessionstore.NewMemoryStore(0)
	t.Cleanup(func() { sessions.Close() })

	eng := engine.New(store, sessions, oracle, logger, nil)
	router := NewRouter(
		handlers.NewNodeHandler(store, logger, nil),
		handlers.NewSessionHandler(eng, logger),
		logger,
		nil,
	)
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createNode(t *testing.T, srv *httptest.Server, id int, name string, children []int) {
	t.Helper()
	q := "question for " + name
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/nodes", api.CreateNodeRequest{
		ID:         &id,
		Name:       name,
		Level:      "A1",
		Question:   &q,
		ChildNodes: children,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestPingAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, evaluator.NewScripted())

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	msg := decode[api.MessageResponse](t, resp)
	assert.Equal(t, "pong", msg.Message)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNodeCRUD(t *testing.T) {
	srv, _ := newTestServer(t, evaluator.NewScripted())

	createNode(t, srv, 1, "Collections", nil)

	resp, err := http.Get(srv.URL + "/api/nodes/1")
	require.NoError(t, err)
	got := decode[node.Node](t, resp)
	assert.Equal(t, "Collections", got.Name)
	assert.Equal(t, node.StatusNotReached, got.Status)

	newName := "Collections API"
	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/nodes/1", api.EditNodeRequest{Name: &newName})
	edited := decode[node.Node](t, resp)
	assert.Equal(t, "Collections API", edited.Name)

	resp, err = http.Get(srv.URL + "/api/nodes")
	require.NoError(t, err)
	list := decode[[]node.Node](t, resp)
	assert.Len(t, list, 1)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/nodes/1", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/nodes/1")
	require.NoError(t, err)
	errBody := decode[api.ErrorResponse](t, resp)
	assert.Equal(t, "NOT_FOUND", errBody.Type)
}

func TestNodeValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t, evaluator.NewScripted())

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/nodes", map[string]any{"name": "x", "level": "B7"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2 := doJSON(t, http.MethodPatch, srv.URL+"/api/nodes/abc", api.EditNodeRequest{})
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestEdgeEndpoints(t *testing.T) {
	srv, store := newTestServer(t, evaluator.NewScripted())
	createNode(t, srv, 1, "root", nil)
	createNode(t, srv, 2, "leaf", nil)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/edges?from=1&to=2", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	n, err := store.GetNode(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, n.ChildNodes)

	// Closing the cycle is a conflict.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/edges?from=2&to=1", nil)
	errBody := decode[api.ErrorResponse](t, resp)
	assert.Equal(t, "CYCLE", errBody.Type)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/edges?from=1&to=2", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestDisableEnableAndReset(t *testing.T) {
	srv, store := newTestServer(t, evaluator.NewScripted())
	createNode(t, srv, 1, "root", nil)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/nodes/1/disable", nil)
	disabled := decode[node.Node](t, resp)
	assert.Equal(t, node.StatusDisabled, disabled.Status)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/nodes/1/enable", nil)
	enabled := decode[node.Node](t, resp)
	assert.Equal(t, node.StatusNotReached, enabled.Status)

	require.NoError(t, store.ApplyJudgment(1, true, 4))
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/nodes/reset", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	n, err := store.GetNode(1)
	require.NoError(t, err)
	assert.Equal(t, node.StatusNotReached, n.Status)
	assert.Nil(t, n.Score)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	oracle := evaluator.NewScripted(evaluator.Pass(4), evaluator.Pass(3))
	oracle.Summary = "strong on fundamentals"
	srv, _ := newTestServer(t, oracle)

	createNode(t, srv, 1, "root", nil)
	createNode(t, srv, 2, "leaf", nil)
	edge := doJSON(t, http.MethodPost, srv.URL+"/api/edges?from=1&to=2", nil)
	edge.Body.Close()
	require.Equal(t, http.StatusCreated, edge.StatusCode)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sessions?level=A1", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	started := decode[api.StartSessionResponse](t, resp)
	assert.Equal(t, 1, started.NodeID)
	require.NotNil(t, started.Question)

	base := fmt.Sprintf("%s/api/sessions/%s", srv.URL, started.SessionID)

	first := decode[api.AnswerResponse](t, doJSON(t, http.MethodPost, base+"/answer", api.AnswerRequest{Answer: "a hash map"}))
	assert.True(t, first.Passed)
	assert.Equal(t, 4, first.Score)
	require.NotNil(t, first.NodeID)
	assert.Equal(t, 2, *first.NodeID)

	second := decode[api.AnswerResponse](t, doJSON(t, http.MethodPost, base+"/answer", api.AnswerRequest{Answer: "type erasure"}))
	assert.True(t, second.Completed)
	assert.Nil(t, second.NodeID)

	summary := decode[api.SummaryResponse](t, doJSON(t, http.MethodGet, base+"/summary", nil))
	assert.Equal(t, "strong on fundamentals", summary.Summary)

	stop := decode[api.MessageResponse](t, doJSON(t, http.MethodPost, base+"/stop", nil))
	assert.Equal(t, "session already stopped", stop.Message)
}

func TestSessionErrors(t *testing.T) {
	srv, _ := newTestServer(t, evaluator.NewScripted())
	createNode(t, srv, 1, "root", nil)

	// Bad level.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sessions?level=Z9", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// No eligible node for a valid but empty level.
	resp2 := doJSON(t, http.MethodPost, srv.URL+"/api/sessions?level=A3", nil)
	errBody := decode[api.ErrorResponse](t, resp2)
	assert.Equal(t, "NO_ELIGIBLE_NODE", errBody.Type)

	// Unknown session.
	resp3 := doJSON(t, http.MethodPost, srv.URL+"/api/sessions/ghost/answer", api.AnswerRequest{Answer: "x"})
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)

	// Missing answer text.
	start := decode[api.StartSessionResponse](t, doJSON(t, http.MethodPost, srv.URL+"/api/sessions?level=A1", nil))
	resp4 := doJSON(t, http.MethodPost, srv.URL+"/api/sessions/"+start.SessionID+"/answer", map[string]any{})
	defer resp4.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp4.StatusCode)
}

func TestEvaluatorFailureMapsToBadGateway(t *testing.T) {
	oracle := evaluator.NewScripted(evaluator.ScriptedResponse{Err: &evaluator.ErrUnavailable{}})
	srv, _ := newTestServer(t, oracle)
	createNode(t, srv, 1, "root", nil)

	start := decode[api.StartSessionResponse](t, doJSON(t, http.MethodPost, srv.URL+"/api/sessions?level=A1", nil))
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sessions/"+start.SessionID+"/answer", api.AnswerRequest{Answer: "x"})
	errBody := decode[api.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "EVALUATOR", errBody.Type)
}
