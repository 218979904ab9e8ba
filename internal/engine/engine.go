package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sovadim/knowledge-engine/internal/domain/node"
	domainsession "github.com/sovadim/knowledge-engine/internal/domain/session"
	"github.com/sovadim/knowledge-engine/internal/evaluator"
	"github.com/sovadim/knowledge-engine/internal/graph"
	sessionstore "github.com/sovadim/knowledge-engine/internal/session"
	apperrors "github.com/sovadim/knowledge-engine/pkg/errors"
	"github.com/sovadim/knowledge-engine/pkg/observability"
)

// claimAttempts bounds the optimistic retry loop when sessions race for
// the same node. The loop re-snapshots on every conflict, so in practice
// one retry is enough; the bound only guards against pathological churn.
const claimAttempts = 8

// Engine is the traversal state machine. Each session moves
// INIT -> QUESTIONING -> COMPLETED, re-entering QUESTIONING after every
// judged answer until no eligible node remains.
type Engine struct {
	graph    *graph.Store
	sessions sessionstore.Store
	oracle   evaluator.Oracle
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// New creates the traversal engine.
func New(g *graph.Store, sessions sessionstore.Store, oracle evaluator.Oracle, logger *zap.Logger, metrics *observability.Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNopMetrics()
	}
	return &Engine{
		graph:    g,
		sessions: sessions,
		oracle:   oracle,
		logger:   logger,
		metrics:  metrics,
	}
}

// StartResult is the outcome of starting a session.
type StartResult struct {
	SessionID string
	NodeID    int
	Question  *string
}

// AnswerResult is the outcome of judging one answer.
type AnswerResult struct {
	Passed    bool
	Score     int
	Completed bool
	NodeID    *int
	Question  *string
}

// StopResult is the outcome of stopping a session.
type StopResult struct {
	Message string
}

// Start begins a new session at the given level: it claims the
// smallest-id eligible root, marks it in progress, and returns its
// question.
func (e *Engine) Start(ctx context.Context, level node.Level) (*StartResult, error) {
	nodeID, observed, ok := e.claimStart(level)
	if !ok {
		return nil, apperrors.NewNoEligibleNode(fmt.Sprintf("no eligible root node for level %s", level))
	}

	sess := domainsession.New(uuid.NewString(), level, nodeID)
	if err := e.sessions.Create(ctx, sess); err != nil {
		// Roll the claim back so the node is not orphaned in progress.
		_ = e.graph.TransitionStatus(nodeID, node.StatusInProgress, observed)
		return nil, err
	}

	e.metrics.SessionsStarted.Inc()
	e.logger.Info("session started",
		zap.String("session_id", sess.ID),
		zap.String("level", string(level)),
		zap.Int("node_id", nodeID),
	)

	n, err := e.graph.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &StartResult{SessionID: sess.ID, NodeID: nodeID, Question: n.Question}, nil
}

// Answer judges the session's current question and advances traversal.
// An oracle failure after retries leaves both the session and the node
// untouched, so the caller may submit the same answer again.
func (e *Engine) Answer(ctx context.Context, sessionID, text string) (*AnswerResult, error) {
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Active() {
		return nil, apperrors.NewInvalidState(fmt.Sprintf("session %s is not awaiting an answer", sessionID))
	}

	currentID := *sess.CurrentNodeID
	current, err := e.graph.GetNode(currentID)
	if err != nil {
		return nil, err
	}

	// The oracle round trip happens with no store lock held; a slow
	// judge must never block other sessions' reads.
	started := time.Now()
	judgment, err := e.oracle.Judge(ctx, deref(current.Question), deref(current.Criteria), text)
	if err != nil {
		e.metrics.EvaluatorErrors.Inc()
		return nil, apperrors.NewEvaluator("answer evaluation failed", err)
	}
	e.metrics.ObserveJudgment(judgment.Passed, time.Since(started))

	if err := e.graph.ApplyJudgment(currentID, judgment.Passed, judgment.Score); err != nil {
		return nil, err
	}
	sess.RecordVisit(currentID, judgment.Passed, judgment.Score)

	e.logger.Info("answer judged",
		zap.String("session_id", sessionID),
		zap.Int("node_id", currentID),
		zap.String("status", string(judgedStatus(judgment.Passed))),
		zap.Int("score", judgment.Score),
	)

	result := &AnswerResult{Passed: judgment.Passed, Score: judgment.Score}

	nextID, ok := e.claimNext(currentID, judgment.Passed, sess.Level)
	if !ok {
		sess.Complete()
		result.Completed = true
		e.metrics.SessionsCompleted.Inc()
		e.logger.Info("session completed", zap.String("session_id", sessionID))
	} else {
		sess.Advance(nextID)
		next, err := e.graph.GetNode(nextID)
		if err != nil {
			return nil, err
		}
		result.NodeID = &nextID
		result.Question = next.Question
	}

	if err := e.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return result, nil
}

// Stop finalizes a session immediately, leaving the current node's
// status as last set. Idempotent.
func (e *Engine) Stop(ctx context.Context, sessionID string) (*StopResult, error) {
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Completed {
		return &StopResult{Message: "session already stopped"}, nil
	}

	sess.Complete()
	if err := e.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	e.metrics.SessionsStopped.Inc()
	e.logger.Info("session stopped", zap.String("session_id", sessionID))
	return &StopResult{Message: "session stopped"}, nil
}

// Session returns the session state.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domainsession.Session, error) {
	return e.sessions.Get(ctx, sessionID)
}

// Summary asks the oracle for interview feedback over a finished
// session's history.
func (e *Engine) Summary(ctx context.Context, sessionID string) (string, error) {
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !sess.Completed {
		return "", apperrors.NewInvalidState(fmt.Sprintf("session %s is still in progress", sessionID))
	}

	results := make([]evaluator.Result, 0, len(sess.Visited))
	for _, v := range sess.Visited {
		r := evaluator.Result{Topic: fmt.Sprintf("node %d", v.NodeID), Score: v.Score}
		if n, err := e.graph.GetNode(v.NodeID); err == nil {
			r.Topic = n.Name
			r.Question = deref(n.Question)
		}
		results = append(results, r)
	}

	summary, err := e.oracle.Summarize(ctx, results)
	if err != nil {
		return "", apperrors.NewEvaluator("summary generation failed", err)
	}
	return summary, nil
}

// claimStart selects and claims the starting root node. On a lost race
// it re-snapshots and retries; the claimed node's prior status is
// returned so a failed session create can roll it back.
func (e *Engine) claimStart(level node.Level) (int, node.Status, bool) {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		snapshot := e.graph.Snapshot()
		id, ok := selectStart(snapshot, level)
		if !ok {
			return 0, "", false
		}
		observed := snapshot[id].Status
		err := e.graph.TransitionStatus(id, observed, node.StatusInProgress)
		if err == nil {
			return id, observed, true
		}
		if !apperrors.IsConflict(err) && !apperrors.IsNotFound(err) {
			return 0, "", false
		}
		// Another session moved the node first; select again.
	}
	return 0, "", false
}

// claimNext selects and claims the next node after a judgment, retrying
// on lost races the same way.
func (e *Engine) claimNext(justID int, passed bool, level node.Level) (int, bool) {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		snapshot := e.graph.Snapshot()
		id, ok := selectNext(snapshot, justID, passed, level)
		if !ok {
			return 0, false
		}
		err := e.graph.TransitionStatus(id, node.StatusNotReached, node.StatusInProgress)
		if err == nil {
			return id, true
		}
		if !apperrors.IsConflict(err) && !apperrors.IsNotFound(err) {
			return 0, false
		}
	}
	return 0, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
