// Package moc holds the change-request workflow engine: which status
// transitions are legal and what side effects they trigger.
package moc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/ids"
)

// PlaceholderAssignee marks auto-created work orders awaiting triage.
const PlaceholderAssignee = "To be assigned"

// transitions maps each status to the set of statuses it may move to.
// Staying in the same status (a plain edit) is always legal and is not
// listed here.
var transitions = map[domain.MOCStatus][]domain.MOCStatus{
	domain.StatusDraft:          {domain.StatusEvaluation, domain.StatusApproved, domain.StatusRejected},
	domain.StatusEvaluation:     {domain.StatusDraft, domain.StatusApproved, domain.StatusRejected},
	domain.StatusApproved:       {domain.StatusImplementation},
	domain.StatusImplementation: {domain.StatusCompleted},
	domain.StatusCompleted:      {},
	domain.StatusRejected:       {domain.StatusDraft},
}

// Outcome is the planned result of a transition: the request as it
// should be persisted, plus the work order to create when the approval
// cascade fired.
type Outcome struct {
	MOC       domain.MOCRequest
	WorkOrder *domain.WorkOrder
}

// Engine plans status transitions. It is stateless; callers persist
// the outcome.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) {
		if fn != nil {
			e.now = fn
		}
	}
}

// NewEngine builds a workflow engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Plan validates the move from existing to proposed and computes side
// effects. On the fresh approval edge (existing not approved, proposed
// approved) it creates the implementation work order and prepends a
// system history entry; re-saving an already approved request fires
// nothing. Any save that leaves the request rejected requires a
// justification in the newest history entry, including a re-save of an
// already rejected request: the justification can never be erased.
func (e *Engine) Plan(existing, proposed domain.MOCRequest) (Outcome, error) {
	if existing.Status != proposed.Status && !allowed(existing.Status, proposed.Status) {
		return Outcome{}, fmt.Errorf("%w: cannot move change request from %s to %s",
			domain.ErrValidation, existing.Status, proposed.Status)
	}

	if proposed.Status == domain.StatusRejected {
		if len(proposed.History) == 0 || strings.TrimSpace(proposed.History[0].Details) == "" {
			return Outcome{}, fmt.Errorf("%w: rejection requires a justification in the newest history entry",
				domain.ErrValidation)
		}
	}

	out := Outcome{MOC: proposed}

	if proposed.Status == domain.StatusApproved && existing.Status != domain.StatusApproved {
		now := e.now().UTC()
		wo := domain.WorkOrder{
			ID:         autoWorkOrderID(now),
			MOCID:      proposed.ID,
			Title:      "IMPLEMENTATION: " + proposed.Title,
			AssignedTo: PlaceholderAssignee,
			DueDate:    now.AddDate(0, 0, 7),
			Status:     domain.WorkOrderPending,
			CreatedAt:  now,
		}
		out.WorkOrder = &wo
		out.MOC.History = append([]domain.HistoryEntry{{
			ID:        ids.New(),
			UserID:    "system",
			UserName:  "System",
			Action:    "Approval",
			Details:   fmt.Sprintf("Work order %s created automatically", wo.ID),
			Kind:      domain.HistorySystem,
			Timestamp: now,
		}}, out.MOC.History...)
	}

	return out, nil
}

func allowed(from, to domain.MOCStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// autoWorkOrderID derives the id from the last four digits of the
// clock's millisecond value, which is what operators are used to
// seeing on auto-created orders.
func autoWorkOrderID(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	return "WO-AUTO-" + ms[len(ms)-4:]
}
