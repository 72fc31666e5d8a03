// Package evaluator matches registered conditional plans against fresh
// microstructure snapshots and hands satisfied plans to the execution
// collaborator. Plan lifecycle is strictly forward; bracket siblings cancel
// when one side executes.
package evaluator

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

// PlanStore keeps conditional plans in memory and enforces forward-only
// status transitions.
type PlanStore struct {
	mu    sync.RWMutex
	plans map[string]domain.ConditionalPlan
}

// NewPlanStore creates an empty store.
func NewPlanStore() *PlanStore {
	return &PlanStore{plans: make(map[string]domain.ConditionalPlan)}
}

// Add registers a plan, assigning an id and pending status when absent.
func (s *PlanStore) Add(plan domain.ConditionalPlan) (domain.ConditionalPlan, error) {
	if plan.Instrument == "" {
		return domain.ConditionalPlan{}, errors.New("plan instrument is required")
	}
	plan.Instrument = domain.NormalizeInstrument(plan.Instrument)
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.Status == "" {
		plan.Status = domain.PlanPending
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[plan.ID]; exists {
		return domain.ConditionalPlan{}, errors.Errorf("plan %s already registered", plan.ID)
	}
	s.plans[plan.ID] = plan
	return plan, nil
}

// Get returns a plan by id.
func (s *PlanStore) Get(id string) (domain.ConditionalPlan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	return p, ok
}

// Transition moves a plan to the target status, rejecting backward moves.
func (s *PlanStore) Transition(id string, to domain.PlanStatus) (domain.ConditionalPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return domain.ConditionalPlan{}, errors.Errorf("plan %s not found", id)
	}
	if !p.Status.CanTransition(to) {
		return domain.ConditionalPlan{}, errors.Errorf("plan %s cannot move %s -> %s", id, p.Status, to)
	}
	p.Status = to
	s.plans[id] = p
	return p, nil
}

// Active returns pending and triggered plans for one instrument.
func (s *PlanStore) Active(instrument string) []domain.ConditionalPlan {
	id := domain.NormalizeInstrument(instrument)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ConditionalPlan
	for _, p := range s.plans {
		if p.Instrument != id {
			continue
		}
		if p.Status == domain.PlanPending || p.Status == domain.PlanTriggered {
			out = append(out, p)
		}
	}
	return out
}

// All returns every plan regardless of status.
func (s *PlanStore) All() []domain.ConditionalPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ConditionalPlan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	return out
}

// CancelSiblings cancels every still-cancellable plan sharing the group with
// the executed plan. Returns the cancelled ids.
func (s *PlanStore) CancelSiblings(groupID, executedID string) []string {
	if groupID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var cancelled []string
	for id, p := range s.plans {
		if p.GroupID != groupID || id == executedID {
			continue
		}
		if !p.Status.CanTransition(domain.PlanCancelled) {
			continue
		}
		p.Status = domain.PlanCancelled
		s.plans[id] = p
		cancelled = append(cancelled, id)
	}
	return cancelled
}
