package store

import (
	"fmt"

	"deskflow/internal/codec"
	"deskflow/internal/model"
)

// ListDailyPlans returns the plans matching filter, in collection order.
// A nil filter matches everything. The result is a deep copy; lock-free.
func (s *Store) ListDailyPlans(filter func(model.DailyPlan) bool) []model.DailyPlan {
	items := s.plans.snapshot()
	out := make([]model.DailyPlan, 0, len(items))

	for _, p := range items {
		if filter == nil || filter(p) {
			out = append(out, p.Clone())
		}
	}

	return out
}

// GetDailyPlan returns the plan with the given id.
func (s *Store) GetDailyPlan(id string) (model.DailyPlan, error) {
	for _, p := range s.plans.snapshot() {
		if p.ID == id {
			return p.Clone(), nil
		}
	}

	return model.DailyPlan{}, fmt.Errorf("daily plan %s: %w", id, ErrNotFound)
}

// DailyPlanByDate returns the plan for a YYYY-MM-DD date.
func (s *Store) DailyPlanByDate(date string) (model.DailyPlan, error) {
	for _, p := range s.plans.snapshot() {
		if p.Date == date {
			return p.Clone(), nil
		}
	}

	return model.DailyPlan{}, fmt.Errorf("daily plan for %s: %w", date, ErrNotFound)
}

// DailyPlansRange returns plans with from <= date <= to, inclusive.
// YYYY-MM-DD strings compare correctly as strings.
func (s *Store) DailyPlansRange(from, to string) []model.DailyPlan {
	return s.ListDailyPlans(func(p model.DailyPlan) bool {
		return p.Date >= from && p.Date <= to
	})
}

// UpsertDailyPlan inserts or replaces a plan, keeping at most one plan per
// date. An upsert whose date already has a plan replaces that plan in place
// — the collection does not grow. An upsert that would move an existing
// plan onto another plan's date is rejected before any write.
//
// Unknown task references are pruned on the way in, mirroring the
// soft-reference policy of task upserts.
func (s *Store) UpsertDailyPlan(p model.DailyPlan) (model.DailyPlan, error) {
	if err := p.Validate(); err != nil {
		return model.DailyPlan{}, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}

	p = p.Clone()
	if p.ID == "" {
		p.ID = model.NewID()
	}

	s.plans.mu.Lock()
	defer s.plans.mu.Unlock()

	items := s.plans.snapshot()

	byID, byDate := -1, -1

	for i, existing := range items {
		if existing.ID == p.ID {
			byID = i
		}

		if existing.Date == p.Date {
			byDate = i
		}
	}

	if byID >= 0 && byDate >= 0 && byID != byDate {
		return model.DailyPlan{}, fmt.Errorf("%w: daily plan for %s already exists", ErrInvariantViolation, p.Date)
	}

	var prev *model.DailyPlan
	if byID >= 0 {
		prev = &items[byID]
	}

	s.stampPlan(&p, prev)
	s.pruneUnknownTaskRefs(&p)

	next := make([]model.DailyPlan, len(items), len(items)+1)
	copy(next, items)

	switch {
	case byID >= 0:
		next[byID] = p
	case byDate >= 0:
		// Same date, different id: the incoming plan takes the slot.
		next[byDate] = p
	default:
		next = append(next, p)
	}

	data, err := codec.EncodeDailyPlans(next)
	if err != nil {
		return model.DailyPlan{}, err
	}

	if err := s.persist(codec.DailyPlans, data); err != nil {
		return model.DailyPlan{}, err
	}

	s.plans.commit(next)

	return p.Clone(), nil
}

// DeleteDailyPlan removes a plan. Plans are only referenced, never
// referencing targets of other collections, so no cascade is needed.
func (s *Store) DeleteDailyPlan(id string) error {
	s.plans.mu.Lock()
	defer s.plans.mu.Unlock()

	items := s.plans.snapshot()
	idx := -1

	for i, p := range items {
		if p.ID == id {
			idx = i

			break
		}
	}

	if idx < 0 {
		return fmt.Errorf("daily plan %s: %w", id, ErrNotFound)
	}

	next := make([]model.DailyPlan, 0, len(items)-1)
	next = append(next, items[:idx]...)
	next = append(next, items[idx+1:]...)

	data, err := codec.EncodeDailyPlans(next)
	if err != nil {
		return err
	}

	if err := s.persist(codec.DailyPlans, data); err != nil {
		return err
	}

	s.plans.commit(next)

	return nil
}

// stampPlan sets created_at on first insert and keeps updated_at
// monotonically non-decreasing.
func (s *Store) stampPlan(p *model.DailyPlan, prev *model.DailyPlan) {
	now := s.now().UTC()

	if prev != nil {
		p.CreatedAt = prev.CreatedAt

		if now.Before(prev.UpdatedAt) {
			now = prev.UpdatedAt
		}
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	p.UpdatedAt = now
}

// pruneUnknownTaskRefs drops task ids that resolve to no existing task from
// the plan's task list and time blocks.
func (s *Store) pruneUnknownTaskRefs(p *model.DailyPlan) {
	known := make(map[string]bool)

	for _, t := range s.tasks.snapshot() {
		known[t.ID] = true
	}

	out := p.Tasks[:0]

	for _, id := range p.Tasks {
		if known[id] {
			out = append(out, id)
		}
	}

	p.Tasks = out

	for i := range p.TimeBlocks {
		if p.TimeBlocks[i].TaskID != nil && !known[*p.TimeBlocks[i].TaskID] {
			p.TimeBlocks[i].TaskID = nil
		}

		if p.TimeBlocks[i].ID == "" {
			p.TimeBlocks[i].ID = model.NewID()
		}
	}
}
