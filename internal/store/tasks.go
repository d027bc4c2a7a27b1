package store

import (
	"fmt"

	"deskflow/internal/codec"
	"deskflow/internal/model"
)

// ListTasks returns the tasks matching filter, in collection order.
// A nil filter matches everything. The result is a deep copy; lock-free.
func (s *Store) ListTasks(filter func(model.Task) bool) []model.Task {
	items := s.tasks.snapshot()
	out := make([]model.Task, 0, len(items))

	for _, t := range items {
		if filter == nil || filter(t) {
			out = append(out, t.Clone())
		}
	}

	return out
}

// TasksByProject returns the tasks linked to a project.
func (s *Store) TasksByProject(projectID string) []model.Task {
	return s.ListTasks(func(t model.Task) bool {
		return t.ProjectID != nil && *t.ProjectID == projectID
	})
}

// GetTask returns the task with the given id.
func (s *Store) GetTask(id string) (model.Task, error) {
	for _, t := range s.tasks.snapshot() {
		if t.ID == id {
			return t.Clone(), nil
		}
	}

	return model.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
}

// UpsertTask inserts or replaces a task by id.
//
// Reference handling follows the store's soft-reference policy: an unknown
// project_id is nulled and unknown dependency ids are pruned rather than
// rejecting the write. A dependency cycle, however, is an invariant
// violation: it is rejected before any disk write and nothing is persisted.
func (s *Store) UpsertTask(t model.Task) (model.Task, error) {
	if err := t.Validate(); err != nil {
		return model.Task{}, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}

	t = t.Clone()
	if t.ID == "" {
		t.ID = model.NewID()
	}

	s.tasks.mu.Lock()
	defer s.tasks.mu.Unlock()

	items := s.tasks.snapshot()

	// Soft references resolve against current state.
	if t.ProjectID != nil && !s.projectExists(*t.ProjectID) {
		t.ProjectID = nil
	}

	t.Dependencies = pruneUnknownDeps(t.ID, t.Dependencies, items)

	if cyclic(t, items) {
		return model.Task{}, fmt.Errorf("%w: task %s: dependency cycle", ErrInvariantViolation, t.ID)
	}

	next := make([]model.Task, len(items), len(items)+1)
	copy(next, items)

	var prev *model.Task

	for i, existing := range next {
		if existing.ID == t.ID {
			prev = &existing
			s.stampTask(&t, prev)
			next[i] = t

			break
		}
	}

	if prev == nil {
		s.stampTask(&t, nil)
		next = append(next, t)
	}

	data, err := codec.EncodeTasks(next)
	if err != nil {
		return model.Task{}, err
	}

	if err := s.persist(codec.Tasks, data); err != nil {
		return model.Task{}, err
	}

	s.tasks.commit(next)

	return t.Clone(), nil
}

// DeleteTask removes a task and prunes its id from every referencing list:
// other tasks' dependencies, daily-plan task lists, and time-block refs.
//
// The referencing collections are persisted before the delete itself, so a
// partially-applied cascade never leaves a dangling reference on disk.
func (s *Store) DeleteTask(id string) error {
	s.tasks.mu.Lock()
	defer s.tasks.mu.Unlock()
	s.plans.mu.Lock()
	defer s.plans.mu.Unlock()

	items := s.tasks.snapshot()
	idx := -1

	for i, t := range items {
		if t.ID == id {
			idx = i

			break
		}
	}

	if idx < 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}

	// Prune daily-plan references first.
	plans := s.plans.snapshot()
	prunedPlans := make([]model.DailyPlan, len(plans))
	changedPlans := false

	for i, p := range plans {
		pc := p.Clone()

		if removed := removeString(&pc.Tasks, id); removed {
			changedPlans = true
		}

		for bi := range pc.TimeBlocks {
			if pc.TimeBlocks[bi].TaskID != nil && *pc.TimeBlocks[bi].TaskID == id {
				pc.TimeBlocks[bi].TaskID = nil
				changedPlans = true
			}
		}

		prunedPlans[i] = pc
	}

	if changedPlans {
		data, err := codec.EncodeDailyPlans(prunedPlans)
		if err != nil {
			return err
		}

		if err := s.persist(codec.DailyPlans, data); err != nil {
			return err
		}

		s.plans.commit(prunedPlans)
	}

	// Then drop the task and prune sibling dependency lists in one write.
	next := make([]model.Task, 0, len(items)-1)

	for i, t := range items {
		if i == idx {
			continue
		}

		tc := t.Clone()
		removeString(&tc.Dependencies, id)
		next = append(next, tc)
	}

	data, err := codec.EncodeTasks(next)
	if err != nil {
		return err
	}

	if err := s.persist(codec.Tasks, data); err != nil {
		return err
	}

	s.tasks.commit(next)

	return nil
}

// stampTask sets created_at on first insert, keeps updated_at monotonically
// non-decreasing, and maintains completed_at across status transitions.
func (s *Store) stampTask(t *model.Task, prev *model.Task) {
	now := s.now().UTC()

	if prev != nil {
		t.CreatedAt = prev.CreatedAt

		if now.Before(prev.UpdatedAt) {
			now = prev.UpdatedAt
		}
	} else if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}

	t.UpdatedAt = now

	switch {
	case t.Status == model.TaskCompleted && t.CompletedAt == nil:
		ts := now
		t.CompletedAt = &ts
	case t.Status != model.TaskCompleted:
		t.CompletedAt = nil
	}
}

func (s *Store) projectExists(id string) bool {
	for _, p := range s.projects.snapshot() {
		if p.ID == id {
			return true
		}
	}

	return false
}

// pruneUnknownDeps drops duplicates and ids that resolve to no existing
// task. The incoming task itself counts as existing: a self-reference is a
// cycle and must reach the cycle check, not be silently pruned.
func pruneUnknownDeps(taskID string, deps []string, existing []model.Task) []string {
	if len(deps) == 0 {
		return deps
	}

	known := make(map[string]bool, len(existing)+1)
	known[taskID] = true

	for _, t := range existing {
		known[t.ID] = true
	}

	seen := make(map[string]bool, len(deps))
	out := deps[:0]

	for _, dep := range deps {
		if !known[dep] || seen[dep] {
			continue
		}

		seen[dep] = true
		out = append(out, dep)
	}

	return out
}

// cyclic reports whether inserting candidate would close a dependency
// cycle. Depth-first reachability from the candidate's dependencies back to
// the candidate, bounded by the total task count.
func cyclic(candidate model.Task, existing []model.Task) bool {
	deps := make(map[string][]string, len(existing)+1)

	for _, t := range existing {
		deps[t.ID] = t.Dependencies
	}

	deps[candidate.ID] = candidate.Dependencies

	visited := make(map[string]bool, len(deps))

	var reaches func(from string) bool

	reaches = func(from string) bool {
		if from == candidate.ID {
			return true
		}

		if visited[from] {
			return false
		}

		visited[from] = true

		for _, next := range deps[from] {
			if reaches(next) {
				return true
			}
		}

		return false
	}

	for _, dep := range candidate.Dependencies {
		if reaches(dep) {
			return true
		}
	}

	return false
}

// removeString deletes value from the slice in place, reporting whether
// anything was removed.
func removeString(list *[]string, value string) bool {
	out := (*list)[:0]
	removed := false

	for _, v := range *list {
		if v == value {
			removed = true

			continue
		}

		out = append(out, v)
	}

	*list = out

	return removed
}
