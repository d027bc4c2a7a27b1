package store

import (
	"fmt"

	"deskflow/internal/codec"
	"deskflow/internal/model"
)

// ListProjects returns the projects matching filter, in collection order.
// A nil filter matches everything. The result is a deep copy; lock-free.
func (s *Store) ListProjects(filter func(model.Project) bool) []model.Project {
	items := s.projects.snapshot()
	out := make([]model.Project, 0, len(items))

	for _, p := range items {
		if filter == nil || filter(p) {
			out = append(out, p.Clone())
		}
	}

	return out
}

// GetProject returns the project with the given id.
func (s *Store) GetProject(id string) (model.Project, error) {
	for _, p := range s.projects.snapshot() {
		if p.ID == id {
			return p.Clone(), nil
		}
	}

	return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
}

// UpsertProject inserts or replaces a project by id. The entity is
// validated, its progress recomputed from milestones, and updated_at
// re-stamped before the collection is persisted. On error nothing changes,
// in memory or on disk.
func (s *Store) UpsertProject(p model.Project) (model.Project, error) {
	if err := p.Validate(); err != nil {
		return model.Project{}, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}

	p = p.Clone()
	if p.ID == "" {
		p.ID = model.NewID()
	}

	p.ProgressPercentage = p.Progress()

	s.projects.mu.Lock()
	defer s.projects.mu.Unlock()

	items := s.projects.snapshot()
	next := make([]model.Project, len(items), len(items)+1)
	copy(next, items)

	replaced := false

	for i, existing := range next {
		if existing.ID == p.ID {
			s.stampProject(&p, &existing)
			next[i] = p
			replaced = true

			break
		}
	}

	if !replaced {
		s.stampProject(&p, nil)
		next = append(next, p)
	}

	data, err := codec.EncodeProjects(next)
	if err != nil {
		return model.Project{}, err
	}

	if err := s.persist(codec.Projects, data); err != nil {
		return model.Project{}, err
	}

	s.projects.commit(next)

	return p.Clone(), nil
}

// DeleteProject removes a project and nulls the project reference of every
// task that pointed at it; all other task fields are left untouched.
//
// The cascade is persisted before the delete so the on-disk state never
// holds a dangling project reference, even if the second write fails.
func (s *Store) DeleteProject(id string) error {
	s.projects.mu.Lock()
	defer s.projects.mu.Unlock()
	s.tasks.mu.Lock()
	defer s.tasks.mu.Unlock()

	items := s.projects.snapshot()
	idx := -1

	for i, p := range items {
		if p.ID == id {
			idx = i

			break
		}
	}

	if idx < 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}

	// Cascade: null matching project_id on tasks.
	tasks := s.tasks.snapshot()
	cascaded := make([]model.Task, len(tasks))
	changedTasks := false

	for i, t := range tasks {
		ct := t.Clone()

		if ct.ProjectID != nil && *ct.ProjectID == id {
			ct.ProjectID = nil
			changedTasks = true
		}

		cascaded[i] = ct
	}

	if changedTasks {
		data, err := codec.EncodeTasks(cascaded)
		if err != nil {
			return err
		}

		if err := s.persist(codec.Tasks, data); err != nil {
			return err
		}

		s.tasks.commit(cascaded)
	}

	next := make([]model.Project, 0, len(items)-1)
	next = append(next, items[:idx]...)
	next = append(next, items[idx+1:]...)

	data, err := codec.EncodeProjects(next)
	if err != nil {
		return err
	}

	if err := s.persist(codec.Projects, data); err != nil {
		return err
	}

	s.projects.commit(next)

	return nil
}

// stampProject sets created_at on first insert and keeps updated_at
// monotonically non-decreasing across saves.
func (s *Store) stampProject(p *model.Project, prev *model.Project) {
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
