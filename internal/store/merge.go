package store

import (
	"fmt"

	"deskflow/internal/codec"
	"deskflow/internal/model"
)

// ReconcileStats counts the repairs applied to a merged dataset before it
// was persisted.
type ReconcileStats struct {
	TasksProjectCleared int // tasks whose project_id pointed at no project
	TaskDepsPruned      int // dependency ids pointing at no task
	PlanTasksPruned     int // plan task-list ids pointing at no task
	TimeBlocksCleared   int // time blocks whose task_id pointed at no task
	DuplicateDatesFixed int // daily plans dropped for sharing a date
}

// Total returns the number of repairs across all categories.
func (r ReconcileStats) Total() int {
	return r.TasksProjectCleared + r.TaskDepsPruned + r.PlanTasksPruned +
		r.TimeBlocksCleared + r.DuplicateDatesFixed
}

// ApplyMerged replaces all four collections wholesale with the result of an
// import merge, reconciling cross-collection references first so the store
// never persists a dangling id. Validation failures in any entity reject the
// whole dataset; nothing is written.
//
// All mutation locks are taken for the duration, in the usual order.
func (s *Store) ApplyMerged(projects []model.Project, tasks []model.Task, plans []model.DailyPlan, settings model.Settings) (ReconcileStats, error) {
	var stats ReconcileStats

	projects = cloneProjects(projects)
	tasks = cloneTasks(tasks)
	plans = clonePlans(plans)
	settings = settings.Clone()

	for i := range projects {
		if err := projects[i].Validate(); err != nil {
			return stats, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
		}

		projects[i].ProgressPercentage = projects[i].Progress()
	}

	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			return stats, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
		}
	}

	for i := range plans {
		if err := plans[i].Validate(); err != nil {
			return stats, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
		}
	}

	if err := settings.Validate(); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}

	reconcile(projects, tasks, plans, &stats)
	plans = dedupePlanDates(plans, &stats)

	s.projects.mu.Lock()
	defer s.projects.mu.Unlock()
	s.tasks.mu.Lock()
	defer s.tasks.mu.Unlock()
	s.plans.mu.Lock()
	defer s.plans.mu.Unlock()
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	settings.LastBackup = s.settings.Load().Clone().LastBackup

	encoded := make(map[string][]byte, 3)

	var err error

	if encoded[codec.Projects], err = codec.EncodeProjects(projects); err != nil {
		return stats, err
	}

	if encoded[codec.Tasks], err = codec.EncodeTasks(tasks); err != nil {
		return stats, err
	}

	if encoded[codec.DailyPlans], err = codec.EncodeDailyPlans(plans); err != nil {
		return stats, err
	}

	// Referenced collections are written before referencing ones, so a
	// failure partway through never leaves the disk pointing at missing ids.
	// The settings lock is already held here, so persistQuiet is required:
	// the last-backup bookkeeping happens below, on the settings being
	// written anyway.
	backedUp := false

	for _, name := range []string{codec.Projects, codec.Tasks, codec.DailyPlans} {
		snapshotted, err := s.persistQuiet(name, encoded[name])
		if err != nil {
			return stats, fmt.Errorf("applying merge: %w", err)
		}

		backedUp = backedUp || snapshotted
	}

	if backedUp {
		ts := s.now().UTC()
		settings.LastBackup = &ts
	}

	settingsData, err := codec.EncodeSettings(settings)
	if err != nil {
		return stats, err
	}

	if _, err := s.persistQuiet(codec.Settings, settingsData); err != nil {
		return stats, fmt.Errorf("applying merge: %w", err)
	}

	s.projects.commit(projects)
	s.tasks.commit(tasks)
	s.plans.commit(plans)
	s.settings.Store(&settings)

	return stats, nil
}

// reconcile repairs soft references in place: unknown project ids are
// cleared, unknown task ids are pruned from dependencies, plan task lists,
// and time blocks. Cyclic dependencies are broken by dropping the edge that
// closes the cycle.
func reconcile(projects []model.Project, tasks []model.Task, plans []model.DailyPlan, stats *ReconcileStats) {
	projectIDs := make(map[string]bool, len(projects))
	for _, p := range projects {
		projectIDs[p.ID] = true
	}

	taskIDs := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		taskIDs[t.ID] = true
	}

	for i := range tasks {
		if tasks[i].ProjectID != nil && !projectIDs[*tasks[i].ProjectID] {
			tasks[i].ProjectID = nil
			stats.TasksProjectCleared++
		}

		kept := tasks[i].Dependencies[:0]

		for _, dep := range tasks[i].Dependencies {
			if taskIDs[dep] && dep != tasks[i].ID {
				kept = append(kept, dep)
			} else {
				stats.TaskDepsPruned++
			}
		}

		tasks[i].Dependencies = kept
	}

	stats.TaskDepsPruned += breakCycles(tasks)

	for i := range plans {
		kept := plans[i].Tasks[:0]

		for _, id := range plans[i].Tasks {
			if taskIDs[id] {
				kept = append(kept, id)
			} else {
				stats.PlanTasksPruned++
			}
		}

		plans[i].Tasks = kept

		for j := range plans[i].TimeBlocks {
			tb := &plans[i].TimeBlocks[j]
			if tb.TaskID != nil && !taskIDs[*tb.TaskID] {
				tb.TaskID = nil
				stats.TimeBlocksCleared++
			}
		}
	}
}

// breakCycles removes dependency edges until the graph is acyclic, returning
// the number of edges dropped. Iteration order is the slice order, so the
// result is deterministic for a given input.
func breakCycles(tasks []model.Task) int {
	byID := make(map[string]*model.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	dropped := 0

	for i := range tasks {
		kept := tasks[i].Dependencies[:0]

		for _, dep := range tasks[i].Dependencies {
			if reaches(byID, dep, tasks[i].ID) {
				dropped++

				continue
			}

			kept = append(kept, dep)
		}

		tasks[i].Dependencies = kept
	}

	return dropped
}

// reaches reports whether target is reachable from id over dependency edges.
func reaches(byID map[string]*model.Task, id, target string) bool {
	if id == target {
		return true
	}

	seen := map[string]bool{}
	stack := []string{id}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[cur] {
			continue
		}

		seen[cur] = true

		t, ok := byID[cur]
		if !ok {
			continue
		}

		for _, dep := range t.Dependencies {
			if dep == target {
				return true
			}

			stack = append(stack, dep)
		}
	}

	return false
}

// dedupePlanDates keeps one plan per date, preferring the most recently
// updated, and on equal stamps the one earlier in the slice.
func dedupePlanDates(plans []model.DailyPlan, stats *ReconcileStats) []model.DailyPlan {
	byDate := make(map[string]int, len(plans))
	out := plans[:0]

	for _, p := range plans {
		idx, ok := byDate[p.Date]
		if !ok {
			byDate[p.Date] = len(out)
			out = append(out, p)

			continue
		}

		stats.DuplicateDatesFixed++

		if p.UpdatedAt.After(out[idx].UpdatedAt) {
			out[idx] = p
		}
	}

	return out
}

func cloneProjects(in []model.Project) []model.Project {
	out := make([]model.Project, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}

	return out
}

func cloneTasks(in []model.Task) []model.Task {
	out := make([]model.Task, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}

	return out
}

func clonePlans(in []model.DailyPlan) []model.DailyPlan {
	out := make([]model.DailyPlan, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}

	return out
}
