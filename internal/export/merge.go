package export

import (
	"time"

	"deskflow/internal/model"
	"deskflow/internal/store"
)

// CollectionCounts tallies one collection's merge outcome.
type CollectionCounts struct {
	Inserted int `json:"inserted"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
}

// MergeReport summarizes a merge for user-facing feedback: per-collection
// entity counts plus the reference repairs the reconciliation pass applied.
type MergeReport struct {
	Projects         CollectionCounts     `json:"projects"`
	Tasks            CollectionCounts     `json:"tasks"`
	DailyPlans       CollectionCounts     `json:"daily_plans"`
	SettingsReplaced bool                 `json:"settings_replaced"`
	Repairs          store.ReconcileStats `json:"repairs"`
}

// TotalInserted returns the entity insertions across all collections.
func (r MergeReport) TotalInserted() int {
	return r.Projects.Inserted + r.Tasks.Inserted + r.DailyPlans.Inserted
}

// TotalReplaced returns the entity replacements across all collections.
func (r MergeReport) TotalReplaced() int {
	return r.Projects.Replaced + r.Tasks.Replaced + r.DailyPlans.Replaced
}

// Merge folds an external export into the live store. Per entity id it keeps
// whichever copy was updated later; ties keep the local copy. Entities only
// present in the import are inserted. Nothing is ever deleted by a merge.
//
// After entity resolution the merged dataset goes through the store's
// reference reconciliation in one transactional replace, so imported
// entities pointing at ids unknown to the merged state are repaired rather
// than persisted dangling.
func Merge(st *store.Store, doc Document) (MergeReport, error) {
	var report MergeReport

	projects := mergeByID(st.ListProjects(nil), doc.Projects,
		func(p model.Project) string { return p.ID },
		func(p model.Project) time.Time { return p.UpdatedAt },
		&report.Projects)

	tasks := mergeByID(st.ListTasks(nil), doc.Tasks,
		func(t model.Task) string { return t.ID },
		func(t model.Task) time.Time { return t.UpdatedAt },
		&report.Tasks)

	plans := mergeByID(st.ListDailyPlans(nil), doc.DailyPlans,
		func(p model.DailyPlan) string { return p.ID },
		func(p model.DailyPlan) time.Time { return p.UpdatedAt },
		&report.DailyPlans)

	settings := st.GetSettings()

	if doc.Settings != nil && doc.Settings.UpdatedAt.After(settings.UpdatedAt) {
		settings = doc.Settings.Clone()
		report.SettingsReplaced = true
	}

	stats, err := st.ApplyMerged(projects, tasks, plans, settings)
	if err != nil {
		return MergeReport{}, err
	}

	report.Repairs = stats

	return report, nil
}

// mergeByID resolves one collection: local entities keep their positions,
// imported winners replace them in place, and new imports append in export
// order. Duplicate ids inside the import itself resolve the same way, so the
// result never carries a duplicate.
func mergeByID[T any](local, imported []T, id func(T) string, updatedAt func(T) time.Time, counts *CollectionCounts) []T {
	merged := make([]T, len(local))
	copy(merged, local)

	index := make(map[string]int, len(local))
	for i, item := range local {
		index[id(item)] = i
	}

	inserted := make(map[string]bool)

	for _, item := range imported {
		key := id(item)

		i, exists := index[key]
		if !exists {
			index[key] = len(merged)
			merged = append(merged, item)
			inserted[key] = true
			counts.Inserted++

			continue
		}

		if updatedAt(item).After(updatedAt(merged[i])) {
			merged[i] = item

			// A duplicate id inside the import superseding its own earlier
			// row is not a replacement of local data.
			if !inserted[key] {
				counts.Replaced++
			}
		} else if !inserted[key] {
			counts.Skipped++
		}
	}

	return merged
}
