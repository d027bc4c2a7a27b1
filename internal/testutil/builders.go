package testutil

import (
	"fmt"

	"deskflow/internal/model"
)

// Project returns a valid project with a deterministic id derived from n.
func Project(n int) model.Project {
	p := model.NewProject(fmt.Sprintf("project-%d", n))
	p.ID = fmt.Sprintf("p-%04d", n)

	return p
}

// Task returns a valid unassigned task with a deterministic id.
func Task(n int) model.Task {
	t := model.NewTask(fmt.Sprintf("task-%d", n))
	t.ID = fmt.Sprintf("t-%04d", n)

	return t
}

// TaskInProject returns a valid task assigned to projectID.
func TaskInProject(n int, projectID string) model.Task {
	t := Task(n)
	t.ProjectID = &projectID

	return t
}

// Plan returns a valid daily plan with a deterministic id for the given
// YYYY-MM-DD date.
func Plan(n int, date string) model.DailyPlan {
	p := model.NewDailyPlan(date)
	p.ID = fmt.Sprintf("d-%04d", n)

	return p
}
