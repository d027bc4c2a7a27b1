package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskflow/internal/model"
)

func strPtr(s string) *string { return &s }

func Test_Project_Validate_Catches_Bad_Fields(t *testing.T) {
	t.Parallel()

	valid := model.NewProject("site redesign")
	require.NoError(t, valid.Validate())

	cases := map[string]struct {
		mutate func(*model.Project)
		want   error
	}{
		"empty name":      {func(p *model.Project) { p.Name = "" }, model.ErrNameRequired},
		"bad status":      {func(p *model.Project) { p.Status = "blocked" }, model.ErrInvalidStatus},
		"bad priority":    {func(p *model.Project) { p.Priority = "urgent" }, model.ErrInvalidPriority},
		"bad start date":  {func(p *model.Project) { p.StartDate = strPtr("01/02/2024") }, model.ErrInvalidDate},
		"bad target date": {func(p *model.Project) { p.TargetDate = strPtr("soon") }, model.ErrInvalidDate},
	}

	for name, tc := range cases {
		p := valid.Clone()
		tc.mutate(&p)

		assert.ErrorIs(t, p.Validate(), tc.want, name)
	}
}

func Test_Task_Validate_Requires_Blocked_Reason(t *testing.T) {
	t.Parallel()

	task := model.NewTask("fix login")
	task.Status = model.TaskBlocked

	assert.ErrorIs(t, task.Validate(), model.ErrBlockedReasonMissing)

	task.BlockedReason = "waiting on api keys"
	assert.NoError(t, task.Validate())
}

func Test_DailyPlan_Validate_Checks_Date_Mood_And_Blocks(t *testing.T) {
	t.Parallel()

	plan := model.NewDailyPlan("2024-03-01")
	require.NoError(t, plan.Validate())

	plan.Mood = "euphoric"
	assert.ErrorIs(t, plan.Validate(), model.ErrInvalidMood)

	plan.Mood = model.MoodGood
	plan.TimeBlocks = []model.TimeBlock{{ID: "b1", StartTime: "9am", EndTime: "10:00"}}
	assert.ErrorIs(t, plan.Validate(), model.ErrInvalidTimeOfDay)

	plan.TimeBlocks[0].StartTime = "09:00"
	assert.NoError(t, plan.Validate())

	plan.Date = "March 1"
	assert.ErrorIs(t, plan.Validate(), model.ErrInvalidDate)
}

func Test_DailyPlan_Allows_Empty_Mood(t *testing.T) {
	t.Parallel()

	plan := model.NewDailyPlan("2024-03-01")
	plan.Mood = ""

	assert.NoError(t, plan.Validate())
}

func Test_Project_Progress_Derives_From_Milestones(t *testing.T) {
	t.Parallel()

	p := model.NewProject("x")
	assert.Zero(t, p.Progress())

	p.Milestones = []model.Milestone{
		{ID: "m1", Name: "alpha", Completed: true},
		{ID: "m2", Name: "beta", Completed: true},
		{ID: "m3", Name: "ga"},
	}

	assert.InDelta(t, 66.66, p.Progress(), 0.01)
}

func Test_Task_IsOverdue_Honors_Grace_Day_And_Completion(t *testing.T) {
	t.Parallel()

	task := model.NewTask("x")
	task.DueDate = strPtr("2024-03-01")

	endOfDueDay := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	assert.False(t, task.IsOverdue(endOfDueDay), "still within the due day")

	nextDay := time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)
	assert.True(t, task.IsOverdue(nextDay))

	task.Status = model.TaskCompleted
	assert.False(t, task.IsOverdue(nextDay), "completed tasks are never overdue")
}

func Test_Clone_Is_A_Deep_Copy(t *testing.T) {
	t.Parallel()

	task := model.NewTask("original")
	task.ProjectID = strPtr("p-1")
	task.Tags = []string{"a"}
	task.Dependencies = []string{"t-2"}
	task.Checklist = []model.ChecklistItem{{ID: "c1", Text: "step"}}

	clone := task.Clone()
	*clone.ProjectID = "p-other"
	clone.Tags[0] = "b"
	clone.Dependencies[0] = "t-9"
	clone.Checklist[0].Completed = true

	assert.Equal(t, "p-1", *task.ProjectID)
	assert.Equal(t, "a", task.Tags[0])
	assert.Equal(t, "t-2", task.Dependencies[0])
	assert.False(t, task.Checklist[0].Completed)
}
