package model

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectPaused    ProjectStatus = "paused"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskCompleted  TaskStatus = "completed"
)

// Priority applies to both projects and tasks.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Mood records how a planned day went.
type Mood string

const (
	MoodExcellent Mood = "excellent"
	MoodGood      Mood = "good"
	MoodNeutral   Mood = "neutral"
	MoodTired     Mood = "tired"
	MoodStressed  Mood = "stressed"
)

// validProjectStatuses is the canonical set of accepted project status strings.
var validProjectStatuses = map[ProjectStatus]bool{
	ProjectPlanning: true, ProjectActive: true, ProjectPaused: true,
	ProjectCompleted: true, ProjectArchived: true,
}

// validTaskStatuses is the canonical set of accepted task status strings.
var validTaskStatuses = map[TaskStatus]bool{
	TaskTodo: true, TaskInProgress: true, TaskBlocked: true, TaskCompleted: true,
}

var validPriorities = map[Priority]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true,
}

var validMoods = map[Mood]bool{
	MoodExcellent: true, MoodGood: true, MoodNeutral: true,
	MoodTired: true, MoodStressed: true,
}

// IsValidProjectStatus checks if the status is valid.
func IsValidProjectStatus(s ProjectStatus) bool { return validProjectStatuses[s] }

// IsValidTaskStatus checks if the status is valid.
func IsValidTaskStatus(s TaskStatus) bool { return validTaskStatuses[s] }

// IsValidPriority checks if the priority is valid.
func IsValidPriority(p Priority) bool { return validPriorities[p] }

// IsValidMood checks if the mood is valid. The empty mood is allowed.
func IsValidMood(m Mood) bool { return m == "" || validMoods[m] }
