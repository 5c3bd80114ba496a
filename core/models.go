package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
	StatusBlocked    TaskStatus = "blocked"
)

func isValidStatus(st TaskStatus) bool {
	switch st {
	case StatusTodo, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func isValidPriority(p Priority) bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

type ActivityType string

const (
	ActivityStatusChange     ActivityType = "status_change"
	ActivityComment          ActivityType = "comment"
	ActivityTimerUpdate      ActivityType = "timer_update"
	ActivityDependencyUpdate ActivityType = "dependency_update"
	ActivityTagUpdate        ActivityType = "tag_update"
	ActivityPriorityChange   ActivityType = "priority_change"
	ActivityCompletion       ActivityType = "completion"
	ActivitySplit            ActivityType = "split"
	ActivityCostApproval     ActivityType = "cost_approval"
)

// Activity is an immutable audit record attached to a task. Entries are
// only ever appended; bulk removal happens through task deletion.
type Activity struct {
	ID        string       `db:"id" json:"id"`
	TaskID    string       `db:"task_id" json:"taskId"`
	Type      ActivityType `db:"type" json:"type"`
	Details   string       `db:"details" json:"details"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
}

type RecurrencePattern string

const (
	PatternDaily    RecurrencePattern = "daily"
	PatternWeekly   RecurrencePattern = "weekly"
	PatternBiweekly RecurrencePattern = "biweekly"
	PatternMonthly  RecurrencePattern = "monthly"
)

// RecurringConfig describes how a task repeats. The zero value means the
// task does not recur; IsRecurring is the single source of that truth.
type RecurringConfig struct {
	IsRecurring          bool              `json:"isRecurring"`
	Pattern              RecurrencePattern `json:"pattern,omitempty"`
	Interval             int               `json:"interval,omitempty"`
	DaysOfWeek           []int             `json:"daysOfWeek,omitempty"`
	NextOccurrence       time.Time         `json:"nextOccurrence,omitempty"`
	EndDate              *time.Time        `json:"endDate,omitempty"`
	EndAfterOccurrences  *int              `json:"endAfterOccurrences,omitempty"`
	OccurrencesCompleted int               `json:"occurrencesCompleted"`
}

func (c RecurringConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *RecurringConfig) Scan(src any) error {
	return scanJSON(src, c)
}

// PerformanceHistory carries the owner's track record on this task's
// category, fed in by the identity collaborator at creation time.
type PerformanceHistory struct {
	AccuracyRate          float64 `json:"accuracyRate,omitempty"`
	AverageCompletionTime int     `json:"averageCompletionTime,omitempty"` // minutes
}

// Metadata groups the optional, derived and relationship fields of a task.
// Defaults live here once: a zero Metadata means no parent, no subtasks,
// no skill requirements (vacuously satisfied) and no history.
type Metadata struct {
	ParentTaskID         string             `json:"parentTaskId,omitempty"`
	SubtaskIDs           []string           `json:"subtaskIds,omitempty"`
	HasSubtasks          bool               `json:"hasSubtasks,omitempty"`
	SkillRequirements    []string           `json:"skillRequirements,omitempty"`
	PerformanceHistory   PerformanceHistory `json:"performanceHistory,omitempty"`
	PersonalizationScore int                `json:"personalizationScore,omitempty"`
	SplitIntoTasks       []string           `json:"splitIntoTasks,omitempty"`
}

func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	return scanJSON(src, m)
}

// StringList is a JSONB-backed string slice preserving insertion order.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src any) error {
	return scanJSON(src, l)
}

func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
}

// Task is the central entity of the lifecycle engine. A task belongs to
// exactly one owner; there is no cross-owner sharing.
type Task struct {
	ID                   string          `db:"id" json:"id"`
	OwnerID              string          `db:"owner_id" json:"-"`
	Title                string          `db:"title" json:"title"`
	Description          string          `db:"description" json:"description"`
	Status               TaskStatus      `db:"status" json:"status"`
	Priority             Priority        `db:"priority" json:"priority,omitempty"`
	Tags                 StringList      `db:"tags" json:"tags,omitempty"`
	DueDate              *time.Time      `db:"due_date" json:"dueDate,omitempty"`
	EstimatedDuration    int             `db:"estimated_minutes" json:"estimatedDuration"` // minutes
	ActualDuration       int             `db:"actual_minutes" json:"actualDuration"`       // minutes
	TotalElapsed         int64           `db:"total_elapsed_ms" json:"totalElapsedTime"`   // milliseconds
	TimerRunning         bool            `db:"timer_running" json:"isTimerRunning"`
	StartTime            *time.Time      `db:"started_at" json:"startTime,omitempty"`
	CompletionPercentage int             `db:"completion_pct" json:"completionPercentage"`
	Dependencies         StringList      `db:"dependencies" json:"dependencies,omitempty"`
	Recurring            RecurringConfig `db:"recurring" json:"recurringConfig"`
	Metadata             Metadata        `db:"metadata" json:"metadata"`
	AssignedTo           string          `db:"assigned_to" json:"assignedTo,omitempty"`
	CompletedAt          *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updatedAt"`

	Activities   []Activity `db:"-" json:"activities,omitempty"`
	LastActivity *Activity  `db:"-" json:"lastActivity,omitempty"`
}

// TimeBudget is the estimate expressed in the elapsed-time unit.
func (t Task) TimeBudget() int64 {
	return int64(t.EstimatedDuration) * 60_000
}

// TaskInput is the caller-supplied part of a task. System-assigned fields
// (id, timestamps, timer and progress state) are initialized on create.
type TaskInput struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Priority          Priority        `json:"priority"`
	Tags              []string        `json:"tags"`
	DueDate           *time.Time      `json:"dueDate"`
	EstimatedDuration int             `json:"estimatedDuration"`
	Dependencies      []string        `json:"dependencies"`
	Recurring         RecurringConfig `json:"recurringConfig"`
	Metadata          Metadata        `json:"metadata"`
	AssignedTo        string          `json:"assignedTo"`
}

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title             *string          `json:"title"`
	Description       *string          `json:"description"`
	Priority          *Priority        `json:"priority"`
	Tags              *[]string        `json:"tags"`
	DueDate           *time.Time       `json:"dueDate"`
	EstimatedDuration *int             `json:"estimatedDuration"`
	Dependencies      *[]string        `json:"dependencies"`
	Recurring         *RecurringConfig `json:"recurringConfig"`
	AssignedTo        *string          `json:"assignedTo"`
}

// BatchResult reports per-task outcomes of a batch operation. Failures do
// not roll back tasks that already succeeded.
type BatchResult struct {
	Updated []string          `json:"updated"`
	Failed  map[string]string `json:"failed,omitempty"`
}

func (r BatchResult) Ok() bool {
	return len(r.Failed) == 0
}
