package core

import "context"

// Store is the persistence capability the engine runs against. Implementations
// must not assume in-memory semantics above this boundary: every call is an
// I/O round trip with last-writer-wins field semantics.
type Store interface {
	Ping(ctx context.Context) error

	ListTasks(ctx context.Context, ownerID string) ([]Task, error)
	GetTask(ctx context.Context, ownerID, taskID string) (Task, error)
	CreateTask(ctx context.Context, t Task) (Task, error)
	UpdateTask(ctx context.Context, t Task) (Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID string) error

	AppendActivity(ctx context.Context, ownerID, taskID string, a Activity) (Activity, error)
	ListActivities(ctx context.Context, ownerID, taskID string, limit int) ([]Activity, error)
	ListRecentActivities(ctx context.Context, ownerID string, limit int) ([]Activity, error)
}

// Profile is what the identity collaborator knows about an owner.
type Profile struct {
	UserID            string
	DisplayName       string
	Skills            []string
	WorkloadThreshold int
}

// Profiles resolves owner ids against the identity provider.
type Profiles interface {
	Get(ctx context.Context, userID string) (Profile, error)
}

type NotificationKind string

const (
	NotifyBudgetApproaching  NotificationKind = "time_budget_approaching"
	NotifyBudgetExceeded     NotificationKind = "time_budget_exceeded"
	NotifySplitSuggested     NotificationKind = "split_suggested"
	NotifyRecurringGenerated NotificationKind = "recurring_generated"
	NotifyDependencyBlocked  NotificationKind = "dependency_blocked"
)

// Notification is an advisory event. Delivery is fire-and-forget; the
// engine never consumes a result.
type Notification struct {
	Kind    NotificationKind
	TaskID  string
	Message string
	Warning bool
}

type Notifier interface {
	Notify(ctx context.Context, ownerID string, n Notification)
}
