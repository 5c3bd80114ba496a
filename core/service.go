package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service is the task lifecycle engine. It owns status transitions, timing,
// recurrence, auto-splitting, scoring and the audit trail; persistence and
// advisory delivery are injected capabilities.
type Service struct {
	store    Store
	profiles Profiles
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
	hub      *hub
}

func NewService(store Store, profiles Profiles, notifier Notifier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if profiles == nil {
		profiles = noProfiles{}
	}
	if notifier == nil {
		notifier = noNotifier{}
	}
	return &Service{
		store:    store,
		profiles: profiles,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		hub:      newHub(),
	}
}

type noProfiles struct{}

func (noProfiles) Get(_ context.Context, userID string) (Profile, error) {
	return Profile{UserID: userID}, nil
}

type noNotifier struct{}

func (noNotifier) Notify(context.Context, string, Notification) {}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ListTasks fetches the owner's collection and runs the recurrence pass over
// it, so completed recurring tasks whose next occurrence has arrived spawn
// their successors as part of the load.
func (s *Service) ListTasks(ctx context.Context, ownerID string) ([]Task, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: empty owner id", ErrInvalidArgument)
	}
	tasks, err := s.store.ListTasks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	generated := s.regenerate(ctx, ownerID, tasks)
	if len(generated) > 0 {
		tasks = append(tasks, generated...)
	}
	return tasks, nil
}

func (s *Service) GetTask(ctx context.Context, ownerID, taskID string) (Task, error) {
	if ownerID == "" || taskID == "" {
		return Task{}, fmt.Errorf("%w: empty id", ErrInvalidArgument)
	}
	return s.store.GetTask(ctx, ownerID, taskID)
}

func validateInput(in TaskInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if in.EstimatedDuration <= 0 {
		return fmt.Errorf("%w: estimated duration must be positive", ErrInvalidArgument)
	}
	if !isValidPriority(in.Priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidArgument, in.Priority)
	}
	if in.Recurring.IsRecurring {
		if in.Recurring.NextOccurrence.IsZero() {
			return fmt.Errorf("%w: recurring task needs a next occurrence", ErrInvalidArgument)
		}
		if in.Recurring.Interval < 1 {
			return fmt.Errorf("%w: recurrence interval must be positive", ErrInvalidArgument)
		}
	}
	return nil
}

func (s *Service) newTask(ownerID string, in TaskInput) Task {
	now := s.now()
	return Task{
		ID:                   uuid.NewString(),
		OwnerID:              ownerID,
		Title:                strings.TrimSpace(in.Title),
		Description:          strings.TrimSpace(in.Description),
		Status:               StatusTodo,
		Priority:             in.Priority,
		Tags:                 append(StringList{}, in.Tags...),
		DueDate:              in.DueDate,
		EstimatedDuration:    in.EstimatedDuration,
		Dependencies:         append(StringList{}, in.Dependencies...),
		Recurring:            in.Recurring,
		Metadata:             in.Metadata,
		AssignedTo:           in.AssignedTo,
		TotalElapsed:         0,
		TimerRunning:         false,
		CompletionPercentage: 0,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// CreateTask persists a new task with system fields initialized: timer off,
// zero elapsed time and progress, createdAt = updatedAt = now.
func (s *Service) CreateTask(ctx context.Context, ownerID string, in TaskInput) (Task, error) {
	if ownerID == "" {
		return Task{}, fmt.Errorf("%w: empty owner id", ErrInvalidArgument)
	}
	if err := validateInput(in); err != nil {
		return Task{}, err
	}

	created, err := s.store.CreateTask(ctx, s.newTask(ownerID, in))
	if err != nil {
		return Task{}, err
	}
	s.appendActivity(ctx, ownerID, &created, ActivityStatusChange, "Task created")
	s.publish(ctx, ownerID)
	return created, nil
}

// CreateSubtask creates a child task under parentID and maintains the
// parent/child inverse: the child records its parent, the parent's subtask
// list gains the child id. The inverse is enforced here, at creation time,
// not continuously revalidated.
func (s *Service) CreateSubtask(ctx context.Context, ownerID, parentID string, in TaskInput) (Task, error) {
	if ownerID == "" || parentID == "" {
		return Task{}, fmt.Errorf("%w: empty id", ErrInvalidArgument)
	}
	if err := validateInput(in); err != nil {
		return Task{}, err
	}

	parent, err := s.store.GetTask(ctx, ownerID, parentID)
	if err != nil {
		return Task{}, err
	}

	child := s.newTask(ownerID, in)
	child.Metadata.ParentTaskID = parent.ID

	created, err := s.store.CreateTask(ctx, child)
	if err != nil {
		return Task{}, err
	}

	parent.Metadata.SubtaskIDs = append(parent.Metadata.SubtaskIDs, created.ID)
	parent.Metadata.HasSubtasks = true
	if parent, err = s.store.UpdateTask(ctx, parent); err != nil {
		return Task{}, err
	}
	s.appendActivity(ctx, ownerID, &parent, ActivityDependencyUpdate,
		fmt.Sprintf("Subtask %q added", created.Title))
	s.appendActivity(ctx, ownerID, &created, ActivityStatusChange, "Task created")
	s.publish(ctx, ownerID)
	return created, nil
}

// PatchTask applies a partial update. Exactly one activity is appended,
// narrating the most specific change in the patch.
func (s *Service) PatchTask(ctx context.Context, ownerID, taskID string, p TaskPatch) (Task, error) {
	if ownerID == "" || taskID == "" {
		return Task{}, fmt.Errorf("%w: empty id", ErrInvalidArgument)
	}

	cur, err := s.store.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return Task{}, err
	}

	activityType := ActivityStatusChange
	details := "Task updated"

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return Task{}, fmt.Errorf("%w: title is required", ErrInvalidArgument)
		}
		cur.Title = title
	}
	if p.Description != nil {
		cur.Description = strings.TrimSpace(*p.Description)
	}
	if p.EstimatedDuration != nil {
		if *p.EstimatedDuration <= 0 {
			return Task{}, fmt.Errorf("%w: estimated duration must be positive", ErrInvalidArgument)
		}
		cur.EstimatedDuration = *p.EstimatedDuration
	}
	if p.DueDate != nil {
		cur.DueDate = p.DueDate
	}
	if p.AssignedTo != nil {
		cur.AssignedTo = *p.AssignedTo
	}
	if p.Recurring != nil {
		cur.Recurring = *p.Recurring
	}
	if p.Dependencies != nil {
		cur.Dependencies = append(StringList{}, *p.Dependencies...)
		activityType = ActivityDependencyUpdate
		details = fmt.Sprintf("Dependencies set (%d)", len(cur.Dependencies))
	}
	if p.Tags != nil {
		cur.Tags = append(StringList{}, *p.Tags...)
		activityType = ActivityTagUpdate
		details = fmt.Sprintf("Tags set to [%s]", strings.Join(cur.Tags, ", "))
	}
	if p.Priority != nil {
		if !isValidPriority(*p.Priority) {
			return Task{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidArgument, *p.Priority)
		}
		activityType = ActivityPriorityChange
		details = fmt.Sprintf("Priority changed from %s to %s", priorityLabel(cur.Priority), priorityLabel(*p.Priority))
		cur.Priority = *p.Priority
	}

	updated, err := s.store.UpdateTask(ctx, cur)
	if err != nil {
		return Task{}, err
	}
	s.appendActivity(ctx, ownerID, &updated, activityType, details)
	s.publish(ctx, ownerID)
	return updated, nil
}

func (s *Service) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	if ownerID == "" || taskID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidArgument)
	}
	if err := s.store.DeleteTask(ctx, ownerID, taskID); err != nil {
		return err
	}
	s.publish(ctx, ownerID)
	return nil
}

func priorityLabel(p Priority) string {
	if p == PriorityNone {
		return "none"
	}
	return string(p)
}
