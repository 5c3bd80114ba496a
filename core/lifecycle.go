package core

import (
	"context"
	"errors"
	"fmt"
)

// CheckDependencies reports whether the dependency gate is open: true when
// the task has no dependencies, or every one of them resolves to a completed
// task. A dependency id that no longer resolves (deleted task) keeps the
// gate closed rather than counting as satisfied-by-absence.
func (s *Service) CheckDependencies(ctx context.Context, ownerID, taskID string) (bool, error) {
	t, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return false, err
	}
	for _, depID := range t.Dependencies {
		dep, err := s.store.GetTask(ctx, ownerID, depID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		if dep.Status != StatusCompleted {
			return false, nil
		}
	}
	return true, nil
}

// UpdateStatus writes the new status and narrates the transition. Completion
// additionally forces progress to 100 and appends a second, completion-typed
// activity. The dependency gate is deliberately not enforced here: callers
// check it first, which lets privileged batch flows bypass it.
func (s *Service) UpdateStatus(ctx context.Context, ownerID, taskID string, newStatus TaskStatus) (Task, error) {
	if !isValidStatus(newStatus) {
		return Task{}, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, newStatus)
	}

	cur, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return Task{}, err
	}

	from := cur.Status
	cur.Status = newStatus
	if newStatus == StatusCompleted {
		cur.CompletionPercentage = 100
		now := s.now()
		cur.CompletedAt = &now
	}

	updated, err := s.store.UpdateTask(ctx, cur)
	if err != nil {
		return Task{}, err
	}

	s.appendActivity(ctx, ownerID, &updated, ActivityStatusChange,
		fmt.Sprintf("Status changed from %s to %s", from, newStatus))
	if newStatus == StatusCompleted {
		s.appendActivity(ctx, ownerID, &updated, ActivityCompletion, "Task completed")
	}
	s.publish(ctx, ownerID)
	return updated, nil
}

// UpdateProgress writes the completion percentage. Out-of-range input is
// clamped to [0,100].
func (s *Service) UpdateProgress(ctx context.Context, ownerID, taskID string, percentage int) (Task, error) {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	cur, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return Task{}, err
	}

	cur.CompletionPercentage = percentage
	updated, err := s.store.UpdateTask(ctx, cur)
	if err != nil {
		return Task{}, err
	}

	s.appendActivity(ctx, ownerID, &updated, ActivityStatusChange,
		fmt.Sprintf("Progress updated to %d%%", percentage))
	s.publish(ctx, ownerID)
	return updated, nil
}
