package core

import (
	"context"
	"fmt"
)

// StartTimer opens a timing session on the task. Starting an already-running
// timer is a no-op that returns the task unchanged.
func (s *Service) StartTimer(ctx context.Context, ownerID, taskID string) (Task, error) {
	cur, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return Task{}, err
	}
	if cur.TimerRunning {
		return cur, nil
	}

	now := s.now()
	cur.TimerRunning = true
	cur.StartTime = &now

	updated, err := s.store.UpdateTask(ctx, cur)
	if err != nil {
		return Task{}, err
	}
	s.appendActivity(ctx, ownerID, &updated, ActivityTimerUpdate, "Timer started")
	s.publish(ctx, ownerID)
	return updated, nil
}

// StopTimer closes the timing session and folds the elapsed delta into the
// task's accumulated totals. Afterwards the time-budget watcher re-evaluates
// the advisories: approaching at 80% of the estimate, exceeded at 100%, and
// a split suggestion once the auto-split threshold is crossed. Advisories
// are observational; none of them mutate the task.
func (s *Service) StopTimer(ctx context.Context, ownerID, taskID string, elapsedDeltaMs int64) (Task, error) {
	if elapsedDeltaMs < 0 {
		return Task{}, fmt.Errorf("%w: negative elapsed delta", ErrInvalidArgument)
	}

	cur, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return Task{}, err
	}

	cur.TimerRunning = false
	cur.StartTime = nil
	cur.TotalElapsed += elapsedDeltaMs
	cur.ActualDuration = int(cur.TotalElapsed / 60_000)

	updated, err := s.store.UpdateTask(ctx, cur)
	if err != nil {
		return Task{}, err
	}

	s.appendActivity(ctx, ownerID, &updated, ActivityTimerUpdate,
		fmt.Sprintf("Timer stopped, %s logged (%s total)", formatMinutes(elapsedDeltaMs), formatMinutes(updated.TotalElapsed)))

	s.watchBudget(ctx, ownerID, updated)
	s.publish(ctx, ownerID)
	return updated, nil
}

func (s *Service) watchBudget(ctx context.Context, ownerID string, t Task) {
	budget := t.TimeBudget()
	if budget <= 0 || t.Status == StatusCompleted {
		return
	}

	switch {
	case t.TotalElapsed >= budget:
		s.notifier.Notify(ctx, ownerID, Notification{
			Kind:    NotifyBudgetExceeded,
			TaskID:  t.ID,
			Message: fmt.Sprintf("%q has exceeded its %d minute estimate", t.Title, t.EstimatedDuration),
			Warning: true,
		})
	case t.TotalElapsed*10 >= budget*8:
		s.notifier.Notify(ctx, ownerID, Notification{
			Kind:    NotifyBudgetApproaching,
			TaskID:  t.ID,
			Message: fmt.Sprintf("%q is approaching its %d minute estimate", t.Title, t.EstimatedDuration),
		})
	}

	if splitNeeded(t) {
		s.notifier.Notify(ctx, ownerID, Notification{
			Kind:    NotifySplitSuggested,
			TaskID:  t.ID,
			Message: fmt.Sprintf("%q has used 90%% of its time budget and can be split", t.Title),
		})
	}
}
