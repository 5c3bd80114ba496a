package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// nextOccurrenceAfter advances from by one recurrence step. Weekly and
// biweekly both step in two-week units per interval (weekly interval=2
// lands four weeks out). Unknown patterns fall back to daily arithmetic.
func nextOccurrenceAfter(cfg RecurringConfig, from time.Time) time.Time {
	interval := cfg.Interval
	if interval < 1 {
		interval = 1
	}
	switch cfg.Pattern {
	case PatternWeekly, PatternBiweekly:
		return from.AddDate(0, 0, 14*interval)
	case PatternMonthly:
		return from.AddDate(0, interval, 0)
	case PatternDaily:
		return from.AddDate(0, 0, interval)
	default:
		return from.AddDate(0, 0, interval)
	}
}

// shouldRecur checks the end conditions of a recurring config.
func shouldRecur(cfg RecurringConfig) bool {
	if !cfg.IsRecurring {
		return false
	}
	if cfg.EndDate != nil && cfg.NextOccurrence.After(*cfg.EndDate) {
		return false
	}
	if cfg.EndAfterOccurrences != nil && cfg.OccurrencesCompleted >= *cfg.EndAfterOccurrences {
		return false
	}
	return true
}

// regenerate is the recurrence pass over an owner's freshly fetched tasks.
// For every completed recurring task whose next occurrence has arrived and
// whose end conditions permit, it persists a successor task and retires the
// source's config so a completed source can never fire twice. Failures are
// logged and skipped; the pass is best-effort per task.
func (s *Service) regenerate(ctx context.Context, ownerID string, tasks []Task) []Task {
	now := s.now()
	var created []Task

	for i := range tasks {
		src := tasks[i]
		if src.Status != StatusCompleted || !src.Recurring.IsRecurring {
			continue
		}
		if src.Recurring.NextOccurrence.After(now) {
			continue
		}
		if !shouldRecur(src.Recurring) {
			continue
		}

		successor := successorOf(src, now)
		persisted, err := s.store.CreateTask(ctx, successor)
		if err != nil {
			s.log.Warn("recurring task creation failed", "source", src.ID, "error", err)
			continue
		}
		s.appendActivity(ctx, ownerID, &persisted, ActivityStatusChange, "Recurring task created")

		// The recurrence baton passes to the successor; the source keeps a
		// record that this occurrence fired but will not fire again.
		src.Recurring.OccurrencesCompleted++
		src.Recurring.IsRecurring = false
		if updated, err := s.store.UpdateTask(ctx, src); err != nil {
			s.log.Warn("recurring source update failed", "source", src.ID, "error", err)
		} else {
			tasks[i] = updated
		}

		created = append(created, persisted)
	}

	if len(created) > 0 {
		s.notifier.Notify(ctx, ownerID, Notification{
			Kind:    NotifyRecurringGenerated,
			Message: fmt.Sprintf("%d recurring task(s) generated", len(created)),
		})
	}
	return created
}

// successorOf clones a recurring source into its next occurrence: fresh id,
// reset lifecycle state, due date shifted by the same delta as the occurrence.
func successorOf(src Task, now time.Time) Task {
	next := nextOccurrenceAfter(src.Recurring, src.Recurring.NextOccurrence)

	cfg := src.Recurring
	cfg.NextOccurrence = next
	cfg.OccurrencesCompleted = src.Recurring.OccurrencesCompleted + 1

	meta := src.Metadata
	meta.SplitIntoTasks = nil
	meta.PersonalizationScore = 0

	t := Task{
		ID:                uuid.NewString(),
		OwnerID:           src.OwnerID,
		Title:             src.Title,
		Description:       src.Description,
		Status:            StatusTodo,
		Priority:          src.Priority,
		Tags:              append(StringList{}, src.Tags...),
		EstimatedDuration: src.EstimatedDuration,
		Recurring:         cfg,
		Metadata:          meta,
		AssignedTo:        src.AssignedTo,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if src.DueDate != nil {
		shifted := src.DueDate.Add(next.Sub(src.Recurring.NextOccurrence))
		t.DueDate = &shifted
	}
	return t
}
