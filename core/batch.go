package core

import (
	"context"
	"fmt"
	"strings"
)

// Batch operations apply one mutation across a set of task ids. Failure
// granularity is per task: a failing id is recorded and the batch proceeds,
// already-applied tasks are not rolled back. Per-task fields that depend on
// prior state ("from" status, existing tags) are re-read per task rather
// than assumed uniform across the batch.

func newBatchResult() BatchResult {
	return BatchResult{Failed: map[string]string{}}
}

func (r *BatchResult) fail(id string, err error) {
	r.Failed[id] = err.Error()
}

// BatchUpdateStatus sets status across ids. Moving to completed mirrors the
// single-task path: progress forced to 100, completedAt set, and a second
// completion activity per task.
func (s *Service) BatchUpdateStatus(ctx context.Context, ownerID string, taskIDs []string, newStatus TaskStatus) (BatchResult, error) {
	if !isValidStatus(newStatus) {
		return BatchResult{}, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, newStatus)
	}

	res := newBatchResult()
	for _, id := range taskIDs {
		cur, err := s.store.GetTask(ctx, ownerID, id)
		if err != nil {
			s.log.Warn("batch status update skipped task", "task", id, "error", err)
			res.fail(id, err)
			continue
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
			s.log.Warn("batch status update failed", "task", id, "error", err)
			res.fail(id, err)
			continue
		}

		s.appendActivity(ctx, ownerID, &updated, ActivityStatusChange,
			fmt.Sprintf("Status changed from %s to %s (batch update)", from, newStatus))
		if newStatus == StatusCompleted {
			s.appendActivity(ctx, ownerID, &updated, ActivityCompletion, "Task completed (batch update)")
		}
		res.Updated = append(res.Updated, id)
	}

	s.publish(ctx, ownerID)
	return res, nil
}

// BatchUpdatePriority sets priority across ids.
func (s *Service) BatchUpdatePriority(ctx context.Context, ownerID string, taskIDs []string, p Priority) (BatchResult, error) {
	if !isValidPriority(p) {
		return BatchResult{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidArgument, p)
	}

	res := newBatchResult()
	for _, id := range taskIDs {
		cur, err := s.store.GetTask(ctx, ownerID, id)
		if err != nil {
			res.fail(id, err)
			continue
		}

		from := cur.Priority
		cur.Priority = p

		updated, err := s.store.UpdateTask(ctx, cur)
		if err != nil {
			res.fail(id, err)
			continue
		}

		s.appendActivity(ctx, ownerID, &updated, ActivityPriorityChange,
			fmt.Sprintf("Priority changed from %s to %s (batch update)", priorityLabel(from), priorityLabel(p)))
		res.Updated = append(res.Updated, id)
	}

	s.publish(ctx, ownerID)
	return res, nil
}

// BatchAddTags unions tags into each task, preserving existing insertion
// order and skipping duplicates.
func (s *Service) BatchAddTags(ctx context.Context, ownerID string, taskIDs, tags []string) (BatchResult, error) {
	if len(tags) == 0 {
		return BatchResult{}, fmt.Errorf("%w: no tags given", ErrInvalidArgument)
	}

	res := newBatchResult()
	for _, id := range taskIDs {
		cur, err := s.store.GetTask(ctx, ownerID, id)
		if err != nil {
			res.fail(id, err)
			continue
		}

		var added []string
		for _, tag := range tags {
			if tag == "" || cur.Tags.Contains(tag) {
				continue
			}
			cur.Tags = append(cur.Tags, tag)
			added = append(added, tag)
		}

		updated, err := s.store.UpdateTask(ctx, cur)
		if err != nil {
			res.fail(id, err)
			continue
		}

		s.appendActivity(ctx, ownerID, &updated, ActivityTagUpdate,
			fmt.Sprintf("Tags added: [%s] (batch update)", strings.Join(added, ", ")))
		res.Updated = append(res.Updated, id)
	}

	s.publish(ctx, ownerID)
	return res, nil
}

// BatchDelete removes each task; the audit trail goes with the task.
func (s *Service) BatchDelete(ctx context.Context, ownerID string, taskIDs []string) (BatchResult, error) {
	res := newBatchResult()
	for _, id := range taskIDs {
		if err := s.store.DeleteTask(ctx, ownerID, id); err != nil {
			s.log.Warn("batch delete skipped task", "task", id, "error", err)
			res.fail(id, err)
			continue
		}
		res.Updated = append(res.Updated, id)
	}

	s.publish(ctx, ownerID)
	return res, nil
}
