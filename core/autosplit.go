package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const autoSplitTag = "auto-split"

// splitNeeded is the 90% time-budget predicate. A completed task never
// needs splitting, which is also what makes repeated watcher triggers
// idempotent: post-split the original is completed.
func splitNeeded(t Task) bool {
	if t.Status == StatusCompleted {
		return false
	}
	// totalElapsed >= 0.9 * estimate, compared in integer arithmetic.
	return t.TotalElapsed*10 >= t.TimeBudget()*9
}

// CheckSplitNeeded reports whether the task has consumed 90% of its time
// budget without completing.
func (s *Service) CheckSplitNeeded(ctx context.Context, ownerID, taskID string) (bool, error) {
	t, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return false, err
	}
	return splitNeeded(t), nil
}

// AutoSplit decomposes an overrunning task into two successors carrying the
// remaining work, then force-completes the original. This is terminal and
// one-shot: a split task is completed and can never be split again.
func (s *Service) AutoSplit(ctx context.Context, ownerID, taskID string) (Task, error) {
	cur, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return Task{}, err
	}
	if cur.Status == StatusCompleted {
		return Task{}, fmt.Errorf("%w: task already completed", ErrInvalidArgument)
	}

	remaining := 100 - cur.CompletionPercentage
	now := s.now()

	makePart := func(n, estimate int) Task {
		meta := cur.Metadata
		meta.SplitIntoTasks = nil
		meta.PersonalizationScore = 0

		tags := append(StringList{}, cur.Tags...)
		if !tags.Contains(autoSplitTag) {
			tags = append(tags, autoSplitTag)
		}

		return Task{
			ID:                uuid.NewString(),
			OwnerID:           cur.OwnerID,
			Title:             fmt.Sprintf("%s (Part %d)", cur.Title, n),
			Description:       cur.Description,
			Status:            StatusTodo,
			Priority:          cur.Priority,
			Tags:              tags,
			DueDate:           cur.DueDate,
			EstimatedDuration: estimate,
			Dependencies:      append(StringList{}, cur.Dependencies...),
			Metadata:          meta,
			AssignedTo:        cur.AssignedTo,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
	}

	part1, err := s.store.CreateTask(ctx, makePart(1, (cur.EstimatedDuration+1)/2))
	if err != nil {
		return Task{}, err
	}
	part2, err := s.store.CreateTask(ctx, makePart(2, cur.EstimatedDuration/2))
	if err != nil {
		return Task{}, err
	}
	s.appendActivity(ctx, ownerID, &part1, ActivityStatusChange,
		fmt.Sprintf("Created by auto-split of %q", cur.Title))
	s.appendActivity(ctx, ownerID, &part2, ActivityStatusChange,
		fmt.Sprintf("Created by auto-split of %q", cur.Title))

	cur.Status = StatusCompleted
	cur.CompletionPercentage = 100
	cur.CompletedAt = &now
	cur.Metadata.SplitIntoTasks = []string{part1.ID, part2.ID}

	updated, err := s.store.UpdateTask(ctx, cur)
	if err != nil {
		return Task{}, err
	}
	s.appendActivity(ctx, ownerID, &updated, ActivitySplit,
		fmt.Sprintf("Split into %q and %q with %d%% of the work remaining", part1.Title, part2.Title, remaining))
	s.publish(ctx, ownerID)
	return updated, nil
}
