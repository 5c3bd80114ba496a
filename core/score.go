package core

import (
	"context"
	"fmt"
	"sort"
)

// scoreTask is the additive fit heuristic. Conditions contribute
// independently and the total is capped at 100:
//
//	+30 every skill requirement present in the owner's skill set
//	    (vacuously satisfied when none are declared)
//	+20 owner's in-progress count below their workload threshold
//	+25 / +15 category accuracy above 0.9 / 0.8 (higher tier wins)
//	+25 average completion time below this task's estimate
func scoreTask(t Task, prof Profile, inProgress int) int {
	score := 0

	if skillsSatisfied(t.Metadata.SkillRequirements, prof.Skills) {
		score += 30
	}
	if prof.WorkloadThreshold > 0 && inProgress < prof.WorkloadThreshold {
		score += 20
	}

	hist := t.Metadata.PerformanceHistory
	switch {
	case hist.AccuracyRate > 0.9:
		score += 25
	case hist.AccuracyRate > 0.8:
		score += 15
	}
	if hist.AverageCompletionTime > 0 && hist.AverageCompletionTime < t.EstimatedDuration {
		score += 25
	}

	if score > 100 {
		score = 100
	}
	return score
}

func skillsSatisfied(required, owned []string) bool {
	for _, r := range required {
		found := false
		for _, o := range owned {
			if o == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// PersonalizationScore computes the 0-100 fit score for one task and writes
// it back to the task's metadata opportunistically. The stored score may be
// stale at any time; callers must tolerate that.
func (s *Service) PersonalizationScore(ctx context.Context, ownerID, taskID string) (int, error) {
	t, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return 0, err
	}
	prof, err := s.profiles.Get(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("resolve profile: %w", err)
	}
	inProgress, err := s.countInProgress(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	score := scoreTask(t, prof, inProgress)

	if t.Metadata.PersonalizationScore != score {
		t.Metadata.PersonalizationScore = score
		if _, err := s.store.UpdateTask(ctx, t); err != nil {
			s.log.Debug("score write-back skipped", "task", t.ID, "error", err)
		}
	}
	return score, nil
}

// RecommendedTasks returns the owner's open tasks ordered by fit score,
// best first, truncated to limit when limit > 0.
func (s *Service) RecommendedTasks(ctx context.Context, ownerID string, limit int) ([]Task, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: empty owner id", ErrInvalidArgument)
	}

	tasks, err := s.store.ListTasks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	prof, err := s.profiles.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("resolve profile: %w", err)
	}

	inProgress := 0
	for _, t := range tasks {
		if t.Status == StatusInProgress {
			inProgress++
		}
	}

	open := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == StatusCompleted {
			continue
		}
		t.Metadata.PersonalizationScore = scoreTask(t, prof, inProgress)
		open = append(open, t)
	}

	sort.SliceStable(open, func(i, j int) bool {
		return open[i].Metadata.PersonalizationScore > open[j].Metadata.PersonalizationScore
	})

	if limit > 0 && limit < len(open) {
		open = open[:limit]
	}
	return open, nil
}

func (s *Service) countInProgress(ctx context.Context, ownerID string) (int, error) {
	tasks, err := s.store.ListTasks(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range tasks {
		if t.Status == StatusInProgress {
			n++
		}
	}
	return n, nil
}
