package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// appendActivity is the single funnel every mutation narrates through. The
// append happens after the field write and is not transactional with it;
// a crash in between leaves state updated with a missing audit entry, which
// is accepted: the trail is best-effort, not a source of truth.
func (s *Service) appendActivity(ctx context.Context, ownerID string, t *Task, typ ActivityType, details string) {
	a := Activity{
		ID:        uuid.NewString(),
		TaskID:    t.ID,
		Type:      typ,
		Details:   details,
		CreatedAt: s.now(),
	}
	stored, err := s.store.AppendActivity(ctx, ownerID, t.ID, a)
	if err != nil {
		s.log.Warn("activity append failed", "task", t.ID, "type", typ, "error", err)
		return
	}
	t.Activities = append(t.Activities, stored)
	t.LastActivity = &stored
}

// AppendActivity records an externally produced audit entry, e.g. a
// cost_approval coming from the approval collaborator.
func (s *Service) AppendActivity(ctx context.Context, ownerID, taskID string, typ ActivityType, details string) (Activity, error) {
	if ownerID == "" || taskID == "" {
		return Activity{}, fmt.Errorf("%w: empty id", ErrInvalidArgument)
	}
	a := Activity{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Type:      typ,
		Details:   details,
		CreatedAt: s.now(),
	}
	return s.store.AppendActivity(ctx, ownerID, taskID, a)
}

// AddComment narrates a posted comment. The comment body itself lives in the
// external comment store; only the audit entry passes through the engine.
func (s *Service) AddComment(ctx context.Context, ownerID, taskID, author, text string) (Activity, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Activity{}, fmt.Errorf("%w: empty comment", ErrInvalidArgument)
	}
	details := text
	if author != "" {
		details = fmt.Sprintf("%s: %s", author, text)
	}
	return s.AppendActivity(ctx, ownerID, taskID, ActivityComment, details)
}

// History returns a task's activities newest-first, truncated to limit.
func (s *Service) History(ctx context.Context, ownerID, taskID string, limit int) ([]Activity, error) {
	if ownerID == "" || taskID == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidArgument)
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", ErrInvalidArgument)
	}
	return s.store.ListActivities(ctx, ownerID, taskID, limit)
}

// RecentActivity flattens every task's trail for the owner into one feed,
// newest-first, truncated to limit.
func (s *Service) RecentActivity(ctx context.Context, ownerID string, limit int) ([]Activity, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: empty owner id", ErrInvalidArgument)
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", ErrInvalidArgument)
	}
	return s.store.ListRecentActivities(ctx, ownerID, limit)
}

func formatMinutes(ms int64) string {
	min := time.Duration(ms) * time.Millisecond / time.Minute
	return fmt.Sprintf("%d min", min)
}
