package core

import (
	"context"
	"sort"
	"sync"
	"time"
)

// fakeStore is an in-memory Store for tests, mirroring the weak-consistency
// contract of the real adapter: clones in, clones out, last writer wins.
type fakeStore struct {
	mu sync.RWMutex

	seq        int
	tasks      map[string]map[string]Task // owner -> task id -> task
	activities map[string][]storedActivity
}

type storedActivity struct {
	Activity
	seq int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:      map[string]map[string]Task{},
		activities: map[string][]storedActivity{},
	}
}

func cloneTask(t Task) Task {
	out := t
	out.Tags = append(StringList{}, t.Tags...)
	out.Dependencies = append(StringList{}, t.Dependencies...)
	out.Metadata.SubtaskIDs = append([]string(nil), t.Metadata.SubtaskIDs...)
	out.Metadata.SkillRequirements = append([]string(nil), t.Metadata.SkillRequirements...)
	out.Metadata.SplitIntoTasks = append([]string(nil), t.Metadata.SplitIntoTasks...)
	out.Activities = nil
	out.LastActivity = nil
	return out
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) ListTasks(_ context.Context, ownerID string) ([]Task, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Task, 0, len(f.tasks[ownerID]))
	for _, t := range f.tasks[ownerID] {
		out = append(out, f.withActivities(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) GetTask(_ context.Context, ownerID, taskID string) (Task, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	t, ok := f.tasks[ownerID][taskID]
	if !ok {
		return Task{}, ErrNotFound
	}
	return f.withActivities(t), nil
}

func (f *fakeStore) CreateTask(_ context.Context, t Task) (Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tasks[t.OwnerID] == nil {
		f.tasks[t.OwnerID] = map[string]Task{}
	}
	f.tasks[t.OwnerID][t.ID] = cloneTask(t)
	return cloneTask(t), nil
}

func (f *fakeStore) UpdateTask(_ context.Context, t Task) (Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur, ok := f.tasks[t.OwnerID][t.ID]
	if !ok {
		return Task{}, ErrNotFound
	}

	t.CreatedAt = cur.CreatedAt
	now := time.Now()
	if !now.After(cur.UpdatedAt) {
		now = cur.UpdatedAt.Add(time.Millisecond)
	}
	t.UpdatedAt = now
	f.tasks[t.OwnerID][t.ID] = cloneTask(t)
	return f.withActivities(t), nil
}

func (f *fakeStore) DeleteTask(_ context.Context, ownerID, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tasks[ownerID][taskID]; !ok {
		return ErrNotFound
	}
	delete(f.tasks[ownerID], taskID)
	delete(f.activities, taskID)
	return nil
}

func (f *fakeStore) AppendActivity(_ context.Context, ownerID, taskID string, a Activity) (Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tasks[ownerID][taskID]; !ok {
		return Activity{}, ErrNotFound
	}
	f.seq++
	a.TaskID = taskID
	f.activities[taskID] = append(f.activities[taskID], storedActivity{Activity: a, seq: f.seq})
	return a, nil
}

func (f *fakeStore) ListActivities(_ context.Context, ownerID, taskID string, limit int) ([]Activity, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if _, ok := f.tasks[ownerID][taskID]; !ok {
		return nil, ErrNotFound
	}

	stored := f.activities[taskID]
	out := make([]Activity, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i].Activity)
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListRecentActivities(_ context.Context, ownerID string, limit int) ([]Activity, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var all []storedActivity
	for taskID := range f.tasks[ownerID] {
		all = append(all, f.activities[taskID]...)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].seq > all[j].seq
	})

	out := make([]Activity, 0, len(all))
	for _, a := range all {
		out = append(out, a.Activity)
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// withActivities mirrors the real adapter: tasks come back with their trail
// in append order plus the denormalized last activity. Callers hold the lock.
func (f *fakeStore) withActivities(t Task) Task {
	out := cloneTask(t)
	stored := f.activities[t.ID]
	for _, a := range stored {
		out.Activities = append(out.Activities, a.Activity)
	}
	if n := len(stored); n > 0 {
		last := stored[n-1].Activity
		out.LastActivity = &last
	}
	return out
}

// fakeNotifier records advisories for assertions.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (f *fakeNotifier) Notify(_ context.Context, _ string, n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

func (f *fakeNotifier) byKind(kind NotificationKind) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Notification
	for _, n := range f.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// fakeProfiles serves one fixed profile for every owner.
type fakeProfiles struct {
	prof Profile
	err  error
}

func (f fakeProfiles) Get(_ context.Context, userID string) (Profile, error) {
	if f.err != nil {
		return Profile{}, f.err
	}
	p := f.prof
	p.UserID = userID
	return p, nil
}
