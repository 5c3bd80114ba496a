package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"taskflow/core"
)

const taskColumns = `id, owner_id, title, description, status, priority, tags, due_date,
	estimated_minutes, actual_minutes, total_elapsed_ms, timer_running, started_at,
	completion_pct, dependencies, recurring, metadata, assigned_to, completed_at,
	created_at, updated_at`

type DB struct {
	log  *slog.Logger
	conn *sqlx.DB
}

func New(log *slog.Logger, address string) (*DB, error) {
	conn, err := sqlx.Connect("pgx", address)
	if err != nil {
		log.Error("connection problem", "address", address, "error", err)
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return &DB{log: log, conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (db *DB) ListTasks(ctx context.Context, ownerID string) ([]core.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY created_at ASC`

	var out []core.Task
	if err := db.conn.SelectContext(ctx, &out, q, ownerID); err != nil {
		return nil, wrapErr("list tasks", err)
	}
	if err := db.attachLastActivities(ctx, ownerID, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (db *DB) GetTask(ctx context.Context, ownerID, taskID string) (core.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 AND id = $2`

	var t core.Task
	if err := db.conn.GetContext(ctx, &t, q, ownerID, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Task{}, core.ErrNotFound
		}
		return core.Task{}, wrapErr("get task", err)
	}

	activities, err := db.ListActivities(ctx, ownerID, taskID, 0)
	if err != nil {
		return core.Task{}, err
	}
	// Stored newest-first; the task carries them in append order.
	for i := len(activities) - 1; i >= 0; i-- {
		t.Activities = append(t.Activities, activities[i])
	}
	if len(activities) > 0 {
		t.LastActivity = &activities[0]
	}
	return t, nil
}

func (db *DB) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	const q = `
		INSERT INTO tasks(id, owner_id, title, description, status, priority, tags, due_date,
			estimated_minutes, actual_minutes, total_elapsed_ms, timer_running, started_at,
			completion_pct, dependencies, recurring, metadata, assigned_to, completed_at,
			created_at, updated_at)
		VALUES (:id, :owner_id, :title, :description, :status, :priority, :tags, :due_date,
			:estimated_minutes, :actual_minutes, :total_elapsed_ms, :timer_running, :started_at,
			:completion_pct, :dependencies, :recurring, :metadata, :assigned_to, :completed_at,
			:created_at, :updated_at);
	`

	if _, err := db.conn.NamedExecContext(ctx, q, t); err != nil {
		if isCheckViolation(err) {
			return core.Task{}, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err)
		}
		return core.Task{}, wrapErr("insert task", err)
	}
	return t, nil
}

func (db *DB) UpdateTask(ctx context.Context, t core.Task) (core.Task, error) {
	const q = `
		UPDATE tasks
		SET title = :title,
		    description = :description,
		    status = :status,
		    priority = :priority,
		    tags = :tags,
		    due_date = :due_date,
		    estimated_minutes = :estimated_minutes,
		    actual_minutes = :actual_minutes,
		    total_elapsed_ms = :total_elapsed_ms,
		    timer_running = :timer_running,
		    started_at = :started_at,
		    completion_pct = :completion_pct,
		    dependencies = :dependencies,
		    recurring = :recurring,
		    metadata = :metadata,
		    assigned_to = :assigned_to,
		    completed_at = :completed_at,
		    updated_at = now()
		WHERE owner_id = :owner_id AND id = :id;
	`

	res, err := db.conn.NamedExecContext(ctx, q, t)
	if err != nil {
		if isCheckViolation(err) {
			return core.Task{}, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err)
		}
		return core.Task{}, wrapErr("update task", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return core.Task{}, core.ErrNotFound
	}

	return db.GetTask(ctx, t.OwnerID, t.ID)
}

func (db *DB) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	const q = `DELETE FROM tasks WHERE owner_id = $1 AND id = $2`

	res, err := db.conn.ExecContext(ctx, q, ownerID, taskID)
	if err != nil {
		return wrapErr("delete task", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Activities

func (db *DB) AppendActivity(ctx context.Context, ownerID, taskID string, a core.Activity) (core.Activity, error) {
	const q = `
		INSERT INTO activities(id, task_id, owner_id, type, details, created_at)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (SELECT 1 FROM tasks WHERE owner_id = $3 AND id = $2);
	`

	res, err := db.conn.ExecContext(ctx, q, a.ID, taskID, ownerID, string(a.Type), a.Details, a.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.Activity{}, core.ErrNotFound
		}
		return core.Activity{}, wrapErr("append activity", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return core.Activity{}, core.ErrNotFound
	}
	a.TaskID = taskID
	return a, nil
}

func (db *DB) ListActivities(ctx context.Context, ownerID, taskID string, limit int) ([]core.Activity, error) {
	q := `
		SELECT id, task_id, type, details, created_at
		FROM activities
		WHERE owner_id = $1 AND task_id = $2
		ORDER BY created_at DESC, id DESC
	`
	args := []any{ownerID, taskID}
	if limit > 0 {
		q += ` LIMIT $3`
		args = append(args, limit)
	}

	var out []core.Activity
	if err := db.conn.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, wrapErr("list activities", err)
	}
	return out, nil
}

func (db *DB) ListRecentActivities(ctx context.Context, ownerID string, limit int) ([]core.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT id, task_id, type, details, created_at
		FROM activities
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2;
	`

	var out []core.Activity
	if err := db.conn.SelectContext(ctx, &out, q, ownerID, limit); err != nil {
		return nil, wrapErr("list recent activities", err)
	}
	return out, nil
}

func (db *DB) attachLastActivities(ctx context.Context, ownerID string, tasks []core.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	const q = `
		SELECT DISTINCT ON (task_id) id, task_id, type, details, created_at
		FROM activities
		WHERE owner_id = $1
		ORDER BY task_id, created_at DESC, id DESC;
	`

	var latest []core.Activity
	if err := db.conn.SelectContext(ctx, &latest, q, ownerID); err != nil {
		return wrapErr("load last activities", err)
	}

	byTask := make(map[string]core.Activity, len(latest))
	for _, a := range latest {
		byTask[a.TaskID] = a
	}
	for i := range tasks {
		if a, ok := byTask[tasks[i].ID]; ok {
			last := a
			tasks[i].LastActivity = &last
		}
	}
	return nil
}

// pg helpers

func wrapErr(op string, err error) error {
	if isConnectionFailure(err) {
		return fmt.Errorf("%s: %w: %v", op, core.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnectionFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08") {
		return true
	}
	return errors.Is(err, driver.ErrBadConn)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}
