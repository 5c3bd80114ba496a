package db

import (
	_ "embed"
	"fmt"
)

//go:embed migrations/01_create_tasks.up.sql
var createTasksUp string

//go:embed migrations/02_create_activities.up.sql
var createActivitiesUp string

// Migrate applies the schema for the lifecycle engine.
func (db *DB) Migrate() error {
	db.log.Debug("running taskflow migrations")

	if _, err := db.conn.Exec(createTasksUp); err != nil {
		return fmt.Errorf("apply tasks migration: %w", err)
	}
	if _, err := db.conn.Exec(createActivitiesUp); err != nil {
		return fmt.Errorf("apply activities migration: %w", err)
	}

	db.log.Debug("taskflow migrations finished")
	return nil
}
