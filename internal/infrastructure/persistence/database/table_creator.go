package database

import (
	"database/sql"
	"fmt"
)

// TableCreator builds the user and audit schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedInitialContent idempotently inserts the audited action kinds.
func (tc *TableCreator) SeedInitialContent(db *sql.DB) error {
	for _, a := range seedActions {
		_, err := db.Exec(`INSERT OR IGNORE INTO actions (id, name, description) VALUES (?, ?, ?)`, a.id, a.name, a.description)
		if err != nil {
			return fmt.Errorf("failed to seed action %s: %w", a.name, err)
		}
	}
	return nil
}

// Initialize creates the schema and seeds it.
func (tc *TableCreator) Initialize(db *sql.DB) error {
	if err := tc.CreateSchema(db); err != nil {
		return err
	}
	return tc.SeedInitialContent(db)
}

var seedActions = []struct {
	id          int
	name        string
	description string
}{
	{1, "login", "Accesso dell'utente all'applicazione"},
	{2, "logout", "Uscita dell'utente dall'applicazione"},
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (id TEXT PRIMARY KEY, mail TEXT NOT NULL UNIQUE, password TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS actions (id INTEGER PRIMARY KEY, name TEXT NOT NULL, description TEXT)`,
	`CREATE TABLE IF NOT EXISTS user_actions (id TEXT PRIMARY KEY, user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE, action_id INTEGER NOT NULL REFERENCES actions(id), remote_addr TEXT, http_user_agent TEXT, datetime TEXT NOT NULL)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_users_mail ON users(mail)`,
	`CREATE INDEX IF NOT EXISTS idx_user_actions_user_id ON user_actions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_actions_action_id ON user_actions(action_id)`,
}
