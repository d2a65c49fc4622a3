// Package user provides the concrete SQL-based implementations of
// the user domain repositories (User, Action).
package user

import (
	"database/sql"
	"errors"
	"time"

	"github.com/AtRiskMedia/cmi-charts/internal/domain/user"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/persistence/database"
)

// SQLUserRepository is the SQL-based implementation of the UserRepository.
type SQLUserRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLUserRepository creates a new instance of the repository.
func NewSQLUserRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLUserRepository {
	return &SQLUserRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID retrieves a User by their unique identifier.
func (r *SQLUserRepository) FindByID(id string) (*user.User, error) {
	const query = `SELECT id, mail, password FROM users WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading user by ID", "id", id)

	u, err := scanUser(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Database().Debug("User not found by ID", "id", id)
			return nil, nil
		}
		r.logger.Database().Error("Failed to load user by ID", "error", err.Error(), "id", id)
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return u, nil
}

// FindByMail retrieves a User by their mail address.
func (r *SQLUserRepository) FindByMail(mail string) (*user.User, error) {
	const query = `SELECT id, mail, password FROM users WHERE mail = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading user by mail", "mail", mail)

	u, err := scanUser(r.db.QueryRow(query, mail))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Database().Debug("User not found by mail", "mail", mail)
			return nil, nil
		}
		r.logger.Database().Error("Failed to load user by mail", "error", err.Error(), "mail", mail)
		return nil, err
	}

	r.logger.Database().Info("User loaded by mail", "mail", mail, "userId", u.ID, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return u, nil
}

// Store saves a new User to the database.
func (r *SQLUserRepository) Store(u *user.User) error {
	const query = `INSERT INTO users (id, mail, password) VALUES (?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing user insert", "id", u.ID, "mail", u.Mail)

	if _, err := r.db.Exec(query, u.ID, u.Mail, u.PasswordHash); err != nil {
		r.logger.Database().Error("Failed to store user", "error", err.Error(), "mail", u.Mail)
		return err
	}

	r.logger.Database().Info("User stored", "id", u.ID, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

func scanUser(row *sql.Row) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Mail, &u.PasswordHash); err != nil {
		return nil, err
	}
	return &u, nil
}
