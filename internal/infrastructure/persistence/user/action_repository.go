package user

import (
	"fmt"
	"time"

	"github.com/AtRiskMedia/cmi-charts/internal/domain/user"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/persistence/database"
)

// SQLActionRepository is the SQL-based implementation of the ActionRepository.
type SQLActionRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLActionRepository creates a new instance of the repository.
func NewSQLActionRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLActionRepository {
	return &SQLActionRepository{
		db:     db,
		logger: logger,
	}
}

// Record appends an audited action.
func (r *SQLActionRepository) Record(a *user.UserAction) error {
	const query = `
		INSERT INTO user_actions (id, user_id, action_id, remote_addr, http_user_agent, datetime)
		VALUES (?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Recording user action", "userId", a.UserID, "actionId", a.ActionID)

	_, err := r.db.Exec(query,
		a.ID,
		a.UserID,
		a.ActionID,
		a.RemoteAddr,
		a.HTTPUserAgent,
		a.Datetime.Format(user.DatetimeLayout),
	)
	if err != nil {
		r.logger.Database().Error("Failed to record user action", "error", err.Error(), "userId", a.UserID)
		return err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// ListByUser returns the actions of a user, oldest first.
func (r *SQLActionRepository) ListByUser(userID string) ([]*user.UserAction, error) {
	const query = `
		SELECT id, user_id, action_id, COALESCE(remote_addr, ''), COALESCE(http_user_agent, ''), datetime
		FROM user_actions
		WHERE user_id = ?
		ORDER BY datetime, id`

	start := time.Now()
	rows, err := r.db.Query(query, userID)
	if err != nil {
		r.logger.Database().Error("Failed to list user actions", "error", err.Error(), "userId", userID)
		return nil, err
	}
	defer rows.Close()

	var out []*user.UserAction
	for rows.Next() {
		var a user.UserAction
		var datetime string
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActionID, &a.RemoteAddr, &a.HTTPUserAgent, &datetime); err != nil {
			return nil, err
		}
		if a.Datetime, err = time.Parse(user.DatetimeLayout, datetime); err != nil {
			return nil, fmt.Errorf("invalid datetime %q for action %s: %w", datetime, a.ID, err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return out, nil
}
