package database

import (
	"time"

	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
)

// SlowQueryThreshold is the duration above which a query is logged as slow.
const SlowQueryThreshold = 100 * time.Millisecond

// CheckAndLogSlowQuery checks if a query duration exceeds threshold
// and logs it using the slow query channel if it does
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration) {
	if duration > SlowQueryThreshold {
		logger.LogSlowQuery(query, duration)
	}
}
