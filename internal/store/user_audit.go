package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/model"
)

// DefaultUserAuditLimit is how many user audit entries are listed by default.
const DefaultUserAuditLimit = 100

// InsertUserAuditLog appends one user administration record.
func InsertUserAuditLog(ctx context.Context, q Querier, l *model.UserAuditLog) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO user_audit_logs (actor, target_user, timestamp, action, details, old_value, new_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.Actor, l.TargetUser, l.Timestamp, l.Action, l.Details, l.OldValue, l.NewValue,
	)
	if err != nil {
		return 0, fmt.Errorf("recording user audit log: %w", err)
	}
	return result.LastInsertId()
}

// ListUserAuditLogs returns the newest limit entries, newest first. A
// non-positive limit uses DefaultUserAuditLimit.
func ListUserAuditLogs(ctx context.Context, q Querier, limit int) ([]model.UserAuditLog, error) {
	if limit <= 0 {
		limit = DefaultUserAuditLimit
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, actor, target_user, timestamp, action, details, old_value, new_value
		 FROM user_audit_logs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing user audit logs: %w", err)
	}
	defer rows.Close()

	var logs []model.UserAuditLog
	for rows.Next() {
		var l model.UserAuditLog
		var details, oldValue, newValue sql.NullString
		if err := rows.Scan(&l.ID, &l.Actor, &l.TargetUser, &l.Timestamp, &l.Action, &details, &oldValue, &newValue); err != nil {
			return nil, fmt.Errorf("scanning user audit log: %w", err)
		}
		l.Details = details.String
		l.OldValue = nullString(oldValue)
		l.NewValue = nullString(newValue)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
