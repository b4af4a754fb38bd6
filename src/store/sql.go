package store

import (
	"context"
	"database/sql"
	"fmt"

	"jenkins-notify-bot/src/contracts"
)

// loadRows reads every (job_name, last_updated, last_status) row returned by query.
func loadRows(ctx context.Context, db *sql.DB, query string) (map[string]contracts.BuildStatus, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query build status: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]contracts.BuildStatus)
	for rows.Next() {
		var name, updated, status string
		if err := rows.Scan(&name, &updated, &status); err != nil {
			return nil, fmt.Errorf("failed to scan build status: %w", err)
		}
		result, err := contracts.ParseBuildResult(status)
		if err != nil {
			return nil, fmt.Errorf("%w: job %q: %v", ErrMalformedLine, name, err)
		}
		statuses[name] = contracts.BuildStatus{
			JobName:     name,
			LastUpdated: updated,
			LastStatus:  result,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating build status: %w", err)
	}

	return statuses, nil
}

// replaceRows deletes every row and inserts statuses inside one transaction.
func replaceRows(ctx context.Context, db *sql.DB, deleteQuery, insertQuery string, statuses map[string]contracts.BuildStatus) error {
	if err := validateAll(statuses); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteQuery); err != nil {
		return fmt.Errorf("failed to clear build status: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, st := range statuses {
		if _, err := stmt.ExecContext(ctx, st.JobName, st.LastUpdated, string(st.LastStatus)); err != nil {
			return fmt.Errorf("failed to save status for %s: %w", st.JobName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit build status: %w", err)
	}
	return nil
}
