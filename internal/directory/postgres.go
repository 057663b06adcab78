// internal/directory/postgres.go
package directory

import (
	"context"
	"database/sql"
	"fmt"

	"njangi/internal/association"
)

// Postgres reads selectable members from the users table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a directory backed by db. The driver is registered by
// the caller (lib/pq).
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// ListMembers returns active users ordered by username.
func (p *Postgres) ListMembers(ctx context.Context) ([]association.Member, error) {
	query := `
		SELECT id, username, COALESCE(avatar_url, '')
		FROM users
		WHERE status = 'active'
		ORDER BY username ASC
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	members := []association.Member{}
	for rows.Next() {
		var m association.Member
		if err := rows.Scan(&m.ID, &m.Username, &m.Avatar); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return members, nil
}
