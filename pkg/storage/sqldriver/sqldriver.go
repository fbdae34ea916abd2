// Package sqldriver implements storage.Driver on database/sql. The sqlite
// and postgres packages open the connection and pick a Dialect.
package sqldriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/workcharge/charge/pkg/llm"
	"github.com/workcharge/charge/pkg/storage"
)

// Dialect captures the SQL differences between backends.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	failed     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_messages_session_idx ON chat_messages (session_id, id);
`

// Driver implements storage.Driver.
type Driver struct {
	DB      *sql.DB
	Dialect Dialect
}

// Migrate creates the schema if it does not exist.
func (d *Driver) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func (d *Driver) Append(ctx context.Context, sessionID string, msgs ...llm.ChatMessage) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	if len(msgs) == 0 {
		return nil
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, d.rebind(
		`INSERT INTO chat_messages (id, session_id, role, content, failed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range msgs {
		if _, err := stmt.ExecContext(ctx, m.ID, sessionID, string(m.Role), m.Content, m.Failed, m.CreatedAt.UnixNano()); err != nil {
			return fmt.Errorf("inserting message %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing messages: %w", err)
	}
	return nil
}

func (d *Driver) Messages(ctx context.Context, sessionID string) ([]llm.ChatMessage, error) {
	rows, err := d.DB.QueryContext(ctx, d.rebind(
		`SELECT id, role, content, failed, created_at FROM chat_messages
		 WHERE session_id = ? ORDER BY id`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []llm.ChatMessage
	for rows.Next() {
		var (
			m       llm.ChatMessage
			role    string
			created int64
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &m.Failed, &created); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = llm.Role(role)
		m.CreatedAt = time.Unix(0, created).UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	if len(msgs) == 0 {
		return nil, storage.ErrNotFound{SessionID: sessionID}
	}
	return msgs, nil
}

func (d *Driver) Sessions(ctx context.Context) ([]storage.SessionSummary, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT m.session_id, COUNT(*), MIN(m.created_at), MAX(m.created_at),
			COALESCE((SELECT f.content FROM chat_messages f
				WHERE f.session_id = m.session_id AND f.role = 'user'
				ORDER BY f.id LIMIT 1), '')
		FROM chat_messages m
		GROUP BY m.session_id
		ORDER BY MAX(m.created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []storage.SessionSummary
	for rows.Next() {
		var (
			s           storage.SessionSummary
			first, last int64
		)
		if err := rows.Scan(&s.SessionID, &s.MessageCount, &first, &last, &s.FirstPrompt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		s.StartedAt = time.Unix(0, first).UTC()
		s.UpdatedAt = time.Unix(0, last).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	return out, nil
}

func (d *Driver) Close() error {
	return d.DB.Close()
}

// rebind rewrites ? placeholders into $n for Postgres.
func (d *Driver) rebind(q string) string {
	if d.Dialect != Postgres {
		return q
	}

	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
