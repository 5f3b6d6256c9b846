package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const historyTable = "sent_links"

// SQLHistory persists delivered links into a relational table shared by the
// SQLite and Postgres backends.
type SQLHistory struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.HistoryStore = (*SQLHistory)(nil)

// NewSQLHistory wires a sql.DB with the dialect placeholder format.
func NewSQLHistory(db *sql.DB, placeholder sq.PlaceholderFormat) *SQLHistory {
	return &SQLHistory{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// EnsureSchema creates the history table when it does not exist.
func (s *SQLHistory) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+historyTable+` (
		link TEXT PRIMARY KEY,
		sent_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create %s: %w", historyTable, err)
	}
	return nil
}

// Load returns every recorded link.
func (s *SQLHistory) Load(ctx context.Context) (domain.LinkSet, error) {
	query, args, err := s.builder.Select("link").From(historyTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	links := domain.NewLinkSet()
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links.Add(link)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return links, nil
}

// Append inserts links in one statement; already recorded links are ignored.
func (s *SQLHistory) Append(ctx context.Context, links []string) error {
	insert := s.builder.Insert(historyTable).Columns("link")
	n := 0
	for _, link := range links {
		if link = strings.TrimSpace(link); link == "" {
			continue
		}
		insert = insert.Values(link)
		n++
	}
	if n == 0 {
		return nil
	}

	query, args, err := insert.Suffix("ON CONFLICT (link) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *SQLHistory) Close() error {
	return s.db.Close()
}
