package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/ports"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const categorySeparator = "/"

// SQLiteLedger records published topics in a SQLite database.
type SQLiteLedger struct {
	db *sql.DB
}

var _ ports.ArticleLedger = (*SQLiteLedger)(nil)

// OpenSQLiteLedger opens (or creates) the database at path and applies the
// pending migrations.
func OpenSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	ledger := NewSQLiteLedger(db)
	if err := ledger.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return ledger, nil
}

// NewSQLiteLedger wires an already opened database.
func NewSQLiteLedger(db *sql.DB) *SQLiteLedger {
	return &SQLiteLedger{db: db}
}

// Migrate applies every pending migration.
func (l *SQLiteLedger) Migrate() error {
	driver, err := sqlite.WithInstance(l.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migration driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases the database.
func (l *SQLiteLedger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// AlreadyPublished returns a map with the topics that already exist in storage.
func (l *SQLiteLedger) AlreadyPublished(ctx context.Context, topics []string) (map[string]bool, error) {
	if l.db == nil || len(topics) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := sq.Select("topic").
		From("published_articles").
		Where(sq.Eq{"topic": topics}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build published query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query published: %w", err)
	}

	result := make(map[string]bool)
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		result[topic] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// SavePublished upserts the published article row.
func (l *SQLiteLedger) SavePublished(ctx context.Context, article domain.PublishedArticle) error {
	if l.db == nil {
		return nil
	}

	publishedAt := article.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}

	query, args, err := sq.Insert("published_articles").
		Columns("topic", "run_id", "title", "link", "category", "published_at").
		Values(
			article.Topic,
			article.RunID,
			article.Title,
			article.Link,
			strings.Join(article.Category, categorySeparator),
			publishedAt.UTC(),
		).
		Suffix(`ON CONFLICT (topic) DO UPDATE
              SET run_id = excluded.run_id,
                  title = excluded.title,
                  link = excluded.link,
                  category = excluded.category,
                  published_at = excluded.published_at,
                  updated_at = CURRENT_TIMESTAMP`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert published: %w", err)
	}
	return nil
}

// Published returns the stored row for topic.
func (l *SQLiteLedger) Published(ctx context.Context, topic string) (domain.PublishedArticle, bool, error) {
	query, args, err := sq.Select("topic", "run_id", "title", "link", "category", "published_at").
		From("published_articles").
		Where(sq.Eq{"topic": topic}).
		ToSql()
	if err != nil {
		return domain.PublishedArticle{}, false, fmt.Errorf("build published query: %w", err)
	}

	var (
		row      domain.PublishedArticle
		category string
	)
	err = l.db.QueryRowContext(ctx, query, args...).Scan(&row.Topic, &row.RunID, &row.Title, &row.Link, &category, &row.PublishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PublishedArticle{}, false, nil
	}
	if err != nil {
		return domain.PublishedArticle{}, false, fmt.Errorf("load published %s: %w", topic, err)
	}
	if category != "" {
		row.Category = strings.Split(category, categorySeparator)
	}
	return row, true, nil
}
