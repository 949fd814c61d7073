package screeninglog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"watchlist/internal/screening/models"
	"watchlist/pkg/requestcontext"
)

// PostgresStore persists log entries in the screening_logs table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed log store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry models.LogEntry) (models.LogEntry, error) {
	entry.CreatedAt = requestcontext.Now(ctx)
	if entry.ScreeningDate.IsZero() {
		entry.ScreeningDate = entry.CreatedAt
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO screening_logs (user_id, search_string, screening_type, is_match, screening_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		entry.UserID, entry.SearchString, entry.ScreeningType, entry.IsMatch, entry.ScreeningDate, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("append screening log: %w", err)
	}
	return entry, nil
}

// List runs the count and page queries concurrently.
func (s *PostgresStore) List(ctx context.Context, filter models.LogFilter) (*models.LogPage, error) {
	filter = Normalize(filter)
	where, args := whereClause(filter)

	page := &models.LogPage{Items: []models.LogEntry{}, Limit: filter.Limit, Offset: filter.Offset}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		row := s.db.QueryRowContext(gctx, `SELECT COUNT(*) FROM screening_logs`+where, args...)
		if err := row.Scan(&page.Total); err != nil {
			return fmt.Errorf("count screening logs: %w", err)
		}
		return nil
	})

	var items []models.LogEntry
	g.Go(func() error {
		pageArgs := append(append([]any(nil), args...), filter.Limit, skip(filter))
		query := fmt.Sprintf(`
			SELECT id, user_id, search_string, screening_type, is_match, screening_date, created_at
			FROM screening_logs%s
			ORDER BY screening_date DESC, id DESC
			LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

		rows, err := s.db.QueryContext(gctx, query, pageArgs...)
		if err != nil {
			return fmt.Errorf("list screening logs: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var e models.LogEntry
			if err := rows.Scan(&e.ID, &e.UserID, &e.SearchString, &e.ScreeningType, &e.IsMatch, &e.ScreeningDate, &e.CreatedAt); err != nil {
				return fmt.Errorf("scan screening log: %w", err)
			}
			items = append(items, e)
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if items != nil {
		page.Items = items
	}
	return page, nil
}

func whereClause(f models.LogFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.ScreeningType != "" {
		add("screening_type = $%d", f.ScreeningType)
	}
	if f.IsMatch != nil {
		add("is_match = $%d", *f.IsMatch)
	}
	if f.Search != "" {
		add("search_string ILIKE $%d", "%"+escapeLike(f.Search)+"%")
	}
	if f.DateFrom != nil {
		add("screening_date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("screening_date < $%d", *f.DateTo)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
