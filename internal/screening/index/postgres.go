package index

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"watchlist/internal/screening/match"
	"watchlist/internal/screening/models"
	"watchlist/internal/screening/store/subject"
)

const backendPostgres = "postgres"

// Postgres searches screening_subjects.search_vector, a tsvector over the
// normalized search_text column. Query terms are OR-ed prefix matches.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a full-text index over db.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Search(ctx context.Context, q Query) ([]models.Subject, error) {
	tsquery := PrefixQuery(q.Text)
	if tsquery == "" {
		return []models.Subject{}, nil
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT `+subject.Columns+`
		FROM screening_subjects
		WHERE search_vector @@ to_tsquery('simple', $1)
			AND ($2::text[] IS NULL OR subject_type = ANY($2::text[]))
			AND ($3::text[] IS NULL OR source = ANY($3::text[]))
			AND (NOT $4 OR NOT is_whitelisted)
		ORDER BY ts_rank(search_vector, to_tsquery('simple', $1)) DESC, id
		LIMIT $5`,
		tsquery, arrayOrNull(q.Filter.SubjectTypes), arrayOrNull(q.Filter.Sources),
		q.Filter.ExcludeWhitelisted, q.Limit,
	)
	if err != nil {
		return nil, NewRetrievalError(classify(err), backendPostgres, "search subjects", err)
	}
	defer rows.Close()

	out := make([]models.Subject, 0, q.Limit)
	for rows.Next() {
		s, err := subject.ScanSubject(rows)
		if err != nil {
			return nil, NewRetrievalError(ErrorBadData, backendPostgres, "scan subject", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, NewRetrievalError(classify(err), backendPostgres, "iterate subjects", err)
	}
	return out, nil
}

// PrefixQuery turns free text into a to_tsquery expression such as
// "ivan:* | petrov:*". Normalization leaves only letters, digits and single
// spaces, so no tsquery operator can reach the expression.
func PrefixQuery(text string) string {
	terms := strings.Fields(match.Normalize(text))
	for i, t := range terms {
		terms[i] = t + ":*"
	}
	return strings.Join(terms, " | ")
}

func arrayOrNull(values []string) any {
	if len(values) == 0 {
		return nil
	}
	return pq.Array(values)
}
