package subject

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"watchlist/internal/screening/models"
	"watchlist/pkg/platform/sentinel"
	"watchlist/pkg/requestcontext"
)

// Columns is the select list shared by every query returning subjects,
// including the full-text index. Scan with ScanSubject.
const Columns = `id, source, source_record_id, COALESCE(source_reference, ''), subject_type, name,
	COALESCE(name_original_script, ''), COALESCE(aliases, '[]'::jsonb), COALESCE(gender, ''),
	COALESCE(dob, ''), COALESCE(pob, ''), COALESCE(nationality, ''), COALESCE(address, ''),
	COALESCE(sanctions, ''), listed_on, COALESCE(remarks, ''), COALESCE(other_information, ''),
	is_whitelisted, whitelisted_at, COALESCE(whitelist_reason, ''), COALESCE(record_hash, ''),
	created_at, updated_at`

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanSubject reads one row selected with Columns.
func ScanSubject(row Scanner) (models.Subject, error) {
	var (
		s             models.Subject
		aliases       []byte
		listedOn      sql.NullTime
		whitelistedAt sql.NullTime
	)
	err := row.Scan(
		&s.ID, &s.Source, &s.SourceRecordID, &s.SourceReference, &s.SubjectType, &s.Name,
		&s.NameOriginalScript, &aliases, &s.Gender,
		&s.DOB, &s.POB, &s.Nationality, &s.Address,
		&s.Sanctions, &listedOn, &s.Remarks, &s.OtherInformation,
		&s.IsWhitelisted, &whitelistedAt, &s.WhitelistReason, &s.RecordHash,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return models.Subject{}, err
	}
	if len(aliases) > 0 {
		if err := json.Unmarshal(aliases, &s.Aliases); err != nil {
			return models.Subject{}, fmt.Errorf("decode aliases of subject %d: %w", s.ID, err)
		}
	}
	if listedOn.Valid {
		t := listedOn.Time
		s.ListedOn = &t
	}
	if whitelistedAt.Valid {
		t := whitelistedAt.Time
		s.WhitelistedAt = &t
	}
	return s, nil
}

// PostgresStore persists subjects in the screening_subjects table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed subject store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, subject models.Subject) (models.Subject, bool, error) {
	if err := validate(subject); err != nil {
		return models.Subject{}, false, err
	}
	aliases, err := json.Marshal(nonNil(subject.Aliases))
	if err != nil {
		return models.Subject{}, false, fmt.Errorf("encode aliases: %w", err)
	}
	now := requestcontext.Now(ctx)
	var whitelistedAt, whitelistReason any
	if subject.IsWhitelisted {
		whitelistedAt, whitelistReason = now, subject.WhitelistReason
		if subject.WhitelistedAt != nil {
			whitelistedAt = *subject.WhitelistedAt
		}
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO screening_subjects (
			source, source_record_id, source_reference, subject_type, name, name_original_script,
			aliases, gender, dob, pob, nationality, address, sanctions, listed_on, remarks,
			other_information, record_hash, search_text, created_at, updated_at,
			is_whitelisted, whitelisted_at, whitelist_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19, $20, $21, $22)
		ON CONFLICT (source, source_record_id) DO UPDATE SET
			source_reference = EXCLUDED.source_reference,
			subject_type = EXCLUDED.subject_type,
			name = EXCLUDED.name,
			name_original_script = EXCLUDED.name_original_script,
			aliases = EXCLUDED.aliases,
			gender = EXCLUDED.gender,
			dob = EXCLUDED.dob,
			pob = EXCLUDED.pob,
			nationality = EXCLUDED.nationality,
			address = EXCLUDED.address,
			sanctions = EXCLUDED.sanctions,
			listed_on = EXCLUDED.listed_on,
			remarks = EXCLUDED.remarks,
			other_information = EXCLUDED.other_information,
			record_hash = EXCLUDED.record_hash,
			search_text = EXCLUDED.search_text,
			updated_at = EXCLUDED.updated_at
		WHERE screening_subjects.record_hash IS DISTINCT FROM EXCLUDED.record_hash
			OR EXCLUDED.record_hash = ''
		RETURNING id`,
		subject.Source, subject.SourceRecordID, subject.SourceReference, subject.SubjectType,
		subject.Name, subject.NameOriginalScript, string(aliases), subject.Gender, subject.DOB, subject.POB,
		subject.Nationality, subject.Address, subject.Sanctions, subject.ListedOn, subject.Remarks,
		subject.OtherInformation, subject.RecordHash, SearchText(subject), now,
		subject.IsWhitelisted, whitelistedAt, whitelistReason,
	).Scan(&id)

	changed := true
	if errors.Is(err, sql.ErrNoRows) {
		// Hash unchanged: the conflict update was skipped.
		changed = false
		err = s.db.QueryRowContext(ctx,
			`SELECT id FROM screening_subjects WHERE source = $1 AND source_record_id = $2`,
			subject.Source, subject.SourceRecordID,
		).Scan(&id)
	}
	if err != nil {
		return models.Subject{}, false, fmt.Errorf("upsert subject: %w", err)
	}

	stored, err := s.FindByID(ctx, id)
	if err != nil {
		return models.Subject{}, false, err
	}
	return *stored, changed, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+Columns+` FROM screening_subjects WHERE id = $1`, id)
	subject, err := ScanSubject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subject %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &subject, nil
}

func (s *PostgresStore) SetWhitelisted(ctx context.Context, id int64, whitelisted bool, reason string) (*models.Subject, error) {
	now := requestcontext.Now(ctx)
	var at, reasonArg any
	if whitelisted {
		at, reasonArg = now, reason
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE screening_subjects
		SET is_whitelisted = $2, whitelisted_at = $3, whitelist_reason = $4, updated_at = $5
		WHERE id = $1`,
		id, whitelisted, at, reasonArg, now,
	)
	if err != nil {
		return nil, fmt.Errorf("set whitelist: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("subject %d: %w", id, sentinel.ErrNotFound)
	}
	return s.FindByID(ctx, id)
}

func (s *PostgresStore) All(ctx context.Context) ([]models.Subject, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+Columns+` FROM screening_subjects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var out []models.Subject
	for rows.Next() {
		subject, err := ScanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		out = append(out, subject)
	}
	return out, rows.Err()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
