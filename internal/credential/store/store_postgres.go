package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"idverse/internal/credential/models"
)

// PostgresStore persists credential records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `SELECT id, type, subject_id, issuer, cid, numeric_id, issued_at, expires_at FROM vc_credentials`

func (s *PostgresStore) Save(ctx context.Context, record models.CredentialRecord) error {
	query := `
		INSERT INTO vc_credentials (id, type, subject_id, issuer, cid, numeric_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			subject_id = EXCLUDED.subject_id,
			issuer = EXCLUDED.issuer,
			cid = EXCLUDED.cid,
			numeric_id = EXCLUDED.numeric_id,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at
	`
	var expiresAt sql.NullTime
	if record.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *record.ExpiresAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query,
		string(record.ID),
		record.Type,
		record.SubjectID,
		record.Issuer,
		record.CID,
		int64(record.NumericID), //nolint:gosec // registry ids come from a BIGSERIAL
		record.IssuedAt,
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("save credential record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id models.CredentialID) (models.CredentialRecord, error) {
	record, err := scanRecord(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CredentialRecord{}, ErrNotFound
		}
		return models.CredentialRecord{}, fmt.Errorf("find credential by id: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) FindByCID(ctx context.Context, cid string) (models.CredentialRecord, error) {
	query := selectColumns + ` WHERE cid = $1 ORDER BY issued_at DESC LIMIT 1`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, cid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CredentialRecord{}, ErrNotFound
		}
		return models.CredentialRecord{}, fmt.Errorf("find credential by cid: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID string) ([]models.CredentialRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE subject_id = $1 ORDER BY issued_at DESC`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list credentials by subject: %w", err)
	}
	defer rows.Close()

	var out []models.CredentialRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential records: %w", err)
	}
	return out, nil
}

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(row recordRow) (models.CredentialRecord, error) {
	var (
		record    models.CredentialRecord
		id        string
		numericID int64
		expiresAt sql.NullTime
	)
	if err := row.Scan(&id, &record.Type, &record.SubjectID, &record.Issuer, &record.CID, &numericID, &record.IssuedAt, &expiresAt); err != nil {
		return models.CredentialRecord{}, err
	}
	record.ID = models.CredentialID(id)
	record.NumericID = uint64(numericID) //nolint:gosec // non-negative BIGSERIAL
	record.IssuedAt = record.IssuedAt.UTC()
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		record.ExpiresAt = &t
	}
	return record, nil
}
