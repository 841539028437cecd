package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"idverse/internal/credential/models"
	dErrors "idverse/pkg/domain-errors"
)

const defaultPostgresTimeout = 3 * time.Second

// PostgresRegistry persists registry state in the vc_registry table. The
// BIGSERIAL column provides numeric ids; conditional updates make revocation
// atomic.
type PostgresRegistry struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
}

// PostgresOption configures a PostgresRegistry.
type PostgresOption func(*PostgresRegistry)

// WithQueryTimeout bounds each registry call.
func WithQueryTimeout(d time.Duration) PostgresOption {
	return func(r *PostgresRegistry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithPostgresClock overrides the transition clock.
func WithPostgresClock(now func() time.Time) PostgresOption {
	return func(r *PostgresRegistry) {
		if now != nil {
			r.now = now
		}
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresRegistry {
	r := &PostgresRegistry{db: db, timeout: defaultPostgresTimeout, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *PostgresRegistry) Register(ctx context.Context, in models.RegisterInput) (models.Receipt, error) {
	if err := validateRegister(in); err != nil {
		return models.Receipt{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	at := r.now().UTC()
	// The hash cannot include the numeric id before the insert assigns it.
	txHash := receiptHash(models.OperationRegister, in.ApplicationID, 0, in.ContentRef, at)

	var numericID uint64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO vc_registry (application_id, content_ref, issuer, issued_at, expires_at, registered_at, register_tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (application_id) DO NOTHING
		RETURNING numeric_id
	`, string(in.ApplicationID), in.ContentRef, in.Issuer, in.IssuedAt, nullTime(in.ExpiresAt), at, txHash).Scan(&numericID)
	if err == nil {
		return models.Receipt{
			TxHash:        txHash,
			Operation:     models.OperationRegister,
			ApplicationID: in.ApplicationID,
			NumericID:     numericID,
			At:            at,
		}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Receipt{}, unavailable(err, "register credential")
	}

	// Conflict: return the original mapping when the content matches.
	var (
		contentRef   string
		registeredAt time.Time
		existingHash string
	)
	err = r.db.QueryRowContext(ctx, `
		SELECT numeric_id, content_ref, registered_at, register_tx_hash
		FROM vc_registry
		WHERE application_id = $1
	`, string(in.ApplicationID)).Scan(&numericID, &contentRef, &registeredAt, &existingHash)
	if err != nil {
		return models.Receipt{}, unavailable(err, "load existing registration")
	}
	if contentRef != in.ContentRef {
		return models.Receipt{}, ErrDuplicateRegistration
	}
	return models.Receipt{
		TxHash:        existingHash,
		Operation:     models.OperationRegister,
		ApplicationID: in.ApplicationID,
		NumericID:     numericID,
		At:            registeredAt.UTC(),
	}, nil
}

func (r *PostgresRegistry) Revoke(ctx context.Context, ref models.RegistryRef, reason string) (models.Receipt, error) {
	if err := validateRef(ref); err != nil {
		return models.Receipt{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	column, arg := refColumn(ref)
	var (
		numericID uint64
		appID     string
	)
	err := r.db.QueryRowContext(ctx, `SELECT numeric_id, application_id FROM vc_registry WHERE `+column+` = $1`, arg).
		Scan(&numericID, &appID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Receipt{}, ErrNotFound
	}
	if err != nil {
		return models.Receipt{}, unavailable(err, "resolve credential")
	}

	at := r.now().UTC()
	txHash := receiptHash(models.OperationRevoke, models.CredentialID(appID), numericID, reason, at)
	res, err := r.db.ExecContext(ctx, `
		UPDATE vc_registry
		SET revoked = TRUE, revoked_at = $2, revocation_reason = $3, revoke_tx_hash = $4
		WHERE numeric_id = $1 AND revoked = FALSE
	`, numericID, at, reason, txHash)
	if err != nil {
		return models.Receipt{}, unavailable(err, "revoke credential")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Receipt{}, unavailable(err, "revoke credential")
	}
	if affected == 0 {
		return models.Receipt{}, ErrAlreadyRevoked
	}

	return models.Receipt{
		TxHash:        txHash,
		Operation:     models.OperationRevoke,
		ApplicationID: models.CredentialID(appID),
		NumericID:     numericID,
		At:            at,
		Reason:        reason,
	}, nil
}

func (r *PostgresRegistry) Status(ctx context.Context, ref models.RegistryRef) (models.RegistryStatus, error) {
	if err := validateRef(ref); err != nil {
		return models.RegistryStatus{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	column, arg := refColumn(ref)
	var (
		rec       models.RegistryRecord
		appID     string
		expiresAt sql.NullTime
		revokedAt sql.NullTime
		reason    sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT numeric_id, application_id, content_ref, issuer, issued_at, expires_at, revoked, revoked_at, revocation_reason
		FROM vc_registry
		WHERE `+column+` = $1
	`, arg).Scan(&rec.NumericID, &appID, &rec.ContentRef, &rec.Issuer, &rec.IssuedAt, &expiresAt, &rec.Revoked, &revokedAt, &reason)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RegistryStatus{}, nil
	}
	if err != nil {
		return models.RegistryStatus{}, unavailable(err, "read credential status")
	}

	rec.ApplicationID = models.CredentialID(appID)
	rec.IssuedAt = rec.IssuedAt.UTC()
	rec.ExpiresAt = fromNullTime(expiresAt)
	rec.RevokedAt = fromNullTime(revokedAt)
	rec.RevocationReason = reason.String
	return models.RegistryStatus{Registered: true, Revoked: rec.Revoked, Record: &rec}, nil
}

func (r *PostgresRegistry) ResolveNumericID(ctx context.Context, appID models.CredentialID) (uint64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var numericID uint64
	err := r.db.QueryRowContext(ctx, `SELECT numeric_id FROM vc_registry WHERE application_id = $1`, string(appID)).Scan(&numericID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, unavailable(err, "resolve numeric id")
	}
	return numericID, true, nil
}

func (r *PostgresRegistry) ResolveApplicationID(ctx context.Context, numericID uint64) (models.CredentialID, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var appID string
	err := r.db.QueryRowContext(ctx, `SELECT application_id FROM vc_registry WHERE numeric_id = $1`, numericID).Scan(&appID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable(err, "resolve application id")
	}
	return models.CredentialID(appID), true, nil
}

func refColumn(ref models.RegistryRef) (string, any) {
	if ref.IsNumeric() {
		return "numeric_id", ref.NumericID
	}
	return "application_id", string(ref.ApplicationID)
}

func unavailable(err error, op string) error {
	return dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, fmt.Sprintf("%s: registry unavailable", op))
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
