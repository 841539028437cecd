package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"idverse/internal/credential/models"
)

const selectRequestColumns = `SELECT id, credential_type, subject_id, claims, requested_by, status, created_at, expires_at, approved_at, approved_by, credential_id FROM vc_credential_requests`

func (s *PostgresStore) SaveRequest(ctx context.Context, req models.CredentialRequest) error {
	claims := req.Claims
	if claims == nil {
		claims = models.Claims{}
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("encode request claims: %w", err)
	}
	var approvedAt sql.NullTime
	if req.ApprovedAt != nil {
		approvedAt = sql.NullTime{Time: *req.ApprovedAt, Valid: true}
	}
	query := `
		INSERT INTO vc_credential_requests (id, credential_type, subject_id, claims, requested_by, status, created_at, expires_at, approved_at, approved_by, credential_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''))
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			approved_at = EXCLUDED.approved_at,
			approved_by = EXCLUDED.approved_by,
			credential_id = EXCLUDED.credential_id
	`
	_, err = s.db.ExecContext(ctx, query,
		string(req.ID),
		req.CredentialType,
		req.SubjectID,
		string(claimsJSON),
		req.RequestedBy,
		string(req.Status),
		req.CreatedAt,
		req.ExpiresAt,
		approvedAt,
		req.ApprovedBy,
		string(req.CredentialID),
	)
	if err != nil {
		return fmt.Errorf("save credential request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindRequest(ctx context.Context, id models.CredentialRequestID) (models.CredentialRequest, error) {
	req, err := scanRequest(s.db.QueryRowContext(ctx, selectRequestColumns+` WHERE id = $1`, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CredentialRequest{}, ErrRequestNotFound
		}
		return models.CredentialRequest{}, fmt.Errorf("find credential request: %w", err)
	}
	return req, nil
}

// MarkRequestIssued relies on the status predicate so concurrent approvals
// cannot both succeed.
func (s *PostgresStore) MarkRequestIssued(ctx context.Context, id models.CredentialRequestID, credentialID models.CredentialID, approvedBy string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vc_credential_requests
		SET status = $2, approved_at = $3, approved_by = $4, credential_id = $5
		WHERE id = $1 AND status = $6
	`, string(id), string(models.RequestIssued), at, approvedBy, string(credentialID), string(models.RequestPending))
	if err != nil {
		return fmt.Errorf("mark credential request issued: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark credential request issued: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := s.FindRequest(ctx, id); err != nil {
		return err
	}
	return ErrRequestNotPending
}

func scanRequest(row recordRow) (models.CredentialRequest, error) {
	var (
		req          models.CredentialRequest
		id           string
		status       string
		claimsJSON   []byte
		approvedAt   sql.NullTime
		approvedBy   sql.NullString
		credentialID sql.NullString
	)
	if err := row.Scan(&id, &req.CredentialType, &req.SubjectID, &claimsJSON, &req.RequestedBy, &status,
		&req.CreatedAt, &req.ExpiresAt, &approvedAt, &approvedBy, &credentialID); err != nil {
		return models.CredentialRequest{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(claimsJSON))
	dec.UseNumber()
	if err := dec.Decode(&req.Claims); err != nil {
		return models.CredentialRequest{}, fmt.Errorf("decode request claims: %w", err)
	}
	req.ID = models.CredentialRequestID(id)
	req.Status = models.RequestStatus(status)
	req.CreatedAt = req.CreatedAt.UTC()
	req.ExpiresAt = req.ExpiresAt.UTC()
	if approvedAt.Valid {
		t := approvedAt.Time.UTC()
		req.ApprovedAt = &t
	}
	req.ApprovedBy = approvedBy.String
	req.CredentialID = models.CredentialID(credentialID.String)
	return req, nil
}
