package registry

import (
	"context"
	"sync"
	"time"

	"idverse/internal/credential/models"
)

type memoryEntry struct {
	record  models.RegistryRecord
	receipt models.Receipt
}

// MemoryRegistry is an in-process registry. One mutex serializes numeric id
// assignment and revocation.
type MemoryRegistry struct {
	mu     sync.Mutex
	nextID uint64
	byApp  map[models.CredentialID]*memoryEntry
	byNum  map[uint64]models.CredentialID
	now    func() time.Time
}

// MemoryOption configures a MemoryRegistry.
type MemoryOption func(*MemoryRegistry)

// WithClock overrides the transition clock.
func WithClock(now func() time.Time) MemoryOption {
	return func(r *MemoryRegistry) {
		if now != nil {
			r.now = now
		}
	}
}

func NewMemory(opts ...MemoryOption) *MemoryRegistry {
	r := &MemoryRegistry{
		nextID: 1,
		byApp:  make(map[models.CredentialID]*memoryEntry),
		byNum:  make(map[uint64]models.CredentialID),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MemoryRegistry) Register(_ context.Context, in models.RegisterInput) (models.Receipt, error) {
	if err := validateRegister(in); err != nil {
		return models.Receipt{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byApp[in.ApplicationID]; ok {
		if existing.record.ContentRef != in.ContentRef {
			return models.Receipt{}, ErrDuplicateRegistration
		}
		return existing.receipt, nil
	}

	numericID := r.nextID
	r.nextID++
	at := r.now().UTC()

	entry := &memoryEntry{
		record: models.RegistryRecord{
			ApplicationID: in.ApplicationID,
			NumericID:     numericID,
			ContentRef:    in.ContentRef,
			Issuer:        in.Issuer,
			IssuedAt:      in.IssuedAt,
			ExpiresAt:     copyTime(in.ExpiresAt),
		},
		receipt: models.Receipt{
			TxHash:        receiptHash(models.OperationRegister, in.ApplicationID, numericID, in.ContentRef, at),
			Operation:     models.OperationRegister,
			ApplicationID: in.ApplicationID,
			NumericID:     numericID,
			At:            at,
		},
	}
	r.byApp[in.ApplicationID] = entry
	r.byNum[numericID] = in.ApplicationID
	return entry.receipt, nil
}

func (r *MemoryRegistry) Revoke(_ context.Context, ref models.RegistryRef, reason string) (models.Receipt, error) {
	if err := validateRef(ref); err != nil {
		return models.Receipt{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.lookup(ref)
	if !ok {
		return models.Receipt{}, ErrNotFound
	}
	if entry.record.Revoked {
		return models.Receipt{}, ErrAlreadyRevoked
	}

	at := r.now().UTC()
	entry.record.Revoked = true
	entry.record.RevokedAt = &at
	entry.record.RevocationReason = reason

	return models.Receipt{
		TxHash:        receiptHash(models.OperationRevoke, entry.record.ApplicationID, entry.record.NumericID, reason, at),
		Operation:     models.OperationRevoke,
		ApplicationID: entry.record.ApplicationID,
		NumericID:     entry.record.NumericID,
		At:            at,
		Reason:        reason,
	}, nil
}

func (r *MemoryRegistry) Status(_ context.Context, ref models.RegistryRef) (models.RegistryStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.lookup(ref)
	if !ok {
		return models.RegistryStatus{}, nil
	}
	rec := entry.record
	rec.ExpiresAt = copyTime(rec.ExpiresAt)
	rec.RevokedAt = copyTime(rec.RevokedAt)
	return models.RegistryStatus{
		Registered: true,
		Revoked:    rec.Revoked,
		Record:     &rec,
	}, nil
}

func (r *MemoryRegistry) ResolveNumericID(_ context.Context, appID models.CredentialID) (uint64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.byApp[appID]
	if !ok {
		return 0, false, nil
	}
	return entry.record.NumericID, true, nil
}

func (r *MemoryRegistry) ResolveApplicationID(_ context.Context, numericID uint64) (models.CredentialID, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appID, ok := r.byNum[numericID]
	return appID, ok, nil
}

// lookup must be called with r.mu held.
func (r *MemoryRegistry) lookup(ref models.RegistryRef) (*memoryEntry, bool) {
	appID := ref.ApplicationID
	if ref.IsNumeric() {
		var ok bool
		if appID, ok = r.byNum[ref.NumericID]; !ok {
			return nil, false
		}
	}
	entry, ok := r.byApp[appID]
	return entry, ok
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
