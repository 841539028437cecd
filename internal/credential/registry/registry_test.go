package registry

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idverse/internal/credential/models"
	dErrors "idverse/pkg/domain-errors"
	"idverse/pkg/testutil"
)

// RegistrySuite is the behavioural contract every Registry backend honours.
type RegistrySuite struct {
	suite.Suite
	ctx      context.Context
	registry Registry
	// newRegistry is called once per test.
	newRegistry func() Registry
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.registry = s.newRegistry()
}

func (s *RegistrySuite) input(cid string) models.RegisterInput {
	exp := testutil.FixedNow.AddDate(1, 0, 0)
	return models.RegisterInput{
		ApplicationID: models.NewCredentialID(),
		ContentRef:    cid,
		Issuer:        models.DefaultIssuer,
		IssuedAt:      testutil.FixedNow,
		ExpiresAt:     &exp,
	}
}

func (s *RegistrySuite) TestRegister() {
	s.Run("assigns sequential numeric ids", func() {
		first, err := s.registry.Register(s.ctx, s.input("bafkreia"))
		s.Require().NoError(err)
		second, err := s.registry.Register(s.ctx, s.input("bafkreib"))
		s.Require().NoError(err)

		s.Positive(first.NumericID)
		s.Equal(first.NumericID+1, second.NumericID)
		s.Equal(models.OperationRegister, first.Operation)
		s.True(strings.HasPrefix(first.TxHash, "0x"))
		s.Len(first.TxHash, 66)
	})

	s.Run("same id and content returns the original receipt", func() {
		in := s.input("bafkreisame")
		first, err := s.registry.Register(s.ctx, in)
		s.Require().NoError(err)

		again, err := s.registry.Register(s.ctx, in)
		s.Require().NoError(err)
		s.Equal(first.NumericID, again.NumericID)
		s.Equal(first.TxHash, again.TxHash)
	})

	s.Run("same id with different content is a duplicate", func() {
		in := s.input("bafkreione")
		_, err := s.registry.Register(s.ctx, in)
		s.Require().NoError(err)

		in.ContentRef = "bafkreitwo"
		_, err = s.registry.Register(s.ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateRegistration))
	})

	s.Run("rejects missing fields", func() {
		in := s.input("")
		_, err := s.registry.Register(s.ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		in = s.input("bafkreic")
		in.ApplicationID = ""
		_, err = s.registry.Register(s.ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *RegistrySuite) TestStatus() {
	s.Run("unknown ids report unregistered without error", func() {
		st, err := s.registry.Status(s.ctx, models.ByApplicationID("vc_missing"))
		s.Require().NoError(err)
		s.False(st.Registered)
		s.False(st.Revoked)
		s.Nil(st.Record)

		st, err = s.registry.Status(s.ctx, models.ByNumericID(999999))
		s.Require().NoError(err)
		s.False(st.Registered)
	})

	s.Run("numeric and application ids address the same record", func() {
		in := s.input("bafkreistatus")
		receipt, err := s.registry.Register(s.ctx, in)
		s.Require().NoError(err)

		byApp, err := s.registry.Status(s.ctx, models.ByApplicationID(in.ApplicationID))
		s.Require().NoError(err)
		byNum, err := s.registry.Status(s.ctx, models.ByNumericID(receipt.NumericID))
		s.Require().NoError(err)

		s.True(byApp.Active())
		s.Equal(byApp.Record.ApplicationID, byNum.Record.ApplicationID)
		s.Equal(receipt.NumericID, byApp.Record.NumericID)
		s.Equal("bafkreistatus", byNum.Record.ContentRef)
		s.Equal(models.StateRegistered, byNum.Record.State())
		s.Require().NotNil(byApp.Record.ExpiresAt)
		s.True(in.ExpiresAt.Equal(*byApp.Record.ExpiresAt))
	})
}

func (s *RegistrySuite) TestRevoke() {
	s.Run("moves a registered credential to revoked", func() {
		in := s.input("bafkreirevoke")
		reg, err := s.registry.Register(s.ctx, in)
		s.Require().NoError(err)

		receipt, err := s.registry.Revoke(s.ctx, models.ByApplicationID(in.ApplicationID), "compromised")
		s.Require().NoError(err)
		s.Equal(models.OperationRevoke, receipt.Operation)
		s.Equal(reg.NumericID, receipt.NumericID)
		s.Equal("compromised", receipt.Reason)
		s.NotEqual(reg.TxHash, receipt.TxHash)

		st, err := s.registry.Status(s.ctx, models.ByNumericID(reg.NumericID))
		s.Require().NoError(err)
		s.True(st.Registered)
		s.True(st.Revoked)
		s.False(st.Active())
		s.Equal("compromised", st.Record.RevocationReason)
		s.NotNil(st.Record.RevokedAt)
	})

	s.Run("revoking twice reports already revoked", func() {
		in := s.input("bafkreitwice")
		reg, err := s.registry.Register(s.ctx, in)
		s.Require().NoError(err)

		_, err = s.registry.Revoke(s.ctx, models.ByNumericID(reg.NumericID), "")
		s.Require().NoError(err)
		_, err = s.registry.Revoke(s.ctx, models.ByApplicationID(in.ApplicationID), "")
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRevoked))
	})

	s.Run("unknown id is not found", func() {
		_, err := s.registry.Revoke(s.ctx, models.ByApplicationID("vc_nope"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("revocation survives re-registration", func() {
		in := s.input("bafkreisticky")
		_, err := s.registry.Register(s.ctx, in)
		s.Require().NoError(err)
		_, err = s.registry.Revoke(s.ctx, models.ByApplicationID(in.ApplicationID), "")
		s.Require().NoError(err)

		_, err = s.registry.Register(s.ctx, in)
		s.Require().NoError(err)
		st, err := s.registry.Status(s.ctx, models.ByApplicationID(in.ApplicationID))
		s.Require().NoError(err)
		s.True(st.Revoked)
	})
}

func (s *RegistrySuite) TestResolve() {
	in := s.input("bafkreiresolve")
	reg, err := s.registry.Register(s.ctx, in)
	s.Require().NoError(err)

	n, ok, err := s.registry.ResolveNumericID(s.ctx, in.ApplicationID)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(reg.NumericID, n)

	appID, ok, err := s.registry.ResolveApplicationID(s.ctx, reg.NumericID)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(in.ApplicationID, appID)

	_, ok, err = s.registry.ResolveNumericID(s.ctx, "vc_unknown")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RegistrySuite) TestConcurrency() {
	s.Run("concurrent registrations get distinct numeric ids", func() {
		const n = 50
		receipts, errs := testutil.RunConcurrentCollect(n, func(i int) (models.Receipt, error) {
			return s.registry.Register(s.ctx, s.input(fmt.Sprintf("bafkreiconc%d", i)))
		})
		s.Empty(errs)
		s.Len(receipts, n)

		seen := make(map[uint64]struct{}, n)
		for _, r := range receipts {
			seen[r.NumericID] = struct{}{}
		}
		s.Len(seen, n)
	})

	s.Run("exactly one concurrent revoke wins", func() {
		in := s.input("bafkreirace")
		_, err := s.registry.Register(s.ctx, in)
		s.Require().NoError(err)

		result := testutil.RunConcurrent(20, func(int) error {
			_, err := s.registry.Revoke(s.ctx, models.ByApplicationID(in.ApplicationID), "race")
			return err
		})
		s.EqualValues(1, result.Successes)
		s.EqualValues(19, result.Conflicts)
		s.Zero(result.Errors)
	})
}

func TestMemoryRegistrySuite(t *testing.T) {
	suite.Run(t, &RegistrySuite{newRegistry: func() Registry { return NewMemory() }})
}

func TestMemoryRegistryClock(t *testing.T) {
	clock := testutil.NewClock(testutil.FixedNow)
	reg := NewMemory(WithClock(clock.Now))
	ctx := context.Background()

	in := models.RegisterInput{
		ApplicationID: "vc_clock",
		ContentRef:    "bafkreiclock",
		Issuer:        models.DefaultIssuer,
		IssuedAt:      testutil.FixedNow,
	}
	receipt, err := reg.Register(ctx, in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !receipt.At.Equal(testutil.FixedNow) {
		t.Fatalf("receipt at = %v, want %v", receipt.At, testutil.FixedNow)
	}

	clock.Advance(time.Hour)
	revoked, err := reg.Revoke(ctx, models.ByApplicationID("vc_clock"), "")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !revoked.At.Equal(testutil.FixedNow.Add(time.Hour)) {
		t.Fatalf("revoke at = %v", revoked.At)
	}
}
