package services

import (
	"errors"
	"testing"
	"time"

	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
)

type stubVerifier struct {
	ok    bool
	err   error
	calls int
}

func (s *stubVerifier) Verify(string, string) (bool, error) {
	s.calls++
	return s.ok, s.err
}

func gatedPool(now time.Time) entities.Pool {
	end := now.Add(time.Hour)
	return entities.Pool{
		PoolID:     "pool_1",
		Mode:       entities.ModeMulti,
		TotalQuota: 1,
		Gate: entities.GateConfig{
			StartTime:              now,
			EndTime:                &end,
			PasswordHash:           "hash",
			RequireTrustedIdentity: true,
			MinTrustLevel:          2,
			MinRiskThreshold:       60,
		},
	}
}

func TestEvaluateEligibilityReturnsFirstFailure(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	pool := gatedPool(now)
	good := entities.Claimant{ClaimantID: "u", HasTrustedIdentity: true, TrustLevel: 3, RiskScore: 70}

	cases := []struct {
		name     string
		input    EligibilityInput
		verifier *stubVerifier
		want     error
	}{
		{
			name:     "window beats every other failure",
			input:    EligibilityInput{Pool: pool, Now: now.Add(-time.Minute), AlreadyClaimed: true},
			verifier: &stubVerifier{},
			want:     domainerrors.ErrOutsideWindow,
		},
		{
			name:     "missing password",
			input:    EligibilityInput{Pool: pool, Now: now, Claimant: good},
			verifier: &stubVerifier{ok: true},
			want:     domainerrors.ErrInvalidPassword,
		},
		{
			name:     "wrong password before identity",
			input:    EligibilityInput{Pool: pool, Now: now, Credentials: entities.Credentials{Password: "nope"}},
			verifier: &stubVerifier{ok: false},
			want:     domainerrors.ErrInvalidPassword,
		},
		{
			name:     "identity before trust",
			input:    EligibilityInput{Pool: pool, Now: now, Credentials: entities.Credentials{Password: "pw"}},
			verifier: &stubVerifier{ok: true},
			want:     domainerrors.ErrIdentityRequired,
		},
		{
			name: "trust before risk",
			input: EligibilityInput{Pool: pool, Now: now, Credentials: entities.Credentials{Password: "pw"},
				Claimant: entities.Claimant{HasTrustedIdentity: true, TrustLevel: 1, RiskScore: 0}},
			verifier: &stubVerifier{ok: true},
			want:     domainerrors.ErrInsufficientTrust,
		},
		{
			name: "risk before duplicate",
			input: EligibilityInput{Pool: pool, Now: now, Credentials: entities.Credentials{Password: "pw"},
				Claimant: entities.Claimant{HasTrustedIdentity: true, TrustLevel: 2, RiskScore: 59}, AlreadyClaimed: true},
			verifier: &stubVerifier{ok: true},
			want:     domainerrors.ErrRiskTooHigh,
		},
		{
			name:     "duplicate last",
			input:    EligibilityInput{Pool: pool, Now: now, Credentials: entities.Credentials{Password: "pw"}, Claimant: good, AlreadyClaimed: true},
			verifier: &stubVerifier{ok: true},
			want:     domainerrors.ErrAlreadyClaimed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := EvaluateEligibility(tc.input, tc.verifier)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestEvaluateEligibilityPassesAtThresholdBoundaries(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	verifier := &stubVerifier{ok: true}
	err := EvaluateEligibility(EligibilityInput{
		Pool:        gatedPool(now),
		Now:         now,
		Credentials: entities.Credentials{Password: "pw"},
		Claimant:    entities.Claimant{HasTrustedIdentity: true, TrustLevel: 2, RiskScore: 60},
	}, verifier)
	if err != nil {
		t.Fatalf("expected eligible at exact thresholds, got %v", err)
	}
	if verifier.calls != 1 {
		t.Fatalf("expected one password verification, got %d", verifier.calls)
	}
}

func TestEvaluateEligibilitySkipsVerifierWithoutPassword(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	pool := entities.Pool{PoolID: "p", Mode: entities.ModeMulti, Gate: entities.GateConfig{StartTime: now, MinRiskThreshold: 30}}
	verifier := &stubVerifier{}
	if err := EvaluateEligibility(EligibilityInput{Pool: pool, Now: now, Claimant: entities.Claimant{RiskScore: 30}}, verifier); err != nil {
		t.Fatalf("expected open pool to pass, got %v", err)
	}
	if verifier.calls != 0 {
		t.Fatal("verifier must not run for pools without a password")
	}
}

func TestEvaluateEligibilitySurfacesVerifierErrors(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	boom := errors.New("boom")
	err := EvaluateEligibility(EligibilityInput{
		Pool:        gatedPool(now),
		Now:         now,
		Credentials: entities.Credentials{Password: "pw"},
	}, &stubVerifier{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected verifier error, got %v", err)
	}
}

func TestTrustLevelFloorAppliesWithoutIdentityRequirement(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	pool := entities.Pool{
		PoolID:     "pool_2",
		Mode:       entities.ModeMulti,
		TotalQuota: 1,
		Gate:       entities.GateConfig{StartTime: now, MinTrustLevel: 2, MinRiskThreshold: 30},
	}

	low := entities.Claimant{ClaimantID: "u", TrustLevel: 1, RiskScore: 80}
	if err := EvaluateEligibility(EligibilityInput{Pool: pool, Claimant: low, Now: now}, nil); !errors.Is(err, domainerrors.ErrInsufficientTrust) {
		t.Fatalf("expected insufficient trust, got %v", err)
	}

	enough := entities.Claimant{ClaimantID: "u", TrustLevel: 2, RiskScore: 80}
	if err := EvaluateEligibility(EligibilityInput{Pool: pool, Claimant: enough, Now: now}, nil); err != nil {
		t.Fatalf("expected untrusted identity with enough trust level to pass, got %v", err)
	}
}
