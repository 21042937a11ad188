package entities

import (
	"errors"
	"testing"
	"time"

	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
)

func manualPool() Pool {
	return Pool{PoolID: "pool_m", OwnerID: "owner", Mode: ModeManual, TotalQuota: 1, Question1: "Why?"}
}

func TestNewApplicationRequiresFirstAnswer(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	if _, err := NewApplication("app_1", manualPool(), "user", nil, now); !errors.Is(err, domainerrors.ErrInvalidClaimRequest) {
		t.Fatalf("expected invalid claim request, got %v", err)
	}
	if _, err := NewApplication("app_1", manualPool(), "user", []string{"a", "b", "c"}, now); !errors.Is(err, domainerrors.ErrInvalidClaimRequest) {
		t.Fatalf("expected too many answers rejected, got %v", err)
	}
	if _, err := NewApplication("app_1", Pool{PoolID: "p", Mode: ModeMulti}, "user", []string{"a"}, now); !errors.Is(err, domainerrors.ErrModeMismatch) {
		t.Fatalf("expected mode mismatch, got %v", err)
	}

	app, err := NewApplication("app_1", manualPool(), " user ", []string{" because "}, now)
	if err != nil {
		t.Fatalf("new application failed: %v", err)
	}
	if app.Status != ApplicationPending || app.Answers[0] != "because" || app.ClaimantID != "user" {
		t.Fatalf("unexpected application: %+v", app)
	}
}

func TestApplicationDecideIsTerminal(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	app, err := NewApplication("app_1", manualPool(), "user", []string{"yes"}, now)
	if err != nil {
		t.Fatalf("new application failed: %v", err)
	}

	if _, err := app.Decide("MAYBE", "owner", now); !errors.Is(err, domainerrors.ErrInvalidDecision) {
		t.Fatalf("expected invalid decision, got %v", err)
	}
	rejected, err := app.Decide(DecisionReject, "owner", now)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != ApplicationRejected || rejected.DecidedAt == nil || rejected.DecidedBy != "owner" {
		t.Fatalf("unexpected rejected application: %+v", rejected)
	}
	if _, err := rejected.Decide(DecisionApprove, "owner", now); !errors.Is(err, domainerrors.ErrApplicationNotPending) {
		t.Fatalf("expected not pending, got %v", err)
	}
}

func TestNewClaimRecordPerMode(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	single := Pool{PoolID: "p1", Mode: ModeSingle}
	if _, err := NewClaimRecord("c1", single, "user", "", "", now); !errors.Is(err, domainerrors.ErrInvalidClaimRequest) {
		t.Fatalf("expected code ref required, got %v", err)
	}
	if _, err := NewClaimRecord("c1", manualPool(), "user", "", "", now); !errors.Is(err, domainerrors.ErrInvalidClaimRequest) {
		t.Fatalf("expected application id required, got %v", err)
	}
	record, err := NewClaimRecord("c1", manualPool(), "user", "", "app_1", now)
	if err != nil {
		t.Fatalf("manual claim record failed: %v", err)
	}
	if record.Mode != ModeManual || record.CodeRef != "" {
		t.Fatalf("unexpected manual record: %+v", record)
	}
}

func TestReservationExpiry(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	held := Reservation{Status: ReservationHeld, ExpiresAt: now}
	if held.IsExpired(now) || !held.IsExpired(now.Add(time.Second)) {
		t.Fatal("expected held reservation to expire strictly after ExpiresAt")
	}
	done := Reservation{Status: ReservationCompleted, ExpiresAt: now}
	if done.IsExpired(now.Add(time.Hour)) {
		t.Fatal("completed reservations never expire")
	}
}

func TestClassifyError(t *testing.T) {
	cases := map[error]ErrorClass{
		nil:                              ErrorClassNone,
		domainerrors.ErrRiskTooHigh:      ErrorClassEligibility,
		domainerrors.ErrQuotaExhausted:   ErrorClassCapacity,
		domainerrors.ErrNoCodesAvailable: ErrorClassConsistency,
		domainerrors.ErrPoolNotFound:     ErrorClassNotFound,
		domainerrors.ErrDuplicateCode:    ErrorClassValidation,
		errors.New("boom"):               ErrorClassInternal,
	}
	for err, want := range cases {
		if got := ClassifyError(err); got != want {
			t.Fatalf("ClassifyError(%v) = %s, want %s", err, got, want)
		}
	}
}

func TestClaimantValidate(t *testing.T) {
	if err := (Claimant{ClaimantID: "u", TrustLevel: 5}).Validate(); !errors.Is(err, domainerrors.ErrInvalidProfile) {
		t.Fatalf("expected invalid profile, got %v", err)
	}
	unknown := UnknownClaimant(" u ", 50)
	if unknown.HasTrustedIdentity || unknown.TrustLevel != 0 || unknown.RiskScore != 50 || unknown.ClaimantID != "u" {
		t.Fatalf("unexpected unknown claimant: %+v", unknown)
	}
}
