package claimallocationengine_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	contractsv1 "codedrop/contracts/gen/events/v1"
	claimallocationengine "codedrop/contexts/distribution/claim-allocation-engine"
	"codedrop/contexts/distribution/claim-allocation-engine/adapters/memory"
	"codedrop/contexts/distribution/claim-allocation-engine/application/commands"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
	httptransport "codedrop/contexts/distribution/claim-allocation-engine/transport/http"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) claimallocationengine.Module {
	t.Helper()
	module := claimallocationengine.NewInMemoryModule(nil)
	module.Store.SetNow(baseTime)
	return module
}

func createPool(t *testing.T, module claimallocationengine.Module, req httptransport.CreatePoolRequest) string {
	t.Helper()
	resp, err := module.Handler.CreatePoolHandler(context.Background(), "owner-1", req)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	return resp.Pool.PoolID
}

func claim(module claimallocationengine.Module, poolID string, claimantID string) (httptransport.TryClaimResponse, error) {
	return module.Handler.TryClaimHandler(context.Background(), claimantID, poolID, httptransport.TryClaimRequest{})
}

func poolStatus(t *testing.T, module claimallocationengine.Module, poolID string) httptransport.PoolStatusResponse {
	t.Helper()
	status, err := module.Handler.GetPoolStatusHandler(context.Background(), poolID)
	if err != nil {
		t.Fatalf("pool status: %v", err)
	}
	return status
}

func TestSingleModeIssuesEachCodeOnce(t *testing.T) {
	module := newEngine(t)
	poolID := createPool(t, module, httptransport.CreatePoolRequest{
		Mode:       "SINGLE",
		TotalQuota: 3,
		Codes:      []string{"CODE-A", "CODE-B", "CODE-C"},
	})

	issued := map[string]bool{}
	for _, claimantID := range []string{"user-1", "user-2", "user-3"} {
		resp, err := claim(module, poolID, claimantID)
		if err != nil {
			t.Fatalf("claim for %s should succeed: %v", claimantID, err)
		}
		if resp.Outcome != string(commands.OutcomeClaimed) {
			t.Fatalf("expected CLAIMED, got %s", resp.Outcome)
		}
		if issued[resp.Code] {
			t.Fatalf("code %s issued twice", resp.Code)
		}
		issued[resp.Code] = true
	}
	if len(issued) != 3 {
		t.Fatalf("expected 3 distinct codes, got %d", len(issued))
	}

	if _, err := claim(module, poolID, "user-4"); !errors.Is(err, domainerrors.ErrQuotaExhausted) {
		t.Fatalf("expected quota exhausted, got %v", err)
	}
	if _, err := claim(module, poolID, "user-1"); !errors.Is(err, domainerrors.ErrAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}

	status := poolStatus(t, module, poolID)
	if status.Pool.ClaimedCount != 3 || status.Remaining != 0 || !status.Exhausted {
		t.Fatalf("unexpected status after exhaustion: %+v", status)
	}
	if !status.InventoryConsistent || status.StoredCodes != 3 {
		t.Fatalf("expected consistent inventory of 3, got %+v", status)
	}
}

func TestSingleModeConcurrentClaimsNeverOversell(t *testing.T) {
	module := newEngine(t)
	const quota = 5
	const claimants = 60

	codes := make([]string, 0, quota)
	for i := 0; i < quota; i++ {
		codes = append(codes, fmt.Sprintf("STORM-%02d", i))
	}
	poolID := createPool(t, module, httptransport.CreatePoolRequest{
		Mode:       "SINGLE",
		TotalQuota: quota,
		Codes:      codes,
	})

	var (
		mu        sync.Mutex
		issued    = map[string]string{}
		exhausted int
	)
	var group errgroup.Group
	for i := 0; i < claimants; i++ {
		claimantID := fmt.Sprintf("storm-user-%02d", i)
		group.Go(func() error {
			resp, err := claim(module, poolID, claimantID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				if owner, dup := issued[resp.Code]; dup {
					return fmt.Errorf("code %s issued to %s and %s", resp.Code, owner, claimantID)
				}
				issued[resp.Code] = claimantID
			case errors.Is(err, domainerrors.ErrQuotaExhausted):
				exhausted++
			default:
				return fmt.Errorf("unexpected claim error for %s: %w", claimantID, err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatal(err)
	}

	if len(issued) != quota {
		t.Fatalf("expected %d successful claims, got %d", quota, len(issued))
	}
	if exhausted != claimants-quota {
		t.Fatalf("expected %d exhausted attempts, got %d", claimants-quota, exhausted)
	}
	if status := poolStatus(t, module, poolID); status.Pool.ClaimedCount != quota {
		t.Fatalf("expected claimed_count %d, got %d", quota, status.Pool.ClaimedCount)
	}
}

func TestMultiModeConcurrentClaimsShareCodeWithinQuota(t *testing.T) {
	module := newEngine(t)
	const quota = 10
	poolID := createPool(t, module, httptransport.CreatePoolRequest{
		Mode:       "MULTI",
		TotalQuota: quota,
		SharedCode: "SHARED-2026",
	})

	var (
		mu      sync.Mutex
		claimed int
	)
	var group errgroup.Group
	for i := 0; i < 40; i++ {
		claimantID := fmt.Sprintf("multi-user-%02d", i)
		group.Go(func() error {
			resp, err := claim(module, poolID, claimantID)
			if errors.Is(err, domainerrors.ErrQuotaExhausted) {
				return nil
			}
			if err != nil {
				return err
			}
			if resp.Code != "SHARED-2026" {
				return fmt.Errorf("unexpected shared code %q", resp.Code)
			}
			mu.Lock()
			claimed++
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatal(err)
	}
	if claimed != quota {
		t.Fatalf("expected %d claims, got %d", quota, claimed)
	}
}

func TestSameClaimantConcurrentAttemptsClaimOnce(t *testing.T) {
	module := newEngine(t)
	poolID := createPool(t, module, httptransport.CreatePoolRequest{
		Mode:       "MULTI",
		TotalQuota: 50,
		SharedCode: "ONCE",
	})

	var (
		mu        sync.Mutex
		successes int
	)
	var group errgroup.Group
	for i := 0; i < 25; i++ {
		group.Go(func() error {
			_, err := claim(module, poolID, "same-user")
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return nil
			}
			if errors.Is(err, domainerrors.ErrAlreadyClaimed) {
				return nil
			}
			return err
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatal(err)
	}

	if successes != 1 {
		t.Fatalf("expected exactly one successful claim, got %d", successes)
	}
	// Losing attempts must hand their reserved slot back.
	if status := poolStatus(t, module, poolID); status.Pool.ClaimedCount != 1 {
		t.Fatalf("expected claimed_count 1 after rollbacks, got %d", status.Pool.ClaimedCount)
	}
}

func TestEligibilityGateOrder(t *testing.T) {
	module := newEngine(t)
	start := baseTime.Add(time.Hour)
	end := baseTime.Add(3 * time.Hour)
	poolID := createPool(t, module, httptransport.CreatePoolRequest{
		Mode:       "MULTI",
		TotalQuota: 5,
		SharedCode: "GATED",
		Gate: httptransport.GateConfigDTO{
			StartTime:              start.Format(time.RFC3339),
			EndTime:                end.Format(time.RFC3339),
			Password:               "open-sesame",
			RequireTrustedIdentity: true,
			MinTrustLevel:          2,
			MinRiskThreshold:       40,
		},
	})
	ctx := context.Background()
	attempt := func(password string) error {
		_, err := module.Handler.TryClaimHandler(ctx, "gated-user", poolID, httptransport.TryClaimRequest{Password: password})
		return err
	}
	upsert := func(trusted bool, trust int, risk int) {
		t.Helper()
		_, err := module.Handler.UpsertClaimantProfileHandler(ctx, "gated-user", httptransport.UpsertClaimantProfileRequest{
			HasTrustedIdentity: trusted,
			TrustLevel:         trust,
			RiskScore:          risk,
		})
		if err != nil {
			t.Fatalf("upsert profile: %v", err)
		}
	}

	if err := attempt("wrong"); !errors.Is(err, domainerrors.ErrOutsideWindow) {
		t.Fatalf("expected outside window before start, got %v", err)
	}

	module.Store.SetNow(start)
	if err := attempt("wrong"); !errors.Is(err, domainerrors.ErrInvalidPassword) {
		t.Fatalf("expected invalid password, got %v", err)
	}
	if err := attempt(""); !errors.Is(err, domainerrors.ErrInvalidPassword) {
		t.Fatalf("expected invalid password for empty credentials, got %v", err)
	}
	if err := attempt("open-sesame"); !errors.Is(err, domainerrors.ErrIdentityRequired) {
		t.Fatalf("expected identity required, got %v", err)
	}

	upsert(true, 1, 90)
	if err := attempt("open-sesame"); !errors.Is(err, domainerrors.ErrInsufficientTrust) {
		t.Fatalf("expected insufficient trust, got %v", err)
	}

	upsert(true, 3, 10)
	if err := attempt("open-sesame"); !errors.Is(err, domainerrors.ErrRiskTooHigh) {
		t.Fatalf("expected risk too high, got %v", err)
	}

	upsert(true, 3, 80)
	if err := attempt("open-sesame"); err != nil {
		t.Fatalf("eligible claimant should claim: %v", err)
	}
	if err := attempt("open-sesame"); !errors.Is(err, domainerrors.ErrAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}

	module.Store.SetNow(end)
	if err := attempt("open-sesame"); !errors.Is(err, domainerrors.ErrOutsideWindow) {
		t.Fatalf("end time must be exclusive, got %v", err)
	}
}

func TestUnknownClaimantUsesDefaultRiskScore(t *testing.T) {
	module := newEngine(t)
	lenient := createPool(t, module, httptransport.CreatePoolRequest{
		Mode:       "MULTI",
		TotalQuota: 2,
		SharedCode: "LENIENT",
		Gate:       httptransport.GateConfigDTO{MinRiskThreshold: 50},
	})
	strict := createPool(t, module, httptransport.CreatePoolRequest{
		Mode:       "MULTI",
		TotalQuota: 2,
		SharedCode: "STRICT",
		Gate:       httptransport.GateConfigDTO{MinRiskThreshold: 51},
	})

	if _, err := claim(module, lenient, "stranger"); err != nil {
		t.Fatalf("default score 50 should pass threshold 50: %v", err)
	}
	if _, err := claim(module, strict, "stranger"); !errors.Is(err, domainerrors.ErrRiskTooHigh) {
		t.Fatalf("expected risk too high on strict pool, got %v", err)
	}
}

func TestManualModeQuotaOneScenario(t *testing.T) {
	module := newEngine(t)
	ctx := context.Background()
	poolID := createPool(t, module, httptransport.CreatePoolRequest{
		Mode:       "MANUAL",
		TotalQuota: 1,
		Question1:  "Why do you want early access?",
	})

	first, err := module.Handler.TryClaimHandler(ctx, "applicant-1", poolID, httptransport.TryClaimRequest{Answers: []string{"I test builds"}})
	if err != nil {
		t.Fatalf("first application: %v", err)
	}
	second, err := module.Handler.TryClaimHandler(ctx, "applicant-2", poolID, httptransport.TryClaimRequest{Answers: []string{"I write reviews"}})
	if err != nil {
		t.Fatalf("second application: %v", err)
	}
	if first.Outcome != string(commands.OutcomePending) || first.Application == nil || first.Code != "" {
		t.Fatalf("expected pending application without code, got %+v", first)
	}
	if status := poolStatus(t, module, poolID); status.Pool.ClaimedCount != 0 || status.PendingApplications != 2 {
		t.Fatalf("applications must not consume quota: %+v", status)
	}

	if _, err := module.Handler.TryClaimHandler(ctx, "applicant-3", poolID, httptransport.TryClaimRequest{}); !errors.Is(err, domainerrors.ErrInvalidClaimRequest) {
		t.Fatalf("expected missing answer to be rejected, got %v", err)
	}
	if _, err := module.Handler.TryClaimHandler(ctx, "applicant-1", poolID, httptransport.TryClaimRequest{Answers: []string{"again"}}); !errors.Is(err, domainerrors.ErrAlreadyClaimed) {
		t.Fatalf("expected duplicate application rejection, got %v", err)
	}

	_, err = module.Handler.ReviewApplicationHandler(ctx, "intruder", first.Application.ApplicationID, httptransport.ReviewApplicationRequest{Decision: "APPROVE"})
	if !errors.Is(err, domainerrors.ErrNotPoolOwner) {
		t.Fatalf("expected not pool owner, got %v", err)
	}

	approved, err := module.Handler.ReviewApplicationHandler(ctx, "owner-1", first.Application.ApplicationID, httptransport.ReviewApplicationRequest{Decision: "approve"})
	if err != nil {
		t.Fatalf("approve first: %v", err)
	}
	if approved.Application.Status != string(entities.ApplicationApproved) || approved.Claim == nil {
		t.Fatalf("expected approved application with claim, got %+v", approved)
	}
	if approved.Claim.ApplicationID != first.Application.ApplicationID {
		t.Fatalf("claim must reference application, got %+v", approved.Claim)
	}

	_, err = module.Handler.ReviewApplicationHandler(ctx, "owner-1", second.Application.ApplicationID, httptransport.ReviewApplicationRequest{Decision: "APPROVE"})
	if !errors.Is(err, domainerrors.ErrQuotaExhausted) {
		t.Fatalf("expected quota exhausted on second approval, got %v", err)
	}
	pending, err := module.Handler.ListApplicationsHandler(ctx, "owner-1", poolID, "pending")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending.Items) != 1 || pending.Items[0].ApplicationID != second.Application.ApplicationID {
		t.Fatalf("exhausted approval must leave application pending, got %+v", pending.Items)
	}

	rejected, err := module.Handler.ReviewApplicationHandler(ctx, "owner-1", second.Application.ApplicationID, httptransport.ReviewApplicationRequest{Decision: "REJECT"})
	if err != nil {
		t.Fatalf("reject second: %v", err)
	}
	if rejected.Application.Status != string(entities.ApplicationRejected) || rejected.Claim != nil {
		t.Fatalf("unexpected rejection result: %+v", rejected)
	}
	_, err = module.Handler.ReviewApplicationHandler(ctx, "owner-1", second.Application.ApplicationID, httptransport.ReviewApplicationRequest{Decision: "APPROVE"})
	if !errors.Is(err, domainerrors.ErrApplicationNotPending) {
		t.Fatalf("expected not pending, got %v", err)
	}

	status := poolStatus(t, module, poolID)
	if status.Pool.ClaimedCount != 1 || status.PendingApplications != 0 {
		t.Fatalf("unexpected final status: %+v", status)
	}
}

func TestManualModeConcurrentApprovalsRespectQuota(t *testing.T) {
	module := newEngine(t)
	ctx := context.Background()
	const quota = 3
	poolID := createPool(t, module, httptransport.CreatePoolRequest{
		Mode:       "MANUAL",
		TotalQuota: quota,
		Question1:  "Portfolio link?",
	})

	applicationIDs := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		resp, err := module.Handler.TryClaimHandler(ctx, fmt.Sprintf("applicant-%02d", i), poolID, httptransport.TryClaimRequest{
			Answers: []string{"https://example.com"},
		})
		if err != nil {
			t.Fatalf("submit application %d: %v", i, err)
		}
		applicationIDs = append(applicationIDs, resp.Application.ApplicationID)
	}

	var (
		mu       sync.Mutex
		approved int
	)
	var group errgroup.Group
	for _, applicationID := range applicationIDs {
		group.Go(func() error {
			_, err := module.Handler.ReviewApplicationHandler(ctx, "owner-1", applicationID, httptransport.ReviewApplicationRequest{Decision: "APPROVE"})
			if errors.Is(err, domainerrors.ErrQuotaExhausted) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			approved++
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatal(err)
	}
	if approved != quota {
		t.Fatalf("expected %d approvals, got %d", quota, approved)
	}
	status := poolStatus(t, module, poolID)
	if status.Pool.ClaimedCount != quota || status.PendingApplications != len(applicationIDs)-quota {
		t.Fatalf("unexpected status after approval storm: %+v", status)
	}
}

func TestGrowQuotaRoundTrip(t *testing.T) {
	module := newEngine(t)
	ctx := context.Background()
	poolID := createPool(t, module, httptransport.CreatePoolRequest{
		Mode:       "SINGLE",
		TotalQuota: 1,
		Codes:      []string{"FIRST"},
	})

	if resp, err := claim(module, poolID, "early"); err != nil || resp.Code != "FIRST" {
		t.Fatalf("expected FIRST code, got %+v err=%v", resp, err)
	}
	if _, err := claim(module, poolID, "late"); !errors.Is(err, domainerrors.ErrQuotaExhausted) {
		t.Fatalf("expected exhausted before growth, got %v", err)
	}

	_, err := module.Handler.GrowQuotaHandler(ctx, "owner-1", poolID, httptransport.GrowQuotaRequest{AdditionalSlots: 2, AdditionalCodes: []string{"ONLY-ONE"}})
	if !errors.Is(err, domainerrors.ErrInvalidQuotaGrowth) {
		t.Fatalf("expected code count mismatch to be rejected, got %v", err)
	}
	_, err = module.Handler.GrowQuotaHandler(ctx, "owner-1", poolID, httptransport.GrowQuotaRequest{AdditionalSlots: 1, AdditionalCodes: []string{"FIRST"}})
	if !errors.Is(err, domainerrors.ErrDuplicateCode) {
		t.Fatalf("expected duplicate code rejection, got %v", err)
	}
	_, err = module.Handler.GrowQuotaHandler(ctx, "someone-else", poolID, httptransport.GrowQuotaRequest{AdditionalSlots: 1, AdditionalCodes: []string{"SECOND"}})
	if !errors.Is(err, domainerrors.ErrNotPoolOwner) {
		t.Fatalf("expected not pool owner, got %v", err)
	}

	grown, err := module.Handler.GrowQuotaHandler(ctx, "owner-1", poolID, httptransport.GrowQuotaRequest{AdditionalSlots: 1, AdditionalCodes: []string{"SECOND"}})
	if err != nil {
		t.Fatalf("grow quota: %v", err)
	}
	if grown.Pool.TotalQuota != 2 || grown.Pool.ClaimedCount != 1 {
		t.Fatalf("unexpected pool after growth: %+v", grown.Pool)
	}

	if resp, err := claim(module, poolID, "late"); err != nil || resp.Code != "SECOND" {
		t.Fatalf("expected SECOND code after growth, got %+v err=%v", resp, err)
	}
	status := poolStatus(t, module, poolID)
	if !status.InventoryConsistent || status.StoredCodes != 2 || !status.Exhausted {
		t.Fatalf("unexpected status after growth round trip: %+v", status)
	}
}

func TestMultiModeGrowQuotaRejectsCodes(t *testing.T) {
	module := newEngine(t)
	poolID := createPool(t, module, httptransport.CreatePoolRequest{Mode: "MULTI", TotalQuota: 1, SharedCode: "M"})

	_, err := module.Handler.GrowQuotaHandler(context.Background(), "owner-1", poolID, httptransport.GrowQuotaRequest{
		AdditionalSlots: 1,
		AdditionalCodes: []string{"EXTRA"},
	})
	if !errors.Is(err, domainerrors.ErrInvalidQuotaGrowth) {
		t.Fatalf("expected invalid growth for MULTI codes, got %v", err)
	}
	grown, err := module.Handler.GrowQuotaHandler(context.Background(), "owner-1", poolID, httptransport.GrowQuotaRequest{AdditionalSlots: 4})
	if err != nil {
		t.Fatalf("grow multi pool: %v", err)
	}
	if grown.Pool.TotalQuota != 5 {
		t.Fatalf("expected total quota 5, got %d", grown.Pool.TotalQuota)
	}
}

func TestLostCodeBlocksSingleClaims(t *testing.T) {
	module := newEngine(t)
	poolID := createPool(t, module, httptransport.CreatePoolRequest{
		Mode:       "SINGLE",
		TotalQuota: 3,
		Codes:      []string{"A", "B", "C"},
	})
	module.Store.DropCode(poolID, "C")

	for _, claimant := range []string{"first", "second"} {
		result, err := claim(module, poolID, claimant)
		if !errors.Is(err, domainerrors.ErrCodeInventoryMismatch) {
			t.Fatalf("expected inventory mismatch for %s, got code=%q err=%v", claimant, result.Code, err)
		}
		if entities.ClassifyError(err) != entities.ErrorClassConsistency {
			t.Fatalf("expected consistency class, got %s", entities.ClassifyError(err))
		}
	}

	status := poolStatus(t, module, poolID)
	if status.Pool.ClaimedCount != 0 || status.Remaining != 3 {
		t.Fatalf("mismatched pool must not reserve quota: %+v", status)
	}
	if status.InventoryConsistent || status.StoredCodes != 2 {
		t.Fatalf("expected inconsistent inventory with two stored codes: %+v", status)
	}
}

func TestCreatePoolValidation(t *testing.T) {
	module := newEngine(t)
	ctx := context.Background()
	cases := []struct {
		name string
		req  httptransport.CreatePoolRequest
		want error
	}{
		{"unknown mode", httptransport.CreatePoolRequest{Mode: "RAFFLE", TotalQuota: 1}, domainerrors.ErrInvalidPoolInput},
		{"zero quota", httptransport.CreatePoolRequest{Mode: "MULTI", TotalQuota: 0, SharedCode: "X"}, domainerrors.ErrInvalidPoolInput},
		{"code count mismatch", httptransport.CreatePoolRequest{Mode: "SINGLE", TotalQuota: 2, Codes: []string{"A"}}, domainerrors.ErrCodeInventoryMismatch},
		{"duplicate codes", httptransport.CreatePoolRequest{Mode: "SINGLE", TotalQuota: 2, Codes: []string{"A", " A "}}, domainerrors.ErrDuplicateCode},
		{"missing shared code", httptransport.CreatePoolRequest{Mode: "MULTI", TotalQuota: 2}, domainerrors.ErrInvalidPoolInput},
		{"missing question", httptransport.CreatePoolRequest{Mode: "MANUAL", TotalQuota: 2}, domainerrors.ErrInvalidPoolInput},
		{"risk threshold too high", httptransport.CreatePoolRequest{Mode: "MULTI", TotalQuota: 1, SharedCode: "X", Gate: httptransport.GateConfigDTO{MinRiskThreshold: 95}}, domainerrors.ErrInvalidPoolInput},
		{"trust level too high", httptransport.CreatePoolRequest{Mode: "MULTI", TotalQuota: 1, SharedCode: "X", Gate: httptransport.GateConfigDTO{MinTrustLevel: 5}}, domainerrors.ErrInvalidPoolInput},
		{"bad start time", httptransport.CreatePoolRequest{Mode: "MULTI", TotalQuota: 1, SharedCode: "X", Gate: httptransport.GateConfigDTO{StartTime: "tomorrow"}}, domainerrors.ErrInvalidPoolInput},
		{"end before start", httptransport.CreatePoolRequest{Mode: "MULTI", TotalQuota: 1, SharedCode: "X", Gate: httptransport.GateConfigDTO{
			StartTime: baseTime.Format(time.RFC3339),
			EndTime:   baseTime.Add(-time.Minute).Format(time.RFC3339),
		}}, domainerrors.ErrInvalidPoolInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := module.Handler.CreatePoolHandler(ctx, "owner-1", tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestListClaimsNewestFirstWithPagination(t *testing.T) {
	module := newEngine(t)
	poolID := createPool(t, module, httptransport.CreatePoolRequest{
		Mode:       "MULTI",
		TotalQuota: 10,
		SharedCode: "PAGED",
	})

	for i := 0; i < 5; i++ {
		module.Store.SetNow(baseTime.Add(time.Duration(i) * time.Minute))
		if _, err := claim(module, poolID, fmt.Sprintf("pager-%d", i)); err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
	}

	ctx := context.Background()
	first, err := module.Handler.ListClaimsHandler(ctx, poolID, 1, 2)
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if len(first.Items) != 2 || !first.HasMore || first.TotalCount != 5 {
		t.Fatalf("unexpected first page: %+v", first)
	}
	if first.Items[0].ClaimantID != "pager-4" || first.Items[1].ClaimantID != "pager-3" {
		t.Fatalf("expected newest first, got %s then %s", first.Items[0].ClaimantID, first.Items[1].ClaimantID)
	}

	last, err := module.Handler.ListClaimsHandler(ctx, poolID, 3, 2)
	if err != nil {
		t.Fatalf("list page 3: %v", err)
	}
	if len(last.Items) != 1 || last.HasMore || last.Items[0].ClaimantID != "pager-0" {
		t.Fatalf("unexpected last page: %+v", last)
	}

	clamped, err := module.Handler.ListClaimsHandler(ctx, poolID, 0, 500)
	if err != nil {
		t.Fatalf("list clamped: %v", err)
	}
	if clamped.Page != 1 || clamped.PageSize != entities.MaxPageSize || len(clamped.Items) != 5 {
		t.Fatalf("unexpected clamped page: %+v", clamped)
	}

	if _, err := module.Handler.ListClaimsHandler(ctx, "missing-pool", 1, 10); !errors.Is(err, domainerrors.ErrPoolNotFound) {
		t.Fatalf("expected pool not found, got %v", err)
	}

	mine, err := module.Handler.ListClaimantClaimsHandler(ctx, "pager-2")
	if err != nil {
		t.Fatalf("list claimant claims: %v", err)
	}
	if len(mine.Items) != 1 || mine.Items[0].PoolID != poolID || mine.Items[0].CodeRef != "PAGED" {
		t.Fatalf("unexpected claimant claims: %+v", mine.Items)
	}
}

func TestSetPoolPasswordProtectsFutureClaims(t *testing.T) {
	module := newEngine(t)
	ctx := context.Background()
	poolID := createPool(t, module, httptransport.CreatePoolRequest{Mode: "MULTI", TotalQuota: 5, SharedCode: "PW"})

	if _, err := module.Handler.SetPoolPasswordHandler(ctx, "not-owner", poolID, httptransport.SetPoolPasswordRequest{Password: "x"}); !errors.Is(err, domainerrors.ErrNotPoolOwner) {
		t.Fatalf("expected not pool owner, got %v", err)
	}
	updated, err := module.Handler.SetPoolPasswordHandler(ctx, "owner-1", poolID, httptransport.SetPoolPasswordRequest{Password: "hunter2"})
	if err != nil {
		t.Fatalf("set password: %v", err)
	}
	if !updated.Pool.PasswordProtected {
		t.Fatalf("expected pool to be password protected")
	}

	if _, err := claim(module, poolID, "guest"); !errors.Is(err, domainerrors.ErrInvalidPassword) {
		t.Fatalf("expected invalid password, got %v", err)
	}
	if _, err := module.Handler.TryClaimHandler(ctx, "guest", poolID, httptransport.TryClaimRequest{Password: "hunter2"}); err != nil {
		t.Fatalf("claim with password: %v", err)
	}

	cleared, err := module.Handler.SetPoolPasswordHandler(ctx, "owner-1", poolID, httptransport.SetPoolPasswordRequest{})
	if err != nil {
		t.Fatalf("clear password: %v", err)
	}
	if cleared.Pool.PasswordProtected {
		t.Fatalf("expected password protection removed")
	}
	if _, err := claim(module, poolID, "guest-2"); err != nil {
		t.Fatalf("claim after clearing password: %v", err)
	}
}

func TestClaimWritesOutboxEnvelope(t *testing.T) {
	module := newEngine(t)
	poolID := createPool(t, module, httptransport.CreatePoolRequest{Mode: "MULTI", TotalQuota: 1, SharedCode: "EVT"})

	resp, err := claim(module, poolID, "evented")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	events := module.Store.OutboxEvents()
	if len(events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(events))
	}
	if events[0].EventType != commands.EventClaimRecorded || events[0].PartitionKey != poolID {
		t.Fatalf("unexpected outbox event: %+v", events[0])
	}

	var envelope contractsv1.Envelope
	if err := json.Unmarshal(events[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var payload struct {
		ClaimID    string `json:"claim_id"`
		ClaimantID string `json:"claimant_id"`
		Mode       string `json:"mode"`
	}
	if err := envelope.DecodeData(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.ClaimID != resp.Claim.ClaimID || payload.ClaimantID != "evented" || payload.Mode != "MULTI" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if envelope.SchemaVersion != contractsv1.CurrentSchemaVersion || envelope.PartitionKey != poolID {
		t.Fatalf("unexpected envelope metadata: %+v", envelope)
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	outcomes  map[string]int
	incidents map[string]int
	released  map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		outcomes:  map[string]int{},
		incidents: map[string]int{},
		released:  map[string]int{},
	}
}

func (o *recordingObserver) ObserveClaim(mode entities.DistributionMode, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[string(mode)+"/"+outcome]++
}

func (o *recordingObserver) ObserveDecision(entities.ReviewDecision, string) {}

func (o *recordingObserver) ObserveIncident(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.incidents[kind]++
}

func (o *recordingObserver) ObserveReleasedReservations(reason string, count int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.released[reason] += count
}

// unpoppableCodes reports a full inventory but never hands out a code.
type unpoppableCodes struct {
	ports.CodePool
}

func (unpoppableCodes) TakeOne(context.Context, entities.Reservation) (entities.CodeEntry, error) {
	return entities.CodeEntry{}, domainerrors.ErrNoCodesAvailable
}

func newObservedModule(codes ports.CodePool, store *memory.Store, observer ports.Observer) claimallocationengine.Module {
	return claimallocationengine.NewModule(claimallocationengine.Dependencies{
		Pools:            store,
		Ledger:           store,
		Codes:            codes,
		SharedCodes:      store,
		Applications:     store,
		Claims:           store,
		Claimants:        store,
		Outbox:           store,
		EventDedup:       store,
		Clock:            store,
		IDGenerator:      store,
		Observer:         observer,
		DefaultRiskScore: 50,
	})
}

func TestNewModuleReportsRollbackAndIncident(t *testing.T) {
	store := memory.NewStore(nil)
	store.SetNow(baseTime)
	observer := newRecordingObserver()
	module := newObservedModule(unpoppableCodes{CodePool: store}, store, observer)

	resp, err := module.Handler.CreatePoolHandler(context.Background(), "owner-1", httptransport.CreatePoolRequest{
		Mode:       "SINGLE",
		TotalQuota: 1,
		Codes:      []string{"STUCK"},
	})
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}

	if _, err := claim(module, resp.Pool.PoolID, "unlucky"); !errors.Is(err, domainerrors.ErrNoCodesAvailable) {
		t.Fatalf("expected no codes available, got %v", err)
	}
	if _, err := claim(module, resp.Pool.PoolID, "unlucky"); !errors.Is(err, domainerrors.ErrNoCodesAvailable) {
		t.Fatalf("rolled back claimant should be able to retry, got %v", err)
	}
	if status := poolStatus(t, module, resp.Pool.PoolID); status.Pool.ClaimedCount != 0 {
		t.Fatalf("rollback must free the slot: %+v", status)
	}

	observer.mu.Lock()
	defer observer.mu.Unlock()
	if observer.incidents["no_codes_available"] != 2 {
		t.Fatalf("expected two incidents, got %v", observer.incidents)
	}
	if observer.released["rollback"] != 2 {
		t.Fatalf("expected two rollbacks, got %v", observer.released)
	}
	if observer.outcomes["SINGLE/inconsistent"] != 2 {
		t.Fatalf("expected inconsistent outcomes, got %v", observer.outcomes)
	}
}

func TestNewModuleReportsInventoryMismatchIncident(t *testing.T) {
	store := memory.NewStore(nil)
	store.SetNow(baseTime)
	observer := newRecordingObserver()
	module := newObservedModule(store, store, observer)

	resp, err := module.Handler.CreatePoolHandler(context.Background(), "owner-1", httptransport.CreatePoolRequest{
		Mode:       "SINGLE",
		TotalQuota: 1,
		Codes:      []string{"GONE"},
	})
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	store.DropCode(resp.Pool.PoolID, "GONE")

	if _, err := claim(module, resp.Pool.PoolID, "unlucky"); !errors.Is(err, domainerrors.ErrCodeInventoryMismatch) {
		t.Fatalf("expected inventory mismatch, got %v", err)
	}

	observer.mu.Lock()
	defer observer.mu.Unlock()
	if observer.incidents["code_inventory_mismatch"] != 1 {
		t.Fatalf("expected one mismatch incident, got %v", observer.incidents)
	}
	if observer.released["rollback"] != 0 {
		t.Fatalf("no reservation should exist to roll back, got %v", observer.released)
	}
	if observer.outcomes["SINGLE/inconsistent"] != 1 {
		t.Fatalf("expected one inconsistent outcome, got %v", observer.outcomes)
	}
}
