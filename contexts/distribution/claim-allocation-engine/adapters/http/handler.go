package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/application/commands"
	"codedrop/contexts/distribution/claim-allocation-engine/application/queries"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	httptransport "codedrop/contexts/distribution/claim-allocation-engine/transport/http"
)

type Handler struct {
	CreatePool         commands.CreatePoolUseCase
	TryClaim           commands.TryClaimUseCase
	ReviewApplication  commands.ReviewApplicationUseCase
	GrowQuota          commands.GrowQuotaUseCase
	SetPoolPassword    commands.SetPoolPasswordUseCase
	UpsertClaimant     commands.UpsertClaimantProfileUseCase
	GetPoolStatus      queries.GetPoolStatusUseCase
	ListClaims         queries.ListClaimsUseCase
	ListClaimantClaims queries.ListClaimantClaimsUseCase
	ListApplications   queries.ListApplicationsUseCase
	Logger             *slog.Logger
}

// CreatePoolHandler godoc
// @Summary Publish a claim pool
// @Description Creates a pool in SINGLE, MULTI or MANUAL mode with its eligibility gate.
// @Tags claim-allocation-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Pool owner id"
// @Param request body httptransport.CreatePoolRequest true "Pool definition"
// @Success 201 {object} httptransport.CreatePoolResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/pools [post]
func (h Handler) CreatePoolHandler(
	ctx context.Context,
	ownerID string,
	req httptransport.CreatePoolRequest,
) (httptransport.CreatePoolResponse, error) {
	logger := application.ResolveLogger(h.Logger)

	modeConfig, err := modeConfigFromRequest(req)
	if err != nil {
		return httptransport.CreatePoolResponse{}, err
	}
	gate, err := gateFromDTO(req.Gate)
	if err != nil {
		return httptransport.CreatePoolResponse{}, err
	}

	result, err := h.CreatePool.Execute(ctx, commands.CreatePoolCommand{
		OwnerID:    ownerID,
		TotalQuota: req.TotalQuota,
		ModeConfig: modeConfig,
		Gate:       gate,
		Password:   req.Gate.Password,
	})
	if err != nil {
		logger.Warn("create pool request failed",
			"event", "http_create_pool_failed",
			"module", application.ModuleName,
			"layer", "transport",
			"owner_id", ownerID,
			"error", err.Error(),
		)
		return httptransport.CreatePoolResponse{}, err
	}
	return httptransport.CreatePoolResponse{Pool: mapPool(result.Pool)}, nil
}

// GetPoolStatusHandler godoc
// @Summary Get pool status
// @Description Returns quota counters, window state and inventory health for one pool.
// @Tags claim-allocation-engine
// @Produce json
// @Param pool_id path string true "Pool id"
// @Success 200 {object} httptransport.PoolStatusResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/pools/{pool_id} [get]
func (h Handler) GetPoolStatusHandler(ctx context.Context, poolID string) (httptransport.PoolStatusResponse, error) {
	status, err := h.GetPoolStatus.Execute(ctx, poolID)
	if err != nil {
		return httptransport.PoolStatusResponse{}, err
	}
	return httptransport.PoolStatusResponse{
		Pool:                mapPool(status.Pool),
		Remaining:           status.Remaining,
		Exhausted:           status.Exhausted,
		Expired:             status.Expired,
		Open:                status.Open,
		PendingApplications: status.PendingApplications,
		StoredCodes:         status.StoredCodes,
		InventoryConsistent: status.InventoryConsistent,
	}, nil
}

// TryClaimHandler godoc
// @Summary Attempt a claim
// @Description Runs the eligibility gate and allocates one slot. MANUAL pools queue an application instead.
// @Tags claim-allocation-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Claimant id"
// @Param pool_id path string true "Pool id"
// @Param request body httptransport.TryClaimRequest false "Credentials and answers"
// @Success 200 {object} httptransport.TryClaimResponse
// @Success 202 {object} httptransport.TryClaimResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /v1/pools/{pool_id}/claims [post]
func (h Handler) TryClaimHandler(
	ctx context.Context,
	claimantID string,
	poolID string,
	req httptransport.TryClaimRequest,
) (httptransport.TryClaimResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("try claim request received",
		"event", "http_try_claim_received",
		"module", application.ModuleName,
		"layer", "transport",
		"pool_id", poolID,
		"claimant_id", claimantID,
	)

	result, err := h.TryClaim.Execute(ctx, commands.TryClaimCommand{
		PoolID:      poolID,
		ClaimantID:  claimantID,
		Credentials: entities.Credentials{Password: req.Password},
		Answers:     req.Answers,
	})
	if err != nil {
		return httptransport.TryClaimResponse{}, err
	}

	response := httptransport.TryClaimResponse{
		Outcome: string(result.Outcome),
		Code:    result.Code,
	}
	if result.Claim != nil {
		claim := mapClaim(*result.Claim)
		response.Claim = &claim
	}
	if result.Application != nil {
		item := mapApplication(*result.Application)
		response.Application = &item
	}
	return response, nil
}

// ListClaimsHandler godoc
// @Summary List pool claims
// @Description Returns claim records newest first with page-based pagination.
// @Tags claim-allocation-engine
// @Produce json
// @Param pool_id path string true "Pool id"
// @Param page query int false "1-based page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} httptransport.ListClaimsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/pools/{pool_id}/claims [get]
func (h Handler) ListClaimsHandler(
	ctx context.Context,
	poolID string,
	page int,
	pageSize int,
) (httptransport.ListClaimsResponse, error) {
	result, err := h.ListClaims.Execute(ctx, queries.ListClaimsQuery{
		PoolID:   poolID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return httptransport.ListClaimsResponse{}, err
	}
	return httptransport.ListClaimsResponse{
		Items:      mapClaims(result.Records),
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
		HasMore:    result.HasMore,
	}, nil
}

// ListClaimantClaimsHandler godoc
// @Summary List my claims
// @Description Returns every claim the caller holds, newest first.
// @Tags claim-allocation-engine
// @Produce json
// @Param X-User-Id header string true "Claimant id"
// @Success 200 {object} httptransport.ListClaimantClaimsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/claimants/me/claims [get]
func (h Handler) ListClaimantClaimsHandler(ctx context.Context, claimantID string) (httptransport.ListClaimantClaimsResponse, error) {
	records, err := h.ListClaimantClaims.Execute(ctx, claimantID)
	if err != nil {
		return httptransport.ListClaimantClaimsResponse{}, err
	}
	return httptransport.ListClaimantClaimsResponse{Items: mapClaims(records)}, nil
}

// GrowQuotaHandler godoc
// @Summary Grow pool quota
// @Description Adds slots to a pool. SINGLE pools must supply one new code per slot.
// @Tags claim-allocation-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Pool owner id"
// @Param pool_id path string true "Pool id"
// @Param request body httptransport.GrowQuotaRequest true "Growth request"
// @Success 200 {object} httptransport.CreatePoolResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/pools/{pool_id}/quota [post]
func (h Handler) GrowQuotaHandler(
	ctx context.Context,
	ownerID string,
	poolID string,
	req httptransport.GrowQuotaRequest,
) (httptransport.CreatePoolResponse, error) {
	result, err := h.GrowQuota.Execute(ctx, commands.GrowQuotaCommand{
		PoolID:          poolID,
		OwnerID:         ownerID,
		AdditionalSlots: req.AdditionalSlots,
		AdditionalCodes: req.AdditionalCodes,
	})
	if err != nil {
		return httptransport.CreatePoolResponse{}, err
	}
	return httptransport.CreatePoolResponse{Pool: mapPool(result.Pool)}, nil
}

// SetPoolPasswordHandler godoc
// @Summary Replace pool password
// @Description Sets or clears the pool password. An empty password removes protection.
// @Tags claim-allocation-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Pool owner id"
// @Param pool_id path string true "Pool id"
// @Param request body httptransport.SetPoolPasswordRequest true "New password"
// @Success 200 {object} httptransport.CreatePoolResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/pools/{pool_id}/password [put]
func (h Handler) SetPoolPasswordHandler(
	ctx context.Context,
	ownerID string,
	poolID string,
	req httptransport.SetPoolPasswordRequest,
) (httptransport.CreatePoolResponse, error) {
	pool, err := h.SetPoolPassword.Execute(ctx, commands.SetPoolPasswordCommand{
		PoolID:   poolID,
		OwnerID:  ownerID,
		Password: req.Password,
	})
	if err != nil {
		return httptransport.CreatePoolResponse{}, err
	}
	return httptransport.CreatePoolResponse{Pool: mapPool(pool)}, nil
}

// ListApplicationsHandler godoc
// @Summary List pool applications
// @Description Returns applications of a MANUAL pool for its owner.
// @Tags claim-allocation-engine
// @Produce json
// @Param X-User-Id header string true "Pool owner id"
// @Param pool_id path string true "Pool id"
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Success 200 {object} httptransport.ListApplicationsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/pools/{pool_id}/applications [get]
func (h Handler) ListApplicationsHandler(
	ctx context.Context,
	ownerID string,
	poolID string,
	status string,
) (httptransport.ListApplicationsResponse, error) {
	items, err := h.ListApplications.Execute(ctx, queries.ListApplicationsQuery{
		PoolID:     poolID,
		ReviewerID: ownerID,
		Status:     entities.ApplicationStatus(strings.ToUpper(strings.TrimSpace(status))),
	})
	if err != nil {
		return httptransport.ListApplicationsResponse{}, err
	}
	out := make([]httptransport.ApplicationDTO, 0, len(items))
	for _, item := range items {
		out = append(out, mapApplication(item))
	}
	return httptransport.ListApplicationsResponse{Items: out}, nil
}

// ReviewApplicationHandler godoc
// @Summary Review an application
// @Description Approves or rejects a PENDING application. Approval consumes one quota slot.
// @Tags claim-allocation-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Reviewer id"
// @Param application_id path string true "Application id"
// @Param request body httptransport.ReviewApplicationRequest true "Decision"
// @Success 200 {object} httptransport.ReviewApplicationResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/applications/{application_id}/review [post]
func (h Handler) ReviewApplicationHandler(
	ctx context.Context,
	reviewerID string,
	applicationID string,
	req httptransport.ReviewApplicationRequest,
) (httptransport.ReviewApplicationResponse, error) {
	result, err := h.ReviewApplication.Execute(ctx, commands.ReviewApplicationCommand{
		ApplicationID: applicationID,
		ReviewerID:    reviewerID,
		Decision:      entities.ReviewDecision(strings.ToUpper(strings.TrimSpace(req.Decision))),
	})
	if err != nil {
		return httptransport.ReviewApplicationResponse{}, err
	}
	response := httptransport.ReviewApplicationResponse{
		Application: mapApplication(result.Application),
	}
	if result.Claim != nil {
		claim := mapClaim(*result.Claim)
		response.Claim = &claim
	}
	return response, nil
}

// UpsertClaimantProfileHandler godoc
// @Summary Upsert claimant profile
// @Description Stores identity trust and risk scoring used by the eligibility gate. Internal callers only; requires the service bearer token.
// @Tags claim-allocation-engine
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer internal service token"
// @Param claimant_id path string true "Claimant id"
// @Param request body httptransport.UpsertClaimantProfileRequest true "Profile"
// @Success 200 {object} httptransport.ClaimantProfileResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /v1/claimants/{claimant_id}/profile [put]
func (h Handler) UpsertClaimantProfileHandler(
	ctx context.Context,
	claimantID string,
	req httptransport.UpsertClaimantProfileRequest,
) (httptransport.ClaimantProfileResponse, error) {
	claimant, err := h.UpsertClaimant.Execute(ctx, commands.UpsertClaimantProfileCommand{
		ClaimantID:         claimantID,
		HasTrustedIdentity: req.HasTrustedIdentity,
		TrustLevel:         req.TrustLevel,
		RiskScore:          req.RiskScore,
	})
	if err != nil {
		return httptransport.ClaimantProfileResponse{}, err
	}
	return httptransport.ClaimantProfileResponse{
		ClaimantID:         claimant.ClaimantID,
		HasTrustedIdentity: claimant.HasTrustedIdentity,
		TrustLevel:         claimant.TrustLevel,
		RiskScore:          claimant.RiskScore,
		UpdatedAt:          formatTime(claimant.UpdatedAt),
	}, nil
}

func modeConfigFromRequest(req httptransport.CreatePoolRequest) (entities.ModeConfig, error) {
	switch entities.DistributionMode(strings.ToUpper(strings.TrimSpace(req.Mode))) {
	case entities.ModeSingle:
		return entities.SingleUseCodes{Codes: req.Codes}, nil
	case entities.ModeMulti:
		return entities.SharedCodeConfig{Code: req.SharedCode}, nil
	case entities.ModeManual:
		return entities.ManualReview{Question1: req.Question1, Question2: req.Question2}, nil
	default:
		return nil, domainerrors.ErrInvalidPoolInput
	}
}

func gateFromDTO(dto httptransport.GateConfigDTO) (entities.GateConfig, error) {
	gate := entities.GateConfig{
		RequireTrustedIdentity: dto.RequireTrustedIdentity,
		MinTrustLevel:          dto.MinTrustLevel,
		MinRiskThreshold:       dto.MinRiskThreshold,
		IsPublic:               dto.IsPublic,
	}
	// An omitted threshold selects the most permissive floor.
	if gate.MinRiskThreshold == 0 {
		gate.MinRiskThreshold = entities.MinRiskThreshold
	}
	if value := strings.TrimSpace(dto.StartTime); value != "" {
		startTime, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return entities.GateConfig{}, domainerrors.ErrInvalidPoolInput
		}
		gate.StartTime = startTime.UTC()
	}
	if value := strings.TrimSpace(dto.EndTime); value != "" {
		endTime, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return entities.GateConfig{}, domainerrors.ErrInvalidPoolInput
		}
		endTime = endTime.UTC()
		gate.EndTime = &endTime
	}
	return gate, nil
}

func mapPool(pool entities.Pool) httptransport.PoolDTO {
	dto := httptransport.PoolDTO{
		PoolID:                 pool.PoolID,
		OwnerID:                pool.OwnerID,
		Mode:                   string(pool.Mode),
		TotalQuota:             pool.TotalQuota,
		ClaimedCount:           pool.ClaimedCount,
		StartTime:              formatTime(pool.Gate.StartTime),
		PasswordProtected:      pool.HasPassword(),
		RequireTrustedIdentity: pool.Gate.RequireTrustedIdentity,
		MinTrustLevel:          pool.Gate.MinTrustLevel,
		MinRiskThreshold:       pool.Gate.MinRiskThreshold,
		IsPublic:               pool.Gate.IsPublic,
		Question1:              pool.Question1,
		Question2:              pool.Question2,
	}
	if pool.Gate.EndTime != nil {
		dto.EndTime = formatTime(*pool.Gate.EndTime)
	}
	return dto
}

func mapClaim(record entities.ClaimRecord) httptransport.ClaimDTO {
	return httptransport.ClaimDTO{
		ClaimID:       record.ClaimID,
		PoolID:        record.PoolID,
		ClaimantID:    record.ClaimantID,
		Mode:          string(record.Mode),
		ClaimedAt:     formatTime(record.ClaimedAt),
		CodeRef:       record.CodeRef,
		ApplicationID: record.ApplicationID,
	}
}

func mapClaims(records []entities.ClaimRecord) []httptransport.ClaimDTO {
	items := make([]httptransport.ClaimDTO, 0, len(records))
	for _, record := range records {
		items = append(items, mapClaim(record))
	}
	return items
}

func mapApplication(item entities.Application) httptransport.ApplicationDTO {
	dto := httptransport.ApplicationDTO{
		ApplicationID: item.ApplicationID,
		PoolID:        item.PoolID,
		ClaimantID:    item.ClaimantID,
		Answers:       []string{item.Answers[0], item.Answers[1]},
		Status:        string(item.Status),
		SubmittedAt:   formatTime(item.SubmittedAt),
		DecidedBy:     item.DecidedBy,
	}
	if item.DecidedAt != nil {
		dto.DecidedAt = formatTime(*item.DecidedAt)
	}
	return dto
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
