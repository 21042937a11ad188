package httpserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"codedrop/contexts/distribution/claim-allocation-engine/application/commands"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	enginehttp "codedrop/contexts/distribution/claim-allocation-engine/transport/http"
)

const maxRequestBodyBytes = 1 << 20

func (s *Server) registerClaimEngineRoutes() {
	s.mux.HandleFunc("POST /v1/pools", s.handleCreatePool)
	s.mux.HandleFunc("GET /v1/pools/{pool_id}", s.handleGetPoolStatus)
	s.mux.HandleFunc("POST /v1/pools/{pool_id}/claims", s.handleTryClaim)
	s.mux.HandleFunc("GET /v1/pools/{pool_id}/claims", s.handleListClaims)
	s.mux.HandleFunc("POST /v1/pools/{pool_id}/quota", s.handleGrowQuota)
	s.mux.HandleFunc("PUT /v1/pools/{pool_id}/password", s.handleSetPoolPassword)
	s.mux.HandleFunc("GET /v1/pools/{pool_id}/applications", s.handleListApplications)
	s.mux.HandleFunc("POST /v1/applications/{application_id}/review", s.handleReviewApplication)
	s.mux.HandleFunc("GET /v1/claimants/me/claims", s.handleListClaimantClaims)
	s.mux.HandleFunc("PUT /v1/claimants/{claimant_id}/profile", s.handleUpsertClaimantProfile)
}

func (s *Server) handleCreatePool(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req enginehttp.CreatePoolRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	resp, err := s.engine.Handler.CreatePoolHandler(r.Context(), userID, req)
	if err != nil {
		s.writeEngineInputError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPoolStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Handler.GetPoolStatusHandler(r.Context(), r.PathValue("pool_id"))
	if err != nil {
		s.writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTryClaim(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req enginehttp.TryClaimRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	resp, err := s.engine.Handler.TryClaimHandler(r.Context(), userID, r.PathValue("pool_id"), req)
	if err != nil {
		s.writeEngineDomainError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Outcome == string(commands.OutcomePending) {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := optionalInt(query.Get("page"))
	if err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_pagination", "page must be an integer")
		return
	}
	pageSize, err := optionalInt(query.Get("page_size"))
	if err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_pagination", "page_size must be an integer")
		return
	}

	resp, err := s.engine.Handler.ListClaimsHandler(r.Context(), r.PathValue("pool_id"), page, pageSize)
	if err != nil {
		s.writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGrowQuota(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req enginehttp.GrowQuotaRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	resp, err := s.engine.Handler.GrowQuotaHandler(r.Context(), userID, r.PathValue("pool_id"), req)
	if err != nil {
		s.writeEngineInputError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetPoolPassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req enginehttp.SetPoolPasswordRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	resp, err := s.engine.Handler.SetPoolPasswordHandler(r.Context(), userID, r.PathValue("pool_id"), req)
	if err != nil {
		s.writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.engine.Handler.ListApplicationsHandler(
		r.Context(),
		userID,
		r.PathValue("pool_id"),
		r.URL.Query().Get("status"),
	)
	if err != nil {
		s.writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReviewApplication(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req enginehttp.ReviewApplicationRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	resp, err := s.engine.Handler.ReviewApplicationHandler(r.Context(), userID, r.PathValue("application_id"), req)
	if err != nil {
		s.writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListClaimantClaims(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.engine.Handler.ListClaimantClaimsHandler(r.Context(), userID)
	if err != nil {
		s.writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleUpsertClaimantProfile is called by the identity/risk service. Claimants
// never reach it: it needs the internal bearer token, not X-User-Id.
func (s *Server) handleUpsertClaimantProfile(w http.ResponseWriter, r *http.Request) {
	if !s.requireInternalCaller(w, r) {
		return
	}
	var req enginehttp.UpsertClaimantProfileRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	resp, err := s.engine.Handler.UpsertClaimantProfileHandler(r.Context(), r.PathValue("claimant_id"), req)
	if err != nil {
		s.writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireInternalCaller(w http.ResponseWriter, r *http.Request) bool {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		writeEngineError(w, http.StatusUnauthorized, "unauthorized", "Authorization bearer token is required")
		return false
	}
	token := strings.TrimSpace(parts[1])
	if s.internalToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.internalToken)) != 1 {
		s.logger.Warn("internal route rejected caller",
			"event", "claim_engine_internal_auth_rejected",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"path", r.URL.Path,
		)
		writeEngineError(w, http.StatusForbidden, "forbidden", "internal credential rejected")
		return false
	}
	return true
}

// writeEngineInputError is used by publish-time operations, where an inventory
// mismatch means the owner supplied the wrong number of codes.
func (s *Server) writeEngineInputError(w http.ResponseWriter, err error) {
	if errors.Is(err, domainerrors.ErrCodeInventoryMismatch) {
		writeEngineError(w, http.StatusBadRequest, "code_inventory_mismatch", err.Error())
		return
	}
	s.writeEngineDomainError(w, err)
}

func (s *Server) writeEngineDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrOutsideWindow):
		writeEngineError(w, http.StatusForbidden, "outside_window", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidPassword):
		writeEngineError(w, http.StatusForbidden, "invalid_password", err.Error())
	case errors.Is(err, domainerrors.ErrIdentityRequired):
		writeEngineError(w, http.StatusForbidden, "identity_required", err.Error())
	case errors.Is(err, domainerrors.ErrInsufficientTrust):
		writeEngineError(w, http.StatusForbidden, "insufficient_trust", err.Error())
	case errors.Is(err, domainerrors.ErrRiskTooHigh):
		writeEngineError(w, http.StatusForbidden, "risk_too_high", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyClaimed):
		writeEngineError(w, http.StatusConflict, "already_claimed", err.Error())
	case errors.Is(err, domainerrors.ErrQuotaExhausted):
		writeEngineError(w, http.StatusConflict, "quota_exhausted", err.Error())
	case errors.Is(err, domainerrors.ErrPoolNotFound):
		writeEngineError(w, http.StatusNotFound, "pool_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrApplicationNotFound):
		writeEngineError(w, http.StatusNotFound, "application_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrNotPoolOwner):
		writeEngineError(w, http.StatusForbidden, "not_pool_owner", err.Error())
	case errors.Is(err, domainerrors.ErrApplicationNotPending):
		writeEngineError(w, http.StatusConflict, "application_not_pending", err.Error())
	case errors.Is(err, domainerrors.ErrModeMismatch):
		writeEngineError(w, http.StatusConflict, "mode_mismatch", err.Error())
	case errors.Is(err, domainerrors.ErrReservationExpired):
		writeEngineError(w, http.StatusConflict, "reservation_expired", err.Error())
	case errors.Is(err, domainerrors.ErrDuplicateCode):
		writeEngineError(w, http.StatusBadRequest, "duplicate_code", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidPoolInput):
		writeEngineError(w, http.StatusBadRequest, "invalid_pool_input", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidClaimRequest):
		writeEngineError(w, http.StatusBadRequest, "invalid_claim_request", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidDecision):
		writeEngineError(w, http.StatusBadRequest, "invalid_decision", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidQuotaGrowth):
		writeEngineError(w, http.StatusBadRequest, "invalid_quota_growth", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidPagination):
		writeEngineError(w, http.StatusBadRequest, "invalid_pagination", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidProfile):
		writeEngineError(w, http.StatusBadRequest, "invalid_profile", err.Error())
	case errors.Is(err, domainerrors.ErrNoCodesAvailable),
		errors.Is(err, domainerrors.ErrCodeInventoryMismatch),
		errors.Is(err, domainerrors.ErrRepositoryInvariantBroke):
		s.logger.Error("claim engine consistency error",
			"event", "http_claim_engine_consistency_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"incident", "data_integrity",
			"error", err.Error(),
		)
		writeEngineError(w, http.StatusInternalServerError, "consistency_error", "allocation could not be completed")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeEngineError(w, http.StatusServiceUnavailable, "storage_unavailable", "storage temporarily unavailable")
	default:
		s.logger.Error("claim engine request failed",
			"event", "http_claim_engine_internal_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeEngineError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEngineError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, enginehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeEngineError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

// decodeBody reports whether the handler should continue. Empty bodies are
// accepted only when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func optionalInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
