package httptransport

type GateConfigDTO struct {
	StartTime              string `json:"start_time,omitempty"`
	EndTime                string `json:"end_time,omitempty"`
	Password               string `json:"password,omitempty"`
	RequireTrustedIdentity bool   `json:"require_trusted_identity"`
	MinTrustLevel          int    `json:"min_trust_level"`
	MinRiskThreshold       int    `json:"min_risk_threshold"`
	IsPublic               bool   `json:"is_public"`
}

// CreatePoolRequest carries exactly one mode payload: codes for SINGLE,
// shared_code for MULTI, question1/question2 for MANUAL.
type CreatePoolRequest struct {
	Mode       string        `json:"mode"`
	TotalQuota int           `json:"total_quota"`
	Codes      []string      `json:"codes,omitempty"`
	SharedCode string        `json:"shared_code,omitempty"`
	Question1  string        `json:"question1,omitempty"`
	Question2  string        `json:"question2,omitempty"`
	Gate       GateConfigDTO `json:"gate"`
}

type PoolDTO struct {
	PoolID                 string `json:"pool_id"`
	OwnerID                string `json:"owner_id"`
	Mode                   string `json:"mode"`
	TotalQuota             int    `json:"total_quota"`
	ClaimedCount           int    `json:"claimed_count"`
	StartTime              string `json:"start_time"`
	EndTime                string `json:"end_time,omitempty"`
	PasswordProtected      bool   `json:"password_protected"`
	RequireTrustedIdentity bool   `json:"require_trusted_identity"`
	MinTrustLevel          int    `json:"min_trust_level"`
	MinRiskThreshold       int    `json:"min_risk_threshold"`
	IsPublic               bool   `json:"is_public"`
	Question1              string `json:"question1,omitempty"`
	Question2              string `json:"question2,omitempty"`
}

type CreatePoolResponse struct {
	Pool PoolDTO `json:"pool"`
}

type PoolStatusResponse struct {
	Pool                PoolDTO `json:"pool"`
	Remaining           int     `json:"remaining"`
	Exhausted           bool    `json:"exhausted"`
	Expired             bool    `json:"expired"`
	Open                bool    `json:"open"`
	PendingApplications int     `json:"pending_applications"`
	StoredCodes         int     `json:"stored_codes"`
	InventoryConsistent bool    `json:"inventory_consistent"`
}

type TryClaimRequest struct {
	Password string   `json:"password,omitempty"`
	Answers  []string `json:"answers,omitempty"`
}

type ClaimDTO struct {
	ClaimID       string `json:"claim_id"`
	PoolID        string `json:"pool_id"`
	ClaimantID    string `json:"claimant_id"`
	Mode          string `json:"mode"`
	ClaimedAt     string `json:"claimed_at"`
	CodeRef       string `json:"code_ref,omitempty"`
	ApplicationID string `json:"application_id,omitempty"`
}

type ApplicationDTO struct {
	ApplicationID string   `json:"application_id"`
	PoolID        string   `json:"pool_id"`
	ClaimantID    string   `json:"claimant_id"`
	Answers       []string `json:"answers"`
	Status        string   `json:"status"`
	SubmittedAt   string   `json:"submitted_at"`
	DecidedAt     string   `json:"decided_at,omitempty"`
	DecidedBy     string   `json:"decided_by,omitempty"`
}

type TryClaimResponse struct {
	Outcome     string          `json:"outcome"`
	Code        string          `json:"code,omitempty"`
	Claim       *ClaimDTO       `json:"claim,omitempty"`
	Application *ApplicationDTO `json:"application,omitempty"`
}

type ListClaimsResponse struct {
	Items      []ClaimDTO `json:"items"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalCount int        `json:"total_count"`
	HasMore    bool       `json:"has_more"`
}

type ListClaimantClaimsResponse struct {
	Items []ClaimDTO `json:"items"`
}

type GrowQuotaRequest struct {
	AdditionalSlots int      `json:"additional_slots"`
	AdditionalCodes []string `json:"additional_codes,omitempty"`
}

type SetPoolPasswordRequest struct {
	Password string `json:"password"`
}

type ReviewApplicationRequest struct {
	Decision string `json:"decision"`
}

type ReviewApplicationResponse struct {
	Application ApplicationDTO `json:"application"`
	Claim       *ClaimDTO      `json:"claim,omitempty"`
}

type ListApplicationsResponse struct {
	Items []ApplicationDTO `json:"items"`
}

type UpsertClaimantProfileRequest struct {
	HasTrustedIdentity bool `json:"has_trusted_identity"`
	TrustLevel         int  `json:"trust_level"`
	RiskScore          int  `json:"risk_score"`
}

type ClaimantProfileResponse struct {
	ClaimantID         string `json:"claimant_id"`
	HasTrustedIdentity bool   `json:"has_trusted_identity"`
	TrustLevel         int    `json:"trust_level"`
	RiskScore          int    `json:"risk_score"`
	UpdatedAt          string `json:"updated_at"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
