package entities

import (
	"strings"
	"time"

	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "APPROVE"
	DecisionReject  ReviewDecision = "REJECT"
)

func (d ReviewDecision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

const maxAnswerLength = 2000

type Application struct {
	ApplicationID string
	PoolID        string
	ClaimantID    string
	Answers       [2]string
	Status        ApplicationStatus
	SubmittedAt   time.Time
	DecidedAt     *time.Time
	DecidedBy     string
}

// NewApplication builds a PENDING application. The first answer is required
// whenever the pool asks a first question.
func NewApplication(
	applicationID string,
	pool Pool,
	claimantID string,
	answers []string,
	now time.Time,
) (Application, error) {
	if pool.Mode != ModeManual {
		return Application{}, domainerrors.ErrModeMismatch
	}
	if strings.TrimSpace(applicationID) == "" || strings.TrimSpace(claimantID) == "" {
		return Application{}, domainerrors.ErrInvalidClaimRequest
	}
	if len(answers) > 2 {
		return Application{}, domainerrors.ErrInvalidClaimRequest
	}

	var normalized [2]string
	for i, answer := range answers {
		value := strings.TrimSpace(answer)
		if len(value) > maxAnswerLength {
			return Application{}, domainerrors.ErrInvalidClaimRequest
		}
		normalized[i] = value
	}
	if pool.Question1 != "" && normalized[0] == "" {
		return Application{}, domainerrors.ErrInvalidClaimRequest
	}

	return Application{
		ApplicationID: strings.TrimSpace(applicationID),
		PoolID:        pool.PoolID,
		ClaimantID:    strings.TrimSpace(claimantID),
		Answers:       normalized,
		Status:        ApplicationPending,
		SubmittedAt:   now.UTC(),
	}, nil
}

func (a Application) IsPending() bool {
	return a.Status == ApplicationPending
}

// Decide moves a PENDING application to its terminal status.
func (a Application) Decide(decision ReviewDecision, reviewerID string, at time.Time) (Application, error) {
	if !decision.Valid() || strings.TrimSpace(reviewerID) == "" {
		return Application{}, domainerrors.ErrInvalidDecision
	}
	if !a.IsPending() {
		return Application{}, domainerrors.ErrApplicationNotPending
	}
	decidedAt := at.UTC()
	a.DecidedAt = &decidedAt
	a.DecidedBy = strings.TrimSpace(reviewerID)
	if decision == DecisionApprove {
		a.Status = ApplicationApproved
	} else {
		a.Status = ApplicationRejected
	}
	return a, nil
}
