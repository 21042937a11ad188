package entities

import "time"

type ReservationStatus string

const (
	ReservationHeld      ReservationStatus = "HELD"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationReleased  ReservationStatus = "RELEASED"
)

// Reservation is the ledger token for one counted slot. A HELD reservation
// past ExpiresAt is released by the sweeper.
type Reservation struct {
	ReservationID string
	PoolID        string
	ClaimantID    string
	Status        ReservationStatus
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

func (r Reservation) IsHeld() bool {
	return r.Status == ReservationHeld
}

func (r Reservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationHeld && now.UTC().After(r.ExpiresAt)
}
