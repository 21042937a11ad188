package entities

import "time"

// CodeEntry is one single-use code of a SINGLE pool.
type CodeEntry struct {
	CodeID        string
	PoolID        string
	Code          string
	Position      int
	ReservedBy    string
	ReservationID string
	ReservedAt    *time.Time
}

func (c CodeEntry) IsReserved() bool {
	return c.ReservedBy != ""
}

// SharedCode is the read-only code of a MULTI pool.
type SharedCode struct {
	PoolID string
	Code   string
}
