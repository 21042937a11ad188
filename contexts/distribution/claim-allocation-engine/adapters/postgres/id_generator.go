package postgresadapter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// UUIDGenerator issues time-ordered UUIDv7 identifiers, so claim ids sort in
// creation order when claimed_at ties.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuidv7: %w", err)
	}
	return id.String(), nil
}
