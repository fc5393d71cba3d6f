package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateBatchID generates a unique identifier for a batch run
func GenerateBatchID() string {
	return uuid.NewString()
}

// NodeName formats the name of the index-th node of a tier
func NodeName(tier string, index int) string {
	return fmt.Sprintf("%s-%d", tier, index)
}
