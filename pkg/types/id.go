package types

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// GenerateOperationID generates a unique ID for a (possibly bulk) action request
func GenerateOperationID() string {
	return fmt.Sprintf("op_%s", ksuid.New().String())
}

// GenerateActionID generates a unique action record ID
func GenerateActionID() string {
	return fmt.Sprintf("act_%s", ksuid.New().String())
}

// GenerateID generates a generic unique ID (UUID v4)
func GenerateID() string {
	return uuid.New().String()
}
