package machine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// ID is a value object identifying one placed machine
type ID struct {
	value string
}

// NewID creates an ID from a generated UUID
func NewID() ID {
	return ID{value: uuid.New().String()}
}

// ParseID creates an ID from an existing UUID string
func ParseID(id string) (ID, error) {
	if id == "" {
		return ID{}, shared.NewValidationError("id", "machine id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return ID{}, shared.NewValidationError("id", fmt.Sprintf("invalid machine id format: %v", err))
	}
	return ID{value: id}, nil
}

// MustParseID parses id, panicking if invalid.
// Use this only for ids read back from storage.
func MustParseID(id string) ID {
	mid, err := ParseID(id)
	if err != nil {
		panic(err)
	}
	return mid
}

func (i ID) String() string {
	return i.value
}

// Equals checks if two IDs are equal
func (i ID) Equals(other ID) bool {
	return i.value == other.value
}

// IsZero checks if the ID is uninitialised
func (i ID) IsZero() bool {
	return i.value == ""
}
