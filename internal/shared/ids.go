package shared

import "github.com/google/uuid"

// ValidID reports whether a path parameter is a well formed record id.
// Malformed ids are treated as missing records by the handlers.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
