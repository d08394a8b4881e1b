package validation

import "stockroom/internal/models"

// Enum values - these MUST match the values the store writes.
var (
	ValidRoles = []string{models.RoleUser, models.RoleAdmin}
)
