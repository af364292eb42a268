// Package policy holds the ownership and role rules applied before any write.
package policy

import (
	"secondmain/internal/models"
)

// CanMutate reports whether actor may modify listing: owners and admins only.
func CanMutate(actor *models.User, listing *models.Listing) bool {
	if actor == nil || listing == nil {
		return false
	}
	return actor.ID == listing.OwnerID || actor.Role == models.RoleAdmin
}

// AuthorizeMutation returns a forbidden error unless actor may modify listing.
func AuthorizeMutation(actor *models.User, listing *models.Listing) error {
	if !CanMutate(actor, listing) {
		return models.NewForbiddenError("You are not allowed to modify this listing")
	}
	return nil
}

// RequireRole returns a forbidden error unless actor holds one of allowed.
func RequireRole(actor *models.User, allowed ...models.Role) error {
	if actor != nil {
		for _, role := range allowed {
			if actor.Role == role {
				return nil
			}
		}
	}
	return models.NewForbiddenError("Insufficient permissions")
}

// AllowedStatus reports whether actor may move a listing to status through an
// update. Deletion goes through the dedicated delete operation.
func AllowedStatus(actor *models.User, status models.ListingStatus) bool {
	switch status {
	case models.StatusActive, models.StatusSold:
		return true
	case models.StatusSuspended:
		return actor.IsAdmin()
	default:
		return false
	}
}
