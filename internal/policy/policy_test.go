package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"secondmain/internal/models"
)

func TestCanMutate(t *testing.T) {
	t.Parallel()
	listing := &models.Listing{ID: 1, OwnerID: 10}

	tests := []struct {
		name  string
		actor *models.User
		want  bool
	}{
		{"Owner", &models.User{ID: 10, Role: models.RoleSeller}, true},
		{"Owner With Buyer Role", &models.User{ID: 10, Role: models.RoleBuyer}, true},
		{"Other Seller", &models.User{ID: 11, Role: models.RoleSeller}, false},
		{"Admin", &models.User{ID: 99, Role: models.RoleAdmin}, true},
		{"Nil Actor", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMutate(tt.actor, listing))
			err := AuthorizeMutation(tt.actor, listing)
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.True(t, models.HasCode(err, models.CodeForbidden))
			}
		})
	}

	assert.False(t, CanMutate(&models.User{ID: 10}, nil))
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	seller := &models.User{ID: 2, Role: models.RoleSeller}

	assert.NoError(t, RequireRole(admin, models.RoleAdmin))
	assert.NoError(t, RequireRole(seller, models.RoleSeller, models.RoleAdmin))
	assert.True(t, models.HasCode(RequireRole(seller, models.RoleAdmin), models.CodeForbidden))
	assert.True(t, models.HasCode(RequireRole(nil, models.RoleAdmin), models.CodeForbidden))
	assert.Error(t, RequireRole(admin))
}

func TestAllowedStatus(t *testing.T) {
	t.Parallel()
	admin := &models.User{Role: models.RoleAdmin}
	owner := &models.User{Role: models.RoleSeller}

	assert.True(t, AllowedStatus(owner, models.StatusSold))
	assert.True(t, AllowedStatus(owner, models.StatusActive))
	assert.False(t, AllowedStatus(owner, models.StatusSuspended))
	assert.True(t, AllowedStatus(admin, models.StatusSuspended))
	assert.False(t, AllowedStatus(admin, models.StatusDeleted))
	assert.False(t, AllowedStatus(admin, "archived"))
}
