package authz

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "theater-warehouse/pkg/errors"
)

func TestHasPermission(t *testing.T) {
	all := []Capability{Read, Write, Delete, ManageUsers, ManageCategories}
	expected := map[Role][]Capability{
		RoleAdmin:   all,
		RoleManager: {Read, Write, Delete, ManageCategories},
		RoleUser:    {Read, Write},
		RoleViewer:  {Read},
	}

	for _, role := range Roles() {
		allowed := map[Capability]bool{}
		for _, c := range expected[role] {
			allowed[c] = true
		}
		for _, capability := range all {
			assert.Equal(t, allowed[capability], HasPermission(role, capability),
				"роль %s, возможность %s", role, capability)
		}
	}

	assert.False(t, HasPermission(Role("superuser"), Read))
	assert.False(t, Role("superuser").IsValid())
	assert.Empty(t, CapabilitiesFor(Role("superuser")))
}

func TestCapabilitiesForReturnsCopy(t *testing.T) {
	caps := CapabilitiesFor(RoleViewer)
	caps[0] = ManageUsers
	assert.False(t, HasPermission(RoleViewer, ManageUsers))
}

func TestGatekeeper_Authorize(t *testing.T) {
	g := NewGatekeeper()

	err := g.Authorize(nil, Read)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	viewer := &Actor{UserID: 4, Username: "viewer", Role: RoleViewer}
	assert.NoError(t, g.Authorize(viewer, Read))

	err = g.Authorize(viewer, Write)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))

	assert.True(t, g.Can(&Actor{Role: RoleAdmin}, ManageUsers))
	assert.False(t, g.Can(nil, Read))
}
