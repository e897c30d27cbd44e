package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/procuredesk/procuredesk/internal/shared"
)

type staticPerms struct {
	perms []string
}

func (s staticPerms) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.perms, nil
}

func requestWithUser(t *testing.T, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/purchases", nil)
	sess := &shared.Session{}
	sess.SetUser(userID, false)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestRequireAnyGrantsMatchingPermission(t *testing.T) {
	mw := Middleware{Service: staticPerms{perms: PermissionsForRole(RoleStaff)}}
	var called bool
	handler := mw.RequireAny(PermPurchasingView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithUser(t, "1"))
	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAllRejectsStaffEdit(t *testing.T) {
	mw := Middleware{Service: staticPerms{perms: PermissionsForRole(RoleStaff)}}
	handler := mw.RequireAll(PermPurchasingEdit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithUser(t, "1"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAnyRejectsAnonymous(t *testing.T) {
	mw := Middleware{Service: staticPerms{perms: PermissionsForRole(RoleAdmin)}}
	handler := mw.RequireAny(PermPurchasingView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/purchases", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoleGrants(t *testing.T) {
	require.Contains(t, PermissionsForRole(RoleAdmin), PermRecycleRestore)
	require.Contains(t, PermissionsForRole(RoleManager), PermRecycleView)
	require.NotContains(t, PermissionsForRole(RoleManager), PermRecycleRestore)
	require.NotContains(t, PermissionsForRole(RoleStaff), PermPurchasingEdit)
	require.False(t, Role("supervisor").Valid())
}
