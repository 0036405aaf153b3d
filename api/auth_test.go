package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
)

func TestAuth_IssueAndVerify(t *testing.T) {
	auth := NewAuth("secret", "timesheet-test", time.Hour)

	token, expires, err := auth.Issue("alice", generic.RoleEmployee)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	id, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "alice", Role: generic.RoleEmployee}, id)
}

func TestAuth_RejectsForeignTokens(t *testing.T) {
	auth := NewAuth("secret", "timesheet-test", time.Hour)

	tests := []struct {
		name   string
		issuer *Auth
	}{
		{name: "other secret", issuer: NewAuth("other", "timesheet-test", time.Hour)},
		{name: "other issuer", issuer: NewAuth("secret", "someone-else", time.Hour)},
		{name: "expired", issuer: NewAuth("secret", "timesheet-test", -time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := tt.issuer.Issue("alice", generic.RoleEmployee)
			require.NoError(t, err)
			_, err = auth.Verify(token)
			assert.Error(t, err)
		})
	}
}

func TestAuth_MiddlewareAndRequireAdmin(t *testing.T) {
	auth := NewAuth("secret", "timesheet-test", time.Hour)
	var seen Identity
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := auth.Middleware(RequireAdmin(ok))

	call := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	adminToken, _, err := auth.Issue("root", generic.RoleSuperAdmin)
	require.NoError(t, err)
	employeeToken, _, err := auth.Issue("alice", generic.RoleEmployee)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer not-a-jwt"))
	assert.Equal(t, http.StatusForbidden, call("Bearer "+employeeToken))
	assert.Equal(t, http.StatusNoContent, call("Bearer "+adminToken))
	assert.Equal(t, generic.UserID("root"), seen.UserID)
}
