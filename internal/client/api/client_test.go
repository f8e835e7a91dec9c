package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/is-auth", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "authenticated": true})
	}))
	defer srv.Close()

	client := New(srv.URL, "tok")
	ok, err := client.CheckAuth(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"users": []map[string]any{
				{"id": "1", "userName": "alice", "email": "alice@example.com", "isVerified": true},
				{"id": "2", "userName": "bob", "email": "bob@example.com", "isVerified": false},
			},
		})
	}))
	defer srv.Close()

	users, err := New(srv.URL, "tok").ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].UserName)
	assert.True(t, users[0].IsVerified)
}

func TestUpdateUserName_SendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/users/2", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "bobby", body["userName"])

		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "user updated successfully"})
	}))
	defer srv.Close()

	err := New(srv.URL, "tok").UpdateUserName(context.Background(), "2", "bobby")
	require.NoError(t, err)
}

func TestBusinessFailuresMapToSentinels(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"conflict", http.StatusConflict, ErrConflict},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"validation", http.StatusBadRequest, ErrValidation},
		{"store", http.StatusServiceUnavailable, ErrStore},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "nope"})
			}))
			defer srv.Close()

			err := New(srv.URL, "tok").UpdateUserName(context.Background(), "2", "alice")
			assert.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestUnauthorizedFiresHookOnAnyCall(t *testing.T) {
	// The hook is a single shared response-inspection stage: every
	// endpoint funnels through it, not just the auth probe.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := New(srv.URL, "stale")
	fired := 0
	client.OnUnauthenticated(func() { fired++ })

	_, err := client.ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	err = client.DeleteUser(context.Background(), "2")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.Equal(t, 2, fired, "hook fires once per failed response")
}

func TestForbiddenAlsoSignalsUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := New(srv.URL, "stale")
	fired := false
	client.OnUnauthenticated(func() { fired = true })

	_, err := client.Self(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.True(t, fired)
}

func TestNetworkErrorIsNotAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := New(srv.URL, "tok")
	fired := false
	client.OnUnauthenticated(func() { fired = true })

	_, err := client.ListUsers(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, fired)
}
