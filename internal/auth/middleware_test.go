package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/user-directory/internal/domain"
	apperrors "github.com/spec-kit/user-directory/pkg/util"
)

type stubUserRepo struct {
	byID map[string]*domain.User
}

func (s *stubUserRepo) Create(context.Context, *domain.User) error { return nil }
func (s *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}
func (s *stubUserRepo) GetByUserName(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}
func (s *stubUserRepo) List(context.Context) ([]*domain.User, error) { return nil, nil }
func (s *stubUserRepo) UpdateUserName(context.Context, string, string) error {
	return nil
}
func (s *stubUserRepo) Delete(context.Context, string) error { return nil }

func newVerifierApp(t *testing.T, repo *stubUserRepo, revoked *RevocationList) (*fiber.App, *TokenManager) {
	t.Helper()
	tm := NewTokenManager("test-secret", 60)
	verifier := NewSessionVerifier(tm, repo, revoked)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{
				"success": false,
				"message": domainErr.Message,
			})
		},
	})
	app.Get("/protected", verifier.Handle, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		require.True(t, ok)
		return c.SendString(principal.SubjectID)
	})
	return app, tm
}

func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestVerifier_MissingHeader(t *testing.T) {
	app, _ := newVerifierApp(t, &stubUserRepo{}, NewRevocationList(nil))
	resp := doRequest(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerifier_MalformedHeader(t *testing.T) {
	app, _ := newVerifierApp(t, &stubUserRepo{}, NewRevocationList(nil))
	resp := doRequest(t, app, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerifier_GarbageToken(t *testing.T) {
	app, _ := newVerifierApp(t, &stubUserRepo{}, NewRevocationList(nil))
	resp := doRequest(t, app, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerifier_ValidToken(t *testing.T) {
	repo := &stubUserRepo{byID: map[string]*domain.User{
		"user-1": {ID: "user-1", UserName: "alice"},
	}}
	app, tm := newVerifierApp(t, repo, NewRevocationList(nil))

	token, _, err := tm.Issue("user-1")
	require.NoError(t, err)

	resp := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVerifier_DeletedSubject(t *testing.T) {
	// A live token whose account is gone must be rejected on the very
	// next request, before the credential's own expiry.
	app, tm := newVerifierApp(t, &stubUserRepo{}, NewRevocationList(nil))

	token, _, err := tm.Issue("user-1")
	require.NoError(t, err)

	resp := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerifier_RevocationStoreDown(t *testing.T) {
	// A verifier that cannot consult the denylist reports the store
	// outage rather than a credential failure.
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &stubUserRepo{byID: map[string]*domain.User{
		"user-1": {ID: "user-1", UserName: "alice"},
	}}
	app, tm := newVerifierApp(t, repo, NewRevocationList(client))

	token, _, err := tm.Issue("user-1")
	require.NoError(t, err)

	mr.Close()

	resp := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestVerifier_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	revoked := NewRevocationList(client)

	repo := &stubUserRepo{byID: map[string]*domain.User{
		"user-1": {ID: "user-1", UserName: "alice"},
	}}
	app, tm := newVerifierApp(t, repo, revoked)

	token, _, err := tm.Issue("user-1")
	require.NoError(t, err)
	claims, err := tm.Parse(token)
	require.NoError(t, err)
	require.NoError(t, revoked.Revoke(context.Background(), claims.ID, time.Now().Add(time.Hour)))

	resp := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
