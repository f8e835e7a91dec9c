package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/user-directory/internal/repository"
	apperrors "github.com/spec-kit/user-directory/pkg/util"
)

const principalKey = "auth_principal"

// Principal is the verified caller identity attached to the request.
type Principal struct {
	SubjectID string
	TokenID   string
	Claims    *Claims
}

// SessionVerifier gates privileged routes. For each request it parses the
// bearer credential, checks the revocation list, and confirms the subject
// still resolves to a live record. One store read per request, no caching:
// a deleted account is rejected on its very next call.
type SessionVerifier struct {
	tokens  *TokenManager
	users   repository.UserRepository
	revoked *RevocationList
}

// NewSessionVerifier constructs the verifier middleware.
func NewSessionVerifier(tokens *TokenManager, users repository.UserRepository, revoked *RevocationList) *SessionVerifier {
	return &SessionVerifier{tokens: tokens, users: users, revoked: revoked}
}

// Handle enforces authentication for protected routes.
func (v *SessionVerifier) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := v.tokens.Parse(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	revoked, err := v.revoked.IsRevoked(c.UserContext(), claims.ID)
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	if revoked {
		return apperrors.NewUnauthorized("token revoked")
	}

	user, err := v.users.GetByID(c.UserContext(), claims.Subject)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("account no longer exists")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{SubjectID: user.ID, TokenID: claims.ID, Claims: claims})
	return c.Next()
}

// PrincipalFromContext retrieves the verified caller identity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
