package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/user-directory/internal/auth"
	"github.com/spec-kit/user-directory/internal/domain"
	"github.com/spec-kit/user-directory/internal/repository"
)

// demoAccounts are created when SEED_DEMO_USERS=true. Credential issuance
// lives outside this service, so a freshly migrated database would
// otherwise have no account a session token could resolve to.
var demoAccounts = []struct {
	UserName string
	Email    string
	Secret   string
	Verified bool
}{
	{UserName: "alice", Email: "alice@example.com", Secret: "alice-secret", Verified: true},
	{UserName: "bob", Email: "bob@example.com", Secret: "bob-secret", Verified: true},
	{UserName: "carol", Email: "carol@example.com", Secret: "carol-secret", Verified: false},
}

// SeedDemoUsers inserts the demo accounts if they are not present and logs
// a ready-to-use session token for each. Development plumbing only.
func SeedDemoUsers(ctx context.Context, users repository.UserRepository, tokens *auth.TokenManager, bcryptCost int, logger *zap.Logger) error {
	for _, account := range demoAccounts {
		existing, err := users.GetByUserName(ctx, account.UserName)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		if existing == nil {
			hash, err := auth.HashSecret(account.Secret, bcryptCost)
			if err != nil {
				return err
			}
			existing = &domain.User{
				ID:         uuid.NewString(),
				UserName:   account.UserName,
				Email:      account.Email,
				SecretHash: hash,
				IsVerified: account.Verified,
			}
			if err := users.Create(ctx, existing); err != nil {
				return err
			}
		}

		token, exp, err := tokens.Issue(existing.ID)
		if err != nil {
			return err
		}
		logger.Info("demo account ready",
			zap.String("userName", existing.UserName),
			zap.String("id", existing.ID),
			zap.String("token", token),
			zap.Time("expiresAt", exp),
		)
	}
	return nil
}
