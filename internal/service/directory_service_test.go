package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/user-directory/internal/domain"
	"github.com/spec-kit/user-directory/internal/repository"
	apperrors "github.com/spec-kit/user-directory/pkg/util"
)

// fakeUserRepo enforces the same uniqueness contract as the Postgres
// implementation: writes racing on a taken name fail with ErrDuplicate and
// leave the stored state untouched.
type fakeUserRepo struct {
	users   []*domain.User
	listErr error
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range f.users {
		if u.UserName == user.UserName || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByUserName(_ context.Context, userName string) (*domain.User, error) {
	for _, u := range f.users {
		if u.UserName == userName {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(_ context.Context) ([]*domain.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

func (f *fakeUserRepo) UpdateUserName(_ context.Context, id, userName string) error {
	for _, u := range f.users {
		if u.ID != id && u.UserName == userName {
			return repository.ErrDuplicate
		}
	}
	for _, u := range f.users {
		if u.ID == id {
			u.UserName = userName
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	for i, u := range f.users {
		if u.ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func newService(users ...*domain.User) (*DirectoryService, *fakeUserRepo) {
	repo := &fakeUserRepo{users: users}
	return NewDirectoryService(DirectoryDependencies{UserRepo: repo}), repo
}

func seedUsers() []*domain.User {
	return []*domain.User{
		{ID: "1", UserName: "alice", Email: "alice@example.com", SecretHash: "x", IsVerified: true},
		{ID: "2", UserName: "bob", Email: "bob@example.com", SecretHash: "y"},
	}
}

func TestGetSelf(t *testing.T) {
	svc, _ := newService(seedUsers()...)

	summary, err := svc.GetSelf(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{ID: "1", UserName: "alice", IsVerified: true}, *summary)
}

func TestGetSelf_RecordVanished(t *testing.T) {
	svc, _ := newService(seedUsers()...)

	_, err := svc.GetSelf(context.Background(), "missing")
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestListAll_ProjectsProfilesOnly(t *testing.T) {
	svc, _ := newService(seedUsers()...)

	profiles, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, domain.Profile{ID: "1", UserName: "alice", Email: "alice@example.com", IsVerified: true}, profiles[0])
	assert.Equal(t, domain.Profile{ID: "2", UserName: "bob", Email: "bob@example.com"}, profiles[1])
}

func TestListAll_StoreUnavailable(t *testing.T) {
	svc, repo := newService(seedUsers()...)
	repo.listErr = context.DeadlineExceeded

	_, err := svc.ListAll(context.Background())
	assertDomainCode(t, err, "STORE_ERROR")
}

func TestUpdateUserName(t *testing.T) {
	svc, repo := newService(seedUsers()...)

	err := svc.UpdateUserName(context.Background(), "2", "bobby")
	require.NoError(t, err)
	assert.Equal(t, "bobby", repo.users[1].UserName)
}

func TestUpdateUserName_EmptyName(t *testing.T) {
	svc, _ := newService(seedUsers()...)

	err := svc.UpdateUserName(context.Background(), "2", "   ")
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateUserName_EmptyID(t *testing.T) {
	svc, _ := newService(seedUsers()...)

	err := svc.UpdateUserName(context.Background(), "", "bobby")
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateUserName_Missing(t *testing.T) {
	svc, _ := newService(seedUsers()...)

	err := svc.UpdateUserName(context.Background(), "99", "bobby")
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestUpdateUserName_DuplicateIsConflictAndStoreUnchanged(t *testing.T) {
	svc, repo := newService(seedUsers()...)

	err := svc.UpdateUserName(context.Background(), "2", "alice")
	assertDomainCode(t, err, "CONFLICT")
	assert.Equal(t, "bob", repo.users[1].UserName)
}

func TestUpdateUserName_TrimsBeforePersisting(t *testing.T) {
	svc, repo := newService(seedUsers()...)

	err := svc.UpdateUserName(context.Background(), "2", "  bobby  ")
	require.NoError(t, err)
	assert.Equal(t, "bobby", repo.users[1].UserName)

	// Collision detection runs on the trimmed value too.
	err = svc.UpdateUserName(context.Background(), "2", " alice ")
	assertDomainCode(t, err, "CONFLICT")
}

func TestUpdateUserName_SameNameForSameRecord(t *testing.T) {
	// Renaming a record to its current name is not a collision.
	svc, _ := newService(seedUsers()...)

	err := svc.UpdateUserName(context.Background(), "2", "bob")
	require.NoError(t, err)
}

func TestDeleteByID(t *testing.T) {
	svc, repo := newService(seedUsers()...)

	require.NoError(t, svc.DeleteByID(context.Background(), "1"))
	require.Len(t, repo.users, 1)

	// Hard removal: the id no longer resolves anywhere.
	_, err := svc.GetSelf(context.Background(), "1")
	assertDomainCode(t, err, "NOT_FOUND")

	// Idempotent failure on repeat.
	err = svc.DeleteByID(context.Background(), "1")
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestDeleteByID_EmptyID(t *testing.T) {
	svc, _ := newService(seedUsers()...)

	err := svc.DeleteByID(context.Background(), "")
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, code, domainErr.Code)
}
