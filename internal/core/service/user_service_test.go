package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rvishnu/stockdesk/internal/core/domain"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (f *fakeUserRepo) Insert(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return &domain.DuplicateKeyError{Field: "email"}
		}
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func TestUserCreate(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), zap.NewNop())

	u, err := svc.Create(context.Background(), CreateUserInput{
		Name:     "Admin",
		Email:    "Admin@Example.COM",
		Password: "secret123",
		Role:     domain.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", u.Email, "email should be normalized")
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.NotEqual(t, "secret123", u.PasswordHash, "password must be hashed")
}

func TestUserCreateValidation(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Email: "a@b.c", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest, "missing name")

	_, err = svc.Create(ctx, CreateUserInput{Name: "a", Email: "a@b.c", Password: "x", Role: "superuser"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest, "unknown role")
}

func TestUserCreateDefaultsRole(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), zap.NewNop())

	u, err := svc.Create(context.Background(), CreateUserInput{Name: "a", Email: "a@b.c", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Name: "a", Email: "a@b.c", Password: "x"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateUserInput{Name: "b", Email: "a@b.c", Password: "y"})
	var dup *domain.DuplicateKeyError
	assert.ErrorAs(t, err, &dup)
}

func TestUserAuthenticate(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Name: "a", Email: "a@b.c", Password: "secret123"})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "a@b.c", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", u.Email)

	_, err = svc.Authenticate(ctx, "a@b.c", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "wrong password")

	_, err = svc.Authenticate(ctx, "missing@b.c", "secret123")
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "unknown email looks identical")
}

func TestUserDelete(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, zap.NewNop())
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateUserInput{Name: "a", Email: "a@b.c", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, u.ID.Hex()))
	assert.ErrorIs(t, svc.Delete(ctx, u.ID.Hex()), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "bad-id"), domain.ErrInvalidRequest)
}
