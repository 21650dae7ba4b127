package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatortutors/gator-tutors-api/internal/models"
	appErrors "github.com/gatortutors/gator-tutors-api/pkg/errors"
)

type stubUserRepo struct {
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User
	tokens       map[string]*models.RefreshToken
	revoked      []string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		usersByEmail: map[string]*models.User{},
		usersByID:    map[string]*models.User{},
		tokens:       map[string]*models.RefreshToken{},
	}
}

func (s *stubUserRepo) addUser(user *models.User) {
	s.usersByEmail[user.Email] = user
	s.usersByID[user.ID] = user
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.usersByEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.usersByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u-new"
	}
	s.addUser(user)
	return nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (s *stubUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (s *stubUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	s.tokens[token.Token] = token
	return nil
}

func (s *stubUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := s.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (s *stubUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	s.revoked = append(s.revoked, id)
	for _, rt := range s.tokens {
		if rt.ID == id {
			rt.Revoked = true
		}
	}
	return nil
}

func newTestAuthService(repo *stubUserRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "gator-tutors-api",
	})
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceRegisterIssuesSession(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	session, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "New.Student@UFL.edu",
		Password: "correct horse",
		FullName: "New Student",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, models.RoleStudent, session.User.Role)
	assert.Equal(t, "new.student@ufl.edu", session.User.Email)
}

func TestAuthServiceRegisterConflictOnDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	repo.addUser(&models.User{ID: "u1", Email: "taken@ufl.edu", Active: true})
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "taken@ufl.edu",
		Password: "correct horse",
		FullName: "Dup",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginRejectsBadPassword(t *testing.T) {
	repo := newStubUserRepo()
	repo.addUser(&models.User{ID: "u1", Email: "alice@ufl.edu", PasswordHash: hashPassword(t, "right"), Active: true})
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@ufl.edu", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginAndValidateToken(t *testing.T) {
	repo := newStubUserRepo()
	repo.addUser(&models.User{ID: "u1", Email: "alice@ufl.edu", FullName: "Alice", Role: models.RoleTutor, PasswordHash: hashPassword(t, "right"), Active: true})
	svc := newTestAuthService(repo)

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@ufl.edu", Password: "right"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleTutor, claims.Role)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newStubUserRepo()
	repo.addUser(&models.User{ID: "u1", Email: "alice@ufl.edu", PasswordHash: hashPassword(t, "right"), Active: true})
	svc := newTestAuthService(repo)

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@ufl.edu", Password: "right"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: session.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, refreshed.RefreshToken)

	// The original token is single-use.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: session.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutChecksOwnership(t *testing.T) {
	repo := newStubUserRepo()
	repo.addUser(&models.User{ID: "u1", Email: "alice@ufl.edu", PasswordHash: hashPassword(t, "right"), Active: true})
	svc := newTestAuthService(repo)

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@ufl.edu", Password: "right"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), session.RefreshToken, "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken, "u1"))
	assert.NotEmpty(t, repo.revoked)
}
