package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/pinboard/internal/repository"
	"github.com/d60-Lab/pinboard/internal/testutil"
	"github.com/d60-Lab/pinboard/pkg/apperr"
	"github.com/d60-Lab/pinboard/pkg/token"
)

func newUserService(t *testing.T, f *fixture) *userService {
	rdb, _ := testutil.NewRedis(t)
	return &userService{
		store:    f.store,
		tokens:   token.NewManager("test-secret", time.Hour, "pinboard"),
		sessions: repository.NewSessionStore(rdb),
		cost:     bcrypt.MinCost,
		now:      f.clock.Now,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(t, f)

	u, err := svc.Register(f.ctx, RegisterInput{Username: "alice", Email: "Alice@Example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "password1", u.PasswordHash)

	_, err = svc.Register(f.ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "password1"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.Register(f.ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "short"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = svc.Register(f.ctx, RegisterInput{Username: "bob", Email: "not-an-email", Password: "password1"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = svc.Login(f.ctx, "alice@example.com", "wrong")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	_, err = svc.Login(f.ctx, "nobody@example.com", "password1")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	res, err := svc.Login(f.ctx, "ALICE@example.com", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, u.ID, res.User.ID)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(t, f)
	_, err := svc.Register(f.ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password1"})
	require.NoError(t, err)
	res, err := svc.Login(f.ctx, "alice@example.com", "password1")
	require.NoError(t, err)

	claims, err := svc.Authenticate(f.ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	require.NoError(t, svc.Logout(f.ctx, claims))
	_, err = svc.Authenticate(f.ctx, res.Token)
	assert.ErrorIs(t, err, ErrRevokedToken)

	_, err = svc.Authenticate(f.ctx, "garbage")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(t, f)
	u := f.user(t, "alice")

	view, err := svc.GetProfile(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Profile)

	_, err = svc.UpsertProfile(f.ctx, u.ID, ProfileInput{DisplayName: "Alice", Bio: "hi"})
	require.NoError(t, err)
	p, err := svc.UpsertProfile(f.ctx, u.ID, ProfileInput{DisplayName: "Alice L."})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", p.DisplayName)
	assert.Equal(t, "", p.Bio)

	view, err = svc.GetProfile(f.ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Profile)
	assert.Equal(t, "Alice L.", view.Profile.DisplayName)

	_, err = svc.GetProfile(f.ctx, 999)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
