package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/pinboard/internal/model"
	"github.com/d60-Lab/pinboard/internal/repository"
	"github.com/d60-Lab/pinboard/pkg/apperr"
	"github.com/d60-Lab/pinboard/pkg/logger"
	"github.com/d60-Lab/pinboard/pkg/token"
)

const minPasswordLen = 8

var ErrRevokedToken = errors.New("token has been revoked")

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

type ProfileInput struct {
	DisplayName string
	Bio         string
	PictureURL  string
}

type ProfileView struct {
	User    *model.User    `json:"user"`
	Profile *model.Profile `json:"profile,omitempty"`
}

// UserService 账号、登录态与个人资料
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, claims *token.Claims) error
	Authenticate(ctx context.Context, raw string) (*token.Claims, error)
	GetProfile(ctx context.Context, userID int64) (*ProfileView, error)
	UpsertProfile(ctx context.Context, userID int64, in ProfileInput) (*model.Profile, error)
}

type userService struct {
	store    *repository.Store
	tokens   *token.Manager
	sessions repository.SessionStore
	cost     int
	now      func() time.Time
}

func NewUserService(store *repository.Store, tokens *token.Manager, sessions repository.SessionStore) UserService {
	return &userService{store: store, tokens: tokens, sessions: sessions, cost: bcrypt.DefaultCost, now: utcNow}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" {
		return nil, apperr.InvalidInput("username and email are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.InvalidInput("email is invalid")
	}
	if len(in.Password) < minPasswordLen {
		return nil, apperr.InvalidInput("password must be at least 8 characters")
	}

	taken, err := s.store.Users.Taken(ctx, username, email)
	if err != nil {
		return nil, storeFailure(err, "failed to register user", zap.String("username", username))
	}
	if taken {
		return nil, apperr.Conflict("username or email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, storeFailure(err, "failed to register user")
	}
	u := &model.User{Username: username, Email: email, PasswordHash: string(hash), CreatedAt: s.now()}
	if err := s.store.Users.Create(ctx, u); err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflict("username or email is already registered")
		}
		return nil, storeFailure(err, "failed to register user", zap.String("username", username))
	}
	logger.Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := apperr.InvalidInput("invalid email or password")
	u, err := s.store.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if repository.IsNotFound(err) {
		return nil, invalid
	}
	if err != nil {
		return nil, storeFailure(err, "failed to log in")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, invalid
	}
	raw, claims, err := s.tokens.Generate(u.ID)
	if err != nil {
		return nil, storeFailure(err, "failed to log in", zap.Int64("user_id", u.ID))
	}
	return &LoginResult{Token: raw, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}

// Logout 将 jti 加入黑名单直至 token 自然过期
func (s *userService) Logout(ctx context.Context, claims *token.Claims) error {
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.sessions.Revoke(ctx, claims.ID, ttl); err != nil {
		return storeFailure(err, "failed to log out", zap.Int64("user_id", claims.UserID))
	}
	return nil
}

func (s *userService) Authenticate(ctx context.Context, raw string) (*token.Claims, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

func (s *userService) GetProfile(ctx context.Context, userID int64) (*ProfileView, error) {
	u, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookup(err, "user not found", "failed to load user", zap.Int64("user_id", userID))
	}
	p, err := s.store.Profiles.Get(ctx, userID)
	if err != nil && !repository.IsNotFound(err) {
		return nil, storeFailure(err, "failed to load profile", zap.Int64("user_id", userID))
	}
	return &ProfileView{User: u, Profile: p}, nil
}

func (s *userService) UpsertProfile(ctx context.Context, userID int64, in ProfileInput) (*model.Profile, error) {
	p := &model.Profile{
		UserID:      userID,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Bio:         strings.TrimSpace(in.Bio),
		PictureURL:  strings.TrimSpace(in.PictureURL),
		UpdatedAt:   s.now(),
	}
	if err := s.store.Profiles.Upsert(ctx, p); err != nil {
		return nil, storeFailure(err, "failed to save profile", zap.Int64("user_id", userID))
	}
	saved, err := s.store.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, storeFailure(err, "failed to load profile", zap.Int64("user_id", userID))
	}
	return saved, nil
}
