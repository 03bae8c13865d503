package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/collabwave/collabwave/internal/apperror"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// sessionKey returns the Redis key of a token. Keys hold a BLAKE2b-256
// digest of the token, never the token itself.
func sessionKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return sessionKeyPrefix + hex.EncodeToString(sum[:])
}

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// AuthService defines the session and user lookup contract. Handlers call
// these methods -- they never touch the repository directly.
type AuthService interface {
	// ValidateSession returns the session stored under token, or an
	// unauthorized error when it is missing or expired.
	ValidateSession(ctx context.Context, token string) (*Session, error)

	// CreateSession stores a new session for user and returns its token.
	CreateSession(ctx context.Context, user *User) (string, error)

	// DisplayName returns the current display name of a user. It satisfies
	// activity.UserDirectory.
	DisplayName(ctx context.Context, userID string) (string, error)
}

// authService implements AuthService with Redis sessions.
type authService struct {
	repo       UserRepository
	redis      *redis.Client
	sessionTTL time.Duration
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, rdb *redis.Client, sessionTTL time.Duration) AuthService {
	return &authService{
		repo:       repo,
		redis:      rdb,
		sessionTTL: sessionTTL,
	}
}

// ValidateSession looks up a session token in Redis and returns the session
// data if it exists and hasn't expired.
func (s *authService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}
	if session.UserID == "" {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}

	return &session, nil
}

// CreateSession generates a random session token, stores the session data in
// Redis with the configured TTL, and returns the token.
func (s *authService) CreateSession(ctx context.Context, user *User) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("generating session token: %w", err))
	}

	session := Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.DisplayName,
		IsAdmin:   user.IsAdmin,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("marshaling session: %w", err))
	}

	if err := s.redis.Set(ctx, sessionKey(token), data, s.sessionTTL).Err(); err != nil {
		return "", apperror.NewInternal(fmt.Errorf("storing session in Redis: %w", err))
	}

	return token, nil
}

// DisplayName resolves the name shown in activity text.
func (s *authService) DisplayName(ctx context.Context, userID string) (string, error) {
	return s.repo.FindDisplayName(ctx, userID)
}

// generateSessionToken creates a cryptographically random hex token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
