package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrUserNotFound is returned when no account matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned by Create when the email is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrRedisUnavailable wraps every Redis transport failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrInvalidUser is returned by Create for records missing email or hash.
	ErrInvalidUser = errors.New("invalid user record")
)

// Store is a Redis-backed user directory. It is safe for concurrent use.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a Store. An empty prefix defaults to "hd".
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "hd"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) userKey(id string) string {
	return s.prefix + ":user:" + id
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + NormalizeEmail(email)
}

// Create stores u under a fresh ID and returns the stored record.
// Concurrent creates for the same email resolve to one winner; the rest
// get ErrUserExists.
func (s *Store) Create(ctx context.Context, u User) (User, error) {
	if NormalizeEmail(u.Email) == "" || u.PasswordHash == "" {
		return User{}, ErrInvalidUser
	}

	u.ID = uuid.NewString()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	claimed, err := s.redis.SetNX(ctx, s.emailKey(u.Email), u.ID, 0).Result()
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !claimed {
		return User{}, ErrUserExists
	}

	data, err := json.Marshal(u)
	if err != nil {
		_ = s.redis.Del(ctx, s.emailKey(u.Email)).Err()
		return User{}, err
	}
	if err := s.redis.Set(ctx, s.userKey(u.ID), data, 0).Err(); err != nil {
		_ = s.redis.Del(ctx, s.emailKey(u.Email)).Err()
		return User{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return u, nil
}

// GetByID loads an account by ID.
func (s *Store) GetByID(ctx context.Context, id string) (User, error) {
	data, err := s.redis.Get(ctx, s.userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, fmt.Errorf("decode user %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail loads an account by email, case-insensitively.
func (s *Store) GetByEmail(ctx context.Context, email string) (User, error) {
	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.GetByID(ctx, id)
}

// UpdatePasswordHash replaces the stored hash of an account.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.userKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
