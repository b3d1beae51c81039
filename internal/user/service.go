package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/session"
)

// InvalidInputError carries per-field problems found while registering.
type InvalidInputError struct {
	Fields map[string]string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %d field(s)", len(e.Fields))
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginResult struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	repo     Repository
	sessions session.Store
	tokens   *TokenIssuer
	ttl      time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewService(repo Repository, sessions session.Store, tokens *TokenIssuer, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		repo:     repo,
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.With("service", "UserService"),
	}
}

func (s *Service) GetByID(ctx context.Context, id int) (User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	return sanitizeUser(user), nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	fields := map[string]string{}
	if !ValidEmail(in.Email) {
		fields["email"] = "must be a valid email address"
	}
	if problems := PasswordProblems(in.Password); len(problems) > 0 {
		fields["password"] = strings.Join(problems, "; ")
	}
	if in.Name == "" {
		fields["name"] = "is required"
	}
	if len(fields) > 0 {
		return User{}, &InvalidInputError{Fields: fields}
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := s.now()
	created, err := s.repo.Create(ctx, User{
		Email:     in.Email,
		Password:  string(hashed),
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return User{}, err
	}
	s.log.Info("user registered", "user_id", created.ID)
	return sanitizeUser(created), nil
}

func (s *Service) authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Login checks credentials, opens a session and returns a token bound to it.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}

	now := s.now()
	sess := session.New(user.ID)
	if err := s.sessions.Put(ctx, sess, s.ttl); err != nil {
		return LoginResult{}, fmt.Errorf("store session: %w", err)
	}
	expiresAt := now.Add(s.ttl)
	token, err := s.tokens.Issue(user.ID, sess.ID, now, expiresAt)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	user.LastLogin = &now
	if updated, err := s.repo.Update(ctx, user.ID, User{Name: user.Name, UpdatedAt: user.UpdatedAt, LastLogin: &now}); err == nil {
		user = updated
	} else {
		s.log.Warn("could not record last login", "user_id", user.ID, "error", err)
	}

	return LoginResult{User: sanitizeUser(user), Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// LogoutAll revokes every session the user holds and reports how many.
func (s *Service) LogoutAll(ctx context.Context, userID int) (int, error) {
	return s.sessions.DeleteByUser(ctx, userID)
}

func (s *Service) UpdateName(ctx context.Context, userID int, name string) (User, error) {
	existing, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	existing.Name = strings.TrimSpace(name)
	existing.Password = ""
	existing.LastLogin = nil
	existing.UpdatedAt = s.now()
	updated, err := s.repo.Update(ctx, userID, existing)
	if err != nil {
		return User{}, err
	}
	return sanitizeUser(updated), nil
}

// Delete removes the account and every session it holds.
func (s *Service) Delete(ctx context.Context, userID int) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	if _, err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		s.log.Warn("could not revoke sessions of deleted user", "user_id", userID, "error", err)
	}
	return nil
}
