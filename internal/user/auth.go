package user

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/wichananm65/visioneer-backend/internal/response"
	"github.com/wichananm65/visioneer-backend/internal/session"
)

// TokenIssuer signs HS256 tokens carrying user_id, sid and exp claims.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

func (t *TokenIssuer) Issue(userID int, sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"sid":     sessionID,
		"iat":     issuedAt.Unix(),
		"exp":     expiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, error) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return nil, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// GetUserIDFromCtx extracts the user_id claim from the JWT token stored
// in c.Locals("user").
func GetUserIDFromCtx(c *fiber.Ctx) (int, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return 0, err
	}
	switch v := claims["user_id"].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fiber.ErrUnauthorized
		}
		return id, nil
	default:
		return 0, fiber.ErrUnauthorized
	}
}

func GetSessionIDFromCtx(c *fiber.Ctx) (string, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return "", err
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", fiber.ErrUnauthorized
	}
	return sid, nil
}

// RequireSession rejects requests whose token session was revoked or has
// expired. It runs after the JWT middleware has verified the signature.
func RequireSession(store session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := GetUserIDFromCtx(c)
		if err != nil {
			return response.Fail(c, fiber.StatusUnauthorized, "unauthorized")
		}
		sid, err := GetSessionIDFromCtx(c)
		if err != nil {
			return response.Fail(c, fiber.StatusUnauthorized, "unauthorized")
		}

		s, err := store.Get(c.UserContext(), sid)
		if errors.Is(err, session.ErrNotFound) || (err == nil && s.UserID != userID) {
			return response.Fail(c, fiber.StatusUnauthorized, "session expired or revoked")
		}
		if err != nil {
			return response.Fail(c, fiber.StatusServiceUnavailable, "session store unavailable")
		}
		return c.Next()
	}
}
