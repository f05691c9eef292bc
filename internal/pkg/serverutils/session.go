package serverutils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalSessionID = "session_id"

	// HeaderSessionToken carries a re-issued token once the current one is
	// past half of its lifetime.
	HeaderSessionToken        = "X-Session-Token"
	HeaderSessionTokenExpires = "X-Session-Token-Expires"

	sessionIssuer = "pharmarag-chat"
)

var ErrUnauthorized = errors.New("missing or invalid session token")

// SessionClaims binds a token to one workspace.
type SessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// SessionTokens issues and verifies HMAC-signed session tokens.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionTokens(secret string, ttl time.Duration) *SessionTokens {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *SessionTokens) Issue(sessionID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse returns the session id carried by a valid token.
func (s *SessionTokens) Parse(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

func (s *SessionTokens) parse(token string) (*SessionClaims, error) {
	var claims SessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.SessionID == "" {
		return nil, ErrUnauthorized
	}
	return &claims, nil
}

// refresh re-issues the token when less than half of its lifetime is left,
// so an active session keeps a valid token as long as its workspace lives.
func (s *SessionTokens) refresh(ctx *fiber.Ctx, claims *SessionClaims) {
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Sub(s.now()) > s.ttl/2 {
		return
	}
	token, expiresAt, err := s.Issue(claims.SessionID)
	if err != nil {
		return
	}
	ctx.Set(HeaderSessionToken, token)
	ctx.Set(HeaderSessionTokenExpires, expiresAt.UTC().Format(time.RFC3339))
}

// Middleware resolves the session from the Authorization header, falling
// back to the token query parameter used by browser websockets. Tokens close
// to expiry are re-issued in HeaderSessionToken.
func (s *SessionTokens) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token := ctx.Query("token")
		if auth := ctx.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
		if token == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		claims, err := s.parse(token)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}
		s.refresh(ctx, claims)
		ctx.Locals(LocalSessionID, claims.SessionID)
		return ctx.Next()
	}
}

// SessionID returns the session resolved by Middleware.
func SessionID(ctx *fiber.Ctx) (string, error) {
	id, ok := ctx.Locals(LocalSessionID).(string)
	if !ok || id == "" {
		return "", ErrUnauthorized
	}
	return id, nil
}
