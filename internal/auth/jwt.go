// Package auth validates the bearer tokens terminals present. Tokens are
// minted by the staff login service; minting here is for cmd/seed and tests.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/enum"
)

const (
	Issuer = "tableside-pos"

	ShiftTokenTTL  = 12 * time.Hour
	DeviceTokenTTL = 30 * 24 * time.Hour

	// Terminal clocks drift; tolerate small skew on exp/iat.
	clockLeeway = 2 * time.Minute
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identify a staff member, or with Device set, a terminal's sync
// agent acting for whoever recorded each queued mutation.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	Device bool      `json:"device,omitempty"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, userID uuid.UUID, role string) (string, error) {
	return sign(secret, Claims{UserID: userID, Role: role}, ShiftTokenTTL)
}

func GenerateDeviceToken(secret string, deviceID uuid.UUID, role string) (string, error) {
	return sign(secret, Claims{
		UserID:           deviceID,
		Role:             role,
		Device:           true,
		RegisteredClaims: jwt.RegisteredClaims{Subject: deviceID.String()},
	}, DeviceTokenTTL)
}

func sign(secret string, c Claims, ttl time.Duration) (string, error) {
	if !knownRole(c.Role) {
		return "", fmt.Errorf("unknown role %q", c.Role)
	}
	now := time.Now()
	c.Issuer = Issuer
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// ValidateToken parses an HS256 token from this issuer. Any failure is
// reported as ErrInvalidToken wrapping the cause.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockLeeway),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == uuid.Nil || !knownRole(claims.Role) {
		return nil, fmt.Errorf("%w: missing user or role", ErrInvalidToken)
	}
	return claims, nil
}

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the token query parameter used by websocket clients.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func knownRole(role string) bool {
	return role == enum.UserRoleServer || role == enum.UserRoleManager
}
