package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	xerrors "account-service/pkg/utils/errors"
)

const (
	PurposeAccess       = "access"
	PurposeVerification = "verification"
)

// Claims carries the user binding for access tokens and the embedded
// one-time token for verification payloads.
type Claims struct {
	UserID  string `json:"uid"`
	Device  string `json:"device,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	Token   string `json:"vt,omitempty"`
	jwt.RegisteredClaims
}

type Generator struct {
	secret   []byte
	issuer   string
	audience string
	Ttl      time.Duration
}

func NewGenerator(secret []byte, issuer, audience string, ttl time.Duration) *Generator {
	return &Generator{secret: secret, issuer: issuer, audience: audience, Ttl: ttl}
}

// Generate signs an access token bound to a user and device.
func (g *Generator) Generate(userID, device string) (string, string, error) {
	return g.sign(&Claims{
		UserID:  userID,
		Device:  device,
		Purpose: PurposeAccess,
	}, g.Ttl)
}

// SignVerification wraps a one-time verification token in a signed payload
// that expires together with the stored row.
func (g *Generator) SignVerification(userID, token string, ttl time.Duration) (string, error) {
	signed, _, err := g.sign(&Claims{
		UserID:  userID,
		Purpose: PurposeVerification,
		Token:   token,
	}, ttl)
	return signed, err
}

func (g *Generator) sign(claims *Claims, ttl time.Duration) (string, string, error) {
	if len(g.secret) == 0 {
		return "", "", fmt.Errorf("jwt generator has empty secret")
	}
	now := time.Now()
	jti := ulid.Make().String()

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    g.issuer,
		Subject:   claims.UserID,
		Audience:  []string{g.audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        jti,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(g.secret)
	return signed, jti, err
}

// Verify parses and validates a signed token, checking signature method,
// issuer and audience. Expired or malformed tokens map to the token
// sentinels so callers can classify without string matching.
func (g *Generator) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.secret, nil
	},
		jwt.WithIssuer(g.issuer),
		jwt.WithAudience(g.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, xerrors.ErrExpiredToken
		}
		return nil, xerrors.ErrInvalidToken
	}
	if !tok.Valid {
		return nil, xerrors.ErrInvalidToken
	}
	return claims, nil
}
