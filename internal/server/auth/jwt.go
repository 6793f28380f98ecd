// Package auth implements the stateless access-token codec: a signed,
// time-bounded claim set minted at login and verified without any store
// lookup. Revocation latency is bounded by the short token lifetime.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
)

// expiryLeeway absorbs small clock skew between the issuing and validating
// hosts when checking exp/iat.
const expiryLeeway = 5 * time.Second

// Claims is the access-token claim set: subject (user id), display name
// (email local part), and role, on top of the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// Codec mints and verifies access tokens with a shared HMAC secret. The
// secret is injected so environments and tests can use distinct keys.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec returns a Codec signing with secret and minting tokens valid
// for ttl.
func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl}
}

// TTL reports the configured access-token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Mint signs a new HS256 token for the given user with iat=now and
// exp=now+ttl.
func (c *Codec) Mint(userID, name, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Name: name,
		Role: role,
	})
	return token.SignedString(c.secret)
}

// Decode verifies the signature and expiry of a token string and returns its
// claims. It returns common.ErrTokenExpired for expired tokens and
// common.ErrInvalidToken for anything else (bad signature, malformed input,
// wrong algorithm).
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(expiryLeeway),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
