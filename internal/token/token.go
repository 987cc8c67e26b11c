// Package token issues and verifies the signed bearer tokens that carry
// identity, role and permission claims. Tokens are self-contained: once
// issued, no database lookup is needed to authorize a request. They expire by
// time and are never revoked server-side, so role changes take effect on the
// next login.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coursedesk/coursedesk/internal/authz"
	"github.com/coursedesk/coursedesk/internal/platform/httpx"
)

// Config holds the signing material and claim constants shared by the issuer
// and the verifier.
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	Lifetime time.Duration
	Now      func() time.Time
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Claims is the wire shape of the token payload.
type Claims struct {
	jwt.RegisteredClaims
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"perms"`
}

// Issuer builds signed tokens for verified identities.
type Issuer struct {
	cfg     Config
	catalog authz.Catalog
}

// NewIssuer constructs an Issuer bound to the given catalog.
func NewIssuer(cfg Config, catalog authz.Catalog) *Issuer {
	return &Issuer{cfg: cfg, catalog: catalog}
}

// Issue signs a token for the identity. Role claims are expanded through the
// catalog into permission claims; duplicates across roles collapse to one.
func (i *Issuer) Issue(userID, name, email string, roles []authz.Role) (string, error) {
	if len(i.cfg.Secret) == 0 {
		return "", errors.New("token: signing secret not configured")
	}
	now := i.cfg.now().UTC()
	roleNames := make([]string, len(roles))
	for idx, role := range roles {
		roleNames[idx] = string(role)
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.Lifetime)),
		},
		Name:        name,
		Email:       email,
		Roles:       roleNames,
		Permissions: i.catalog.Expand(roles),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verifier validates incoming bearer tokens.
type Verifier struct {
	cfg Config
}

// NewVerifier constructs a Verifier.
func NewVerifier(cfg Config) *Verifier {
	return &Verifier{cfg: cfg}
}

// Verify checks signature, issuer, audience and expiry, then builds the
// request principal from the embedded claims. Any failure yields
// httpx.ErrUnauthorized so callers cannot distinguish why a token was
// rejected.
func (v *Verifier) Verify(tokenString string) (authz.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return v.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.cfg.now),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return authz.Principal{}, fmt.Errorf("%w: %s", httpx.ErrUnauthorized, tokenReason(err))
	}
	if claims.Subject == "" {
		return authz.Principal{}, fmt.Errorf("%w: token missing subject", httpx.ErrUnauthorized)
	}

	roles := make([]authz.Role, 0, len(claims.Roles))
	for _, name := range claims.Roles {
		role, err := authz.ParseRole(name)
		if err != nil {
			return authz.Principal{}, fmt.Errorf("%w: token carries unknown role", httpx.ErrUnauthorized)
		}
		roles = append(roles, role)
	}

	principal := authz.Principal{
		UserID:      claims.Subject,
		Name:        claims.Name,
		Email:       claims.Email,
		Roles:       roles,
		Permissions: claims.Permissions,
	}
	if claims.IssuedAt != nil {
		principal.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return principal, nil
}

func tokenReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "token signature invalid"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "token issuer mismatch"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "token audience mismatch"
	default:
		return "token invalid"
	}
}

var _ authz.TokenVerifier = (*Verifier)(nil)
