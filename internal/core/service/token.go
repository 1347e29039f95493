package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

// Claim names the backend has been seen to use, in lookup order.
var (
	idClaims = []string{
		"sub", "nameid", "userId", "id",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier",
	}
	roleClaims = []string{
		"role", "Role",
		"http://schemas.microsoft.com/ws/2008/06/identity/claims/role",
	}
	emailClaims = []string{
		"email",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress",
	}
	nameClaims = []string{
		"fullName", "name", "unique_name",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name",
	}
)

// TokenClaims is the identity carried inside an access token.
type TokenClaims struct {
	UserID    string
	Email     string
	FullName  string
	Role      domain.Role
	HasRole   bool
	ExpiresAt time.Time
}

// User builds the identity the claims describe.
func (c *TokenClaims) User() *domain.User {
	return &domain.User{ID: c.UserID, Email: c.Email, FullName: c.FullName, Role: c.Role}
}

// TokenDecoder reads access tokens. The backend is authoritative, so
// signatures are only verified when a shared HS256 secret is configured.
type TokenDecoder struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenDecoder returns a decoder; secret may be empty.
func NewTokenDecoder(secret string) *TokenDecoder {
	return &TokenDecoder{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Decode extracts the claims of token. Any parse or verification failure
// is reported as domain.ErrTokenUnreadable.
func (d *TokenDecoder) Decode(token string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	if len(d.secret) > 0 {
		tkn, err := d.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return d.secret, nil
		})
		if err != nil || !tkn.Valid {
			return nil, fmt.Errorf("decode token: %w", domain.ErrTokenUnreadable)
		}
	} else if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", domain.ErrTokenUnreadable)
	}

	out := &TokenClaims{
		UserID:   firstString(claims, idClaims),
		Email:    firstString(claims, emailClaims),
		FullName: firstString(claims, nameClaims),
	}
	if role := firstString(claims, roleClaims); role != "" {
		out.Role = domain.ParseRole(role)
		out.HasRole = true
	} else {
		out.Role = domain.RoleClient
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

func firstString(claims jwt.MapClaims, names []string) string {
	for _, name := range names {
		switch v := claims[name].(type) {
		case string:
			if v != "" {
				return v
			}
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					return s
				}
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
