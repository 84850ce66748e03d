package guard

import (
	"fmt"

	jwtstd "github.com/golang-jwt/jwt/v5"

	"github.com/gqlkit/relay/gqlctx"
)

// Scratch-map keys written by the built-in guards.
const (
	// ClaimsKey holds the verified jwt.MapClaims attached by JWT.
	ClaimsKey = "jwt_claims"

	// RolesKey holds the []string of roles attached by JWT.
	RolesKey = "user_roles"
)

// Authenticated requires that a user identity has been established,
// either upstream by the transport or by an earlier JWT guard.
func Authenticated() Guard {
	return Func("authenticated", func(rc *gqlctx.Context) Decision {
		if rc.UserID() == "" {
			return Deny("authentication required")
		}
		return Allow()
	})
}

// JWT verifies the request's bearer token with the given HMAC key and, on
// success, attaches the claims and roles to the context scratch map and
// derives the user id from the subject claim. Place it before guards
// that consume ClaimsKey or RolesKey.
func JWT(key []byte) Guard {
	return Func("jwt", func(rc *gqlctx.Context) Decision {
		raw := rc.BearerToken()
		if raw == "" {
			return Deny("authentication required")
		}
		token, err := jwtstd.Parse(raw, func(t *jwtstd.Token) (any, error) {
			if _, ok := t.Method.(*jwtstd.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			return Deny("invalid token")
		}
		claims, ok := token.Claims.(jwtstd.MapClaims)
		if !ok {
			return Deny("invalid token")
		}
		rc.Set(ClaimsKey, claims)
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			rc.SetUserID(sub)
		}
		if rawRoles, ok := claims["roles"].([]any); ok {
			roles := make([]string, 0, len(rawRoles))
			for _, r := range rawRoles {
				if s, ok := r.(string); ok {
					roles = append(roles, s)
				}
			}
			rc.Set(RolesKey, roles)
		}
		return Allow()
	})
}

// RequireRole requires that an earlier guard attached the given role to
// the context.
func RequireRole(role string) Guard {
	return Func("require_role:"+role, func(rc *gqlctx.Context) Decision {
		if roles, ok := rc.Get(RolesKey); ok {
			if list, ok := roles.([]string); ok {
				for _, r := range list {
					if r == role {
						return Allow()
					}
				}
			}
		}
		return Deny("insufficient permissions")
	})
}
