package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/lingo-server/internal/infrastructure/auth"
)

// ValidateTokenOption ...
type ValidateTokenOption struct {
	InBlackList func(ctx context.Context, token string) (bool, error)
	// Optional let anonymous requests through without claims in context
	Optional bool
}

// RefreshTokenOption ...
type RefreshTokenOption struct {
	Threshold time.Duration
}

// VerifyToken validate JWT
func VerifyToken(ju *auth.JWTUtil, options ...*ValidateTokenOption) echo.MiddlewareFunc {
	inBlacklist := func(context.Context, string) (bool, error) { return true, nil }
	optional := false
	if len(options) > 0 {
		option := options[0]
		if option.InBlackList != nil {
			inBlacklist = option.InBlackList
		}
		optional = option.Optional
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reject := func() error {
				if optional {
					return next(c)
				}
				return c.NoContent(http.StatusUnauthorized)
			}

			tokenStr, err := ju.ExtractToken(c)
			if err != nil || tokenStr == "" {
				return reject()
			}

			if ok, err := inBlacklist(c.Request().Context(), tokenStr); err != nil {
				return err
			} else if ok {
				return reject()
			}

			token, err := ju.Validate(tokenStr)
			if err != nil {
				return reject()
			}
			ju.SetContextToken(c, token)
			return next(c)
		}
	}
}

// RefreshToken refresh jwt if necessary, must be chained after VerifyToken
func RefreshToken(ju *auth.JWTUtil, options ...*RefreshTokenOption) echo.MiddlewareFunc {
	threshold := 5 * time.Minute
	if len(options) > 0 {
		if option := options[0]; option.Threshold > 0 {
			threshold = option.Threshold
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ju.GetContextToken(c)
			if claims == nil {
				return next(c)
			}
			exp := claims.ExpiresAt
			if time.Until(time.Unix(exp, 0)) < threshold {
				ju.RefreshToken(claims)
				if tokenStr, err := ju.Sign(claims); err == nil {
					ju.SetClientToken(c, tokenStr)
				} else {
					return err
				}
			}
			return next(c)
		}
	}
}
