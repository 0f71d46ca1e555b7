package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Arielpetit/UDM/internal/common"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// contextKey is where echo-jwt leaves the parsed token.
const contextKey = "user"

type AuthConfig struct {
	JWTSecret string
	JWKSURL   string
}

// Authenticator verifies bearer tokens with either a shared HMAC secret or a
// remote JWKS, and puts the token subject on the request context.
type Authenticator struct {
	jwks *keyfunc.JWKS
	mw   echo.MiddlewareFunc
}

// NewAuthenticator returns nil when neither a secret nor a JWKS URL is configured.
func NewAuthenticator(cfg AuthConfig, log zerolog.Logger) (*Authenticator, error) {
	jwtConfig := echojwt.Config{
		ContextKey: contextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(jwt.RegisteredClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Invalid token", nil))
		},
	}

	a := &Authenticator{}
	switch {
	case cfg.JWKSURL != "":
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Warn().Err(err).Str("jwks_url", cfg.JWKSURL).Msg("JWKS refresh failed")
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load JWKS: %w", err)
		}
		a.jwks = jwks
		jwtConfig.KeyFunc = jwks.Keyfunc
	case cfg.JWTSecret != "":
		jwtConfig.SigningKey = []byte(cfg.JWTSecret)
		jwtConfig.SigningMethod = jwt.SigningMethodHS256.Alg()
	default:
		return nil, nil
	}

	verify := echojwt.WithConfig(jwtConfig)
	a.mw = func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(withSubject(next))
	}
	return a, nil
}

// Middleware protects a route group. A nil Authenticator lets every request through.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	if a == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return a.mw
}

// Close stops the background JWKS refresh.
func (a *Authenticator) Close() {
	if a != nil && a.jwks != nil {
		a.jwks.EndBackground()
	}
}

func withSubject(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get(contextKey).(*jwt.Token)
		if !ok {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Invalid token", nil))
		}
		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Missing subject in token", nil))
		}
		c.SetRequest(c.Request().WithContext(common.WithSubject(c.Request().Context(), sub)))
		return next(c)
	}
}
