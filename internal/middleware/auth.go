package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"Xuunu.homeostasis/internal/models"
	"Xuunu.homeostasis/internal/utils"
)

var (
	ErrMissingUserID = errors.New("userId is required")
	ErrUserMismatch  = errors.New("userId does not match the authenticated user")
)

// Auth validates Auth0-issued bearer tokens and exposes the token subject to handlers.
type Auth struct {
	jwt *jwtmiddleware.JWTMiddleware
}

// NewAuth0 builds an Auth that checks RS256 tokens against the issuer's JWKS.
func NewAuth0(issuer, audience string) (*Auth, error) {
	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
	}
	return newAuth(jwtValidator.ValidateToken), nil
}

func newAuth(validate jwtmiddleware.ValidateToken) *Auth {
	return &Auth{
		jwt: jwtmiddleware.New(validate,
			jwtmiddleware.WithErrorHandler(onAuthError),
			jwtmiddleware.WithValidateOnOptions(false),
		),
	}
}

// Handler rejects requests without a valid token.
func (a *Auth) Handler(next http.Handler) http.Handler {
	return a.jwt.CheckJWT(next)
}

func onAuthError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("auth: rejected %s %s: %v", r.Method, r.URL.Path, err)
	message := "Invalid token"
	if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
		message = "Authorization header missing"
	}
	utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeUnauthorized, message, nil, http.StatusUnauthorized))
}

// Subject returns the authenticated user, if the request carried a token.
func Subject(ctx context.Context) (string, bool) {
	claims, ok := ctx.Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok || claims == nil || claims.RegisteredClaims.Subject == "" {
		return "", false
	}
	return claims.RegisteredClaims.Subject, true
}

// ResolveUserID decides which user a request acts for. With a token, an empty
// userId means the token subject and any other user is refused.
func ResolveUserID(ctx context.Context, requested string) (string, error) {
	subject, authenticated := Subject(ctx)
	switch {
	case !authenticated && requested == "":
		return "", ErrMissingUserID
	case !authenticated:
		return requested, nil
	case requested == "" || requested == subject:
		return subject, nil
	}
	return "", ErrUserMismatch
}
