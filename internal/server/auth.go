package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"

	"intakeflow/internal/domain"
	"intakeflow/internal/repo"
)

type AuthConfig struct {
	JWTSecret string
	// AllowLegacyActorHeaders accepts X-User-Id/X-User-Name/X-Role in
	// place of a token. Meant for local use and tests only.
	AllowLegacyActorHeaders bool
	Logger                  *log.Logger
}

// Principal is the authenticated caller. Klant sessions carry the form
// their token resolved to.
type Principal struct {
	UserID      string
	Name        string
	Role        domain.Role
	Source      string
	KlantFormID string
}

type principalKey struct{}

func (c AuthConfig) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func userFromContext(ctx context.Context) (domain.User, huma.StatusError) {
	if p, ok := principalFromContext(ctx); ok && p.UserID != "" {
		return domain.User{ID: p.UserID, Name: p.Name, Role: p.Role}, nil
	}
	return domain.User{}, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

func authenticateJWT(token, secret string) (Principal, error) {
	if strings.TrimSpace(secret) == "" {
		return Principal{}, errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwtClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, err
	}
	if !parsed.Valid {
		return Principal{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return Principal{}, errors.New("subject claim required")
	}
	return Principal{
		UserID: claims.Subject,
		Name:   claims.Name,
		Role:   domain.Role(claims.Role),
		Source: "jwt",
	}, nil
}

// authenticateKlantToken resolves an opaque form token to a klant
// principal. The token is refused outside the client-facing statuses
// even though it stays stored on the form.
func authenticateKlantToken(ctx context.Context, r repo.Repo, token string) (Principal, error) {
	form, err := r.GetFormByKlantToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return Principal{}, err
	}
	if !form.KlantTokenUsable() {
		return Principal{}, errors.New("klant token not usable in current status")
	}
	return Principal{
		UserID:      form.KlantID,
		Name:        form.KlantNaam,
		Role:        domain.RoleKlant,
		Source:      "klant_token",
		KlantFormID: form.ID,
	}, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func newAuthMiddleware(basePath string, cfg AuthConfig, r repo.Repo) func(http.Handler) http.Handler {
	healthPath := path.Join(basePath, "health")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if basePath != "" && !strings.HasPrefix(req.URL.Path, basePath) {
				next.ServeHTTP(w, req)
				return
			}
			if req.URL.Path == healthPath {
				next.ServeHTTP(w, req)
				return
			}

			authz := strings.TrimSpace(req.Header.Get("Authorization"))
			klantToken := strings.TrimSpace(req.Header.Get("X-Klant-Token"))
			legacyUser := strings.TrimSpace(req.Header.Get("X-User-Id"))

			if authz != "" {
				token, ok := bearerToken(authz)
				if !ok {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				principal, err := authenticateJWT(token, cfg.JWTSecret)
				if err != nil {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), principal)))
				return
			}

			if klantToken != "" {
				principal, err := authenticateKlantToken(req.Context(), r, klantToken)
				if err != nil {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), principal)))
				return
			}

			if legacyUser != "" && cfg.AllowLegacyActorHeaders {
				cfg.logger().Printf("WARNING: using legacy X-User-Id header without auth (user_id=%s)", legacyUser)
				principal := Principal{
					UserID: legacyUser,
					Name:   strings.TrimSpace(req.Header.Get("X-User-Name")),
					Role:   domain.Role(strings.TrimSpace(req.Header.Get("X-Role"))),
					Source: "legacy_header",
				}
				next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), principal)))
				return
			}

			respondStatusError(w, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil))
		})
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}
