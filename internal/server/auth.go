package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"scorecard/internal/repo"
)

const (
	anonymousActor = "anonymous"
	devTokenIssuer = "scorecard-dev"
	devTokenTTL    = 12 * time.Hour
)

// AuthConfig controls how API callers are identified. Credentials are
// tried in order: bearer JWT, X-Api-Key, then X-Actor-Id when
// AllowActorHeader is set. Invalid credentials are always rejected;
// Required additionally rejects requests that carry none.
type AuthConfig struct {
	Required         bool
	JWTSecret        string
	AllowActorHeader bool
	Logger           *zap.Logger
}

// Principal is the actor a request runs as. It is recorded on every event
// the request causes.
type Principal struct {
	ActorID string
	Source  string
}

var (
	errNoCredentials  = errors.New("authentication required")
	errBadCredentials = errors.New("invalid credentials")
)

type principalKey struct{}

func actorIDFromContext(ctx context.Context) (string, huma.StatusError) {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok && p.ActorID != "" {
		return p.ActorID, nil
	}
	return "", newAPIError(http.StatusUnauthorized, "unauthorized", errNoCredentials.Error(), nil)
}

type authenticator struct {
	cfg  AuthConfig
	keys repo.Repo
	log  *zap.Logger
}

// identify resolves the caller of req.
func (a authenticator) identify(req *http.Request) (Principal, error) {
	if authz := strings.TrimSpace(req.Header.Get("Authorization")); authz != "" {
		scheme, token, ok := strings.Cut(authz, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			return Principal{}, errBadCredentials
		}
		subject, err := a.verifyToken(strings.TrimSpace(token))
		if err != nil {
			a.log.Info("bearer token rejected", zap.Error(err))
			return Principal{}, errBadCredentials
		}
		return Principal{ActorID: subject, Source: "jwt"}, nil
	}
	if secret := strings.TrimSpace(req.Header.Get("X-Api-Key")); secret != "" {
		key, err := a.keys.GetAPIKeyByHash(req.Context(), repo.HashAPIKey(secret))
		if err != nil || key.ActorID == "" {
			return Principal{}, errBadCredentials
		}
		return Principal{ActorID: key.ActorID, Source: "api_key"}, nil
	}
	if actor := strings.TrimSpace(req.Header.Get("X-Actor-Id")); actor != "" && a.cfg.AllowActorHeader {
		a.log.Warn("unauthenticated X-Actor-Id header accepted", zap.String("actor_id", actor))
		return Principal{ActorID: actor, Source: "actor_header"}, nil
	}
	if a.cfg.Required {
		return Principal{}, errNoCredentials
	}
	return Principal{ActorID: anonymousActor, Source: "anonymous"}, nil
}

func (a authenticator) verifyToken(token string) (string, error) {
	if a.cfg.JWTSecret == "" {
		return "", errors.New("jwt secret not configured")
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(a.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// issueDevToken mints a short-lived HS256 token whose subject is actorID.
func issueDevToken(secret, actorID string, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	claims := jwt.RegisteredClaims{
		Subject:   actorID,
		Issuer:    devTokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(devTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// newAuthMiddleware guards everything under basePath except the health
// check, dev login and the OpenAPI document.
func newAuthMiddleware(basePath string, cfg AuthConfig, keys repo.Repo) func(http.Handler) http.Handler {
	a := authenticator{cfg: cfg, keys: keys, log: cfg.Logger}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	open := map[string]bool{
		path.Join(basePath, "health"):         true,
		path.Join(basePath, "auth/dev/login"): true,
		specPath(basePath):                    true,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !strings.HasPrefix(req.URL.Path, basePath) || open[req.URL.Path] {
				next.ServeHTTP(w, req)
				return
			}
			p, err := a.identify(req)
			if err != nil {
				code := "unauthorized"
				if errors.Is(err, errBadCredentials) {
					code = "invalid_credentials"
				}
				writeError(w, newAPIError(http.StatusUnauthorized, code, err.Error(), nil))
				return
			}
			next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), principalKey{}, p)))
		})
	}
}

func writeError(w http.ResponseWriter, err huma.StatusError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.GetStatus())
	_ = json.NewEncoder(w).Encode(err)
}

type devLoginInput struct {
	Body DevLoginRequest
}

type devLoginOutput struct {
	Body DevLoginResponse
}

func registerDevAuth(api huma.API, cfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "Mint a short-lived JWT for local testing",
		Tags:        []string{"auth"},
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, in *devLoginInput) (*devLoginOutput, error) {
		actor := strings.TrimSpace(in.Body.ActorID)
		if actor == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		token, err := issueDevToken(cfg.JWTSecret, actor, time.Now())
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		return &devLoginOutput{Body: DevLoginResponse{Token: token}}, nil
	})
}
