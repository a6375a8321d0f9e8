package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scorecard/internal/config"
	"scorecard/internal/domain"
	"scorecard/internal/events"
	"scorecard/internal/repo"
)

// ErrInvalid marks caller mistakes: bad ids, out-of-range values, unknown enums.
var ErrInvalid = errors.New("invalid")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Log    *zap.Logger
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config, log *zap.Logger) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Log:    log,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) stamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) log() *zap.Logger {
	if e.Log != nil {
		return e.Log
	}
	return zap.NewNop()
}

func (e Engine) defaultYear() int {
	if e.Config != nil && e.Config.Scorecard.DefaultYear > 0 {
		return e.Config.Scorecard.DefaultYear
	}
	return 2026
}

// CreateAPIKey mints a key for actorID. The plain secret is only returned here.
func (e Engine) CreateAPIKey(ctx context.Context, actorID, name string) (domain.APIKey, string, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return domain.APIKey{}, "", invalidf("actor_id is required")
	}
	secret := "sk_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	key := domain.APIKey{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Name:      strings.TrimSpace(name),
		KeyHash:   repo.HashAPIKey(secret),
		CreatedAt: e.stamp(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.APIKey{}, "", err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAPIKey(ctx, tx, key); err != nil {
		return domain.APIKey{}, "", fmt.Errorf("insert api key: %w", err)
	}
	if err := e.Events.Append(ctx, tx, events.APIKeyCreated, "api_key", key.ID, actorID, events.EventPayload{"name": key.Name}); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return domain.APIKey{}, "", err
	}
	e.log().Info("api key created", zap.String("key_id", key.ID), zap.String("actor_id", actorID))
	return key, secret, nil
}

// APIKeys lists keys for actorID, or every key when actorID is empty.
func (e Engine) APIKeys(ctx context.Context, actorID string) ([]domain.APIKey, error) {
	return e.Repo.ListAPIKeys(ctx, strings.TrimSpace(actorID))
}

// RevokeAPIKey deletes a key. Requests already authenticated with it are
// unaffected; later ones are rejected.
func (e Engine) RevokeAPIKey(ctx context.Context, id, actorID string) (domain.APIKey, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.APIKey{}, invalidf("api key id is required")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.APIKey{}, err
	}
	defer tx.Rollback()
	key, err := e.Repo.DeleteAPIKey(ctx, tx, id)
	if err != nil {
		return domain.APIKey{}, fmt.Errorf("api key %s: %w", id, err)
	}
	if err := e.Events.Append(ctx, tx, events.APIKeyRevoked, "api_key", key.ID, actorID, events.EventPayload{"owner": key.ActorID}); err != nil {
		return domain.APIKey{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.APIKey{}, err
	}
	e.log().Info("api key revoked", zap.String("key_id", key.ID), zap.String("actor_id", actorID))
	return key, nil
}
