package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scorecard/internal/config"
	"scorecard/internal/domain"
	"scorecard/internal/engine"
)

const (
	webhookPollInterval = 2 * time.Second
	webhookTimeout      = 5 * time.Second
	webhookBatch        = 100

	signatureHeader = "X-Scorecard-Signature"
)

// subscriber is one configured hook and how far into the event log it has
// been served.
type subscriber struct {
	hook   config.WebhookConfig
	filter eventFilter
	client *http.Client
	cursor int64
	primed bool
}

// WebhookDispatcher forwards new events (status changes, progress updates,
// key changes) to configured subscribers in event order. A failed delivery
// stops that subscriber's batch; the event is retried on the next pass.
type WebhookDispatcher struct {
	engine engine.Engine
	log    *zap.Logger
	every  time.Duration

	mu   sync.Mutex
	subs []*subscriber
}

func NewWebhookDispatcher(e engine.Engine, hooks []config.WebhookConfig, log *zap.Logger) *WebhookDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &WebhookDispatcher{engine: e, log: log, every: webhookPollInterval}
	for _, h := range hooks {
		if !h.Active() {
			continue
		}
		timeout := webhookTimeout
		if h.TimeoutSeconds > 0 {
			timeout = time.Duration(h.TimeoutSeconds) * time.Second
		}
		d.subs = append(d.subs, &subscriber{
			hook:   h,
			filter: newEventFilter(h.Events),
			client: &http.Client{Timeout: timeout},
		})
	}
	return d
}

// StartWebhooks runs a dispatcher for the engine's configured hooks until
// ctx is done. Nothing starts when no hook is active.
func StartWebhooks(ctx context.Context, e engine.Engine, log *zap.Logger) {
	if e.Config == nil {
		return
	}
	d := NewWebhookDispatcher(e, e.Config.Webhooks, log)
	if len(d.subs) == 0 {
		return
	}
	d.Prime(ctx)
	go d.Run(ctx)
}

func (d *WebhookDispatcher) Run(ctx context.Context) {
	t := time.NewTicker(d.every)
	defer t.Stop()
	for {
		d.DispatchAll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Prime moves unprimed subscribers to the newest event so that history
// recorded before startup, seed data included, is never replayed.
func (d *WebhookDispatcher) Prime(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	latest, err := d.engine.Repo.LatestEventID(ctx)
	if err != nil {
		d.log.Warn("webhook: read latest event", zap.Error(err))
		return
	}
	for _, s := range d.subs {
		if !s.primed {
			s.cursor, s.primed = latest, true
		}
	}
}

func (d *WebhookDispatcher) DispatchAll(ctx context.Context) {
	d.Prime(ctx)
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.subs {
		d.drain(ctx, s)
	}
}

func (d *WebhookDispatcher) drain(ctx context.Context, s *subscriber) {
	batch, err := d.engine.Repo.EventsAfter(ctx, webhookBatch, s.cursor)
	if err != nil {
		d.log.Warn("webhook: fetch events", zap.Error(err))
		return
	}
	for _, evt := range batch {
		if s.filter.match(evt.Type) {
			if err := deliver(ctx, s, evt); err != nil {
				d.log.Warn("webhook: delivery failed",
					zap.String("url", s.hook.URL), zap.Int64("event_id", evt.ID), zap.Error(err))
				return
			}
		}
		s.cursor = evt.ID
	}
}

type webhookEvent struct {
	ID         int64           `json:"id"`
	Type       string          `json:"type"`
	EntityKind string          `json:"entity_kind"`
	EntityID   string          `json:"entity_id,omitempty"`
	ActorID    string          `json:"actor_id"`
	TS         string          `json:"ts"`
	Payload    json.RawMessage `json:"payload"`
}

func newWebhookEvent(evt domain.Event) webhookEvent {
	payload := json.RawMessage(`{}`)
	if evt.Payload != "" && json.Valid([]byte(evt.Payload)) {
		payload = json.RawMessage(evt.Payload)
	}
	return webhookEvent{
		ID:         evt.ID,
		Type:       evt.Type,
		EntityKind: evt.EntityKind,
		EntityID:   evt.EntityID,
		ActorID:    evt.ActorID,
		TS:         evt.TS,
		Payload:    payload,
	}
}

// signPayload is the hex HMAC-SHA256 of body under secret.
func signPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func deliver(ctx context.Context, s *subscriber, evt domain.Event) error {
	body, err := json.Marshal(newWebhookEvent(evt))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.hook.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Scorecard-Event", evt.Type)
	req.Header.Set("X-Scorecard-Event-Id", strconv.FormatInt(evt.ID, 10))
	req.Header.Set("X-Scorecard-Delivery", uuid.NewString())
	if secret := strings.TrimSpace(s.hook.Secret); secret != "" {
		req.Header.Set(signatureHeader, signPayload(secret, body))
	}
	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("status %d: %s", res.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}

// eventFilter matches event types exactly or by a trailing ".*" prefix,
// e.g. "progress.*". An empty filter matches everything.
type eventFilter struct {
	exact    map[string]bool
	prefixes []string
}

func newEventFilter(patterns []string) eventFilter {
	f := eventFilter{exact: map[string]bool{}}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
		case p == "*":
			return eventFilter{}
		case strings.HasSuffix(p, ".*"):
			f.prefixes = append(f.prefixes, strings.TrimSuffix(p, "*"))
		default:
			f.exact[p] = true
		}
	}
	return f
}

func (f eventFilter) match(evtType string) bool {
	if len(f.exact) == 0 && len(f.prefixes) == 0 {
		return true
	}
	if f.exact[evtType] {
		return true
	}
	for _, p := range f.prefixes {
		if strings.HasPrefix(evtType, p) {
			return true
		}
	}
	return false
}
