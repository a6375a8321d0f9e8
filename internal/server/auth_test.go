package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func identifyWith(t *testing.T, cfg AuthConfig, headers map[string]string) (Principal, error) {
	t.Helper()
	req := httptest.NewRequest("GET", "/api/org-tree", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return authenticator{cfg: cfg, log: zap.NewNop()}.identify(req)
}

func TestIdentify(t *testing.T) {
	now := time.Now()
	valid, err := issueDevToken(testSecret, "okafor", now)
	require.NoError(t, err)
	expired, err := issueDevToken(testSecret, "okafor", now.Add(-2*devTokenTTL))
	require.NoError(t, err)
	forged, err := issueDevToken("other-secret", "okafor", now)
	require.NoError(t, err)

	cfg := AuthConfig{JWTSecret: testSecret}
	cases := []struct {
		name    string
		cfg     AuthConfig
		headers map[string]string
		actor   string
		err     error
	}{
		{"bearer", cfg, map[string]string{"Authorization": "Bearer " + valid}, "okafor", nil},
		{"lowercase scheme", cfg, map[string]string{"Authorization": "bearer " + valid}, "okafor", nil},
		{"expired", cfg, map[string]string{"Authorization": "Bearer " + expired}, "", errBadCredentials},
		{"wrong key", cfg, map[string]string{"Authorization": "Bearer " + forged}, "", errBadCredentials},
		{"basic scheme", cfg, map[string]string{"Authorization": "Basic abc"}, "", errBadCredentials},
		{"no secret configured", AuthConfig{}, map[string]string{"Authorization": "Bearer " + valid}, "", errBadCredentials},
		{"actor header allowed", AuthConfig{AllowActorHeader: true}, map[string]string{"X-Actor-Id": "rao"}, "rao", nil},
		{"actor header ignored", AuthConfig{}, map[string]string{"X-Actor-Id": "rao"}, anonymousActor, nil},
		{"bearer wins over header", AuthConfig{JWTSecret: testSecret, AllowActorHeader: true},
			map[string]string{"Authorization": "Bearer " + valid, "X-Actor-Id": "rao"}, "okafor", nil},
		{"required without credentials", AuthConfig{Required: true}, nil, "", errNoCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := identifyWith(t, tc.cfg, tc.headers)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.actor, p.ActorID)
		})
	}
}
