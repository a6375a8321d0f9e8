package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"testing"

	"scorecard/internal/config"
	"scorecard/internal/db"
	"scorecard/internal/domain"
	"scorecard/internal/engine"
	"scorecard/internal/migrate"
	"scorecard/internal/repo"
	"scorecard/internal/seed"
)

const testSecret = "test-secret"

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T, authCfg AuthConfig) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default(), nil)
	if _, err := seed.Load(context.Background(), e, seed.Demo()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	handler, err := New(Config{Engine: e, BasePath: "/api", Auth: authCfg})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func findGoal(t *testing.T, e engine.Engine, name string) domain.GoalItem {
	t.Helper()
	goals, err := e.Repo.ListGoalItems(context.Background(), repo.GoalFilters{})
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range goals {
		if g.Name == name {
			return g
		}
	}
	t.Fatalf("goal %q missing", name)
	return domain.GoalItem{}
}

func TestHealthAndDocs(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{Required: true})
	defer cleanup()
	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health %d: %s", res.StatusCode, body)
	}
	res, body = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/openapi.json", nil, nil)
	if res.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("/api/scorecard/summary")) {
		t.Fatalf("openapi %d", res.StatusCode)
	}
	if !bytes.Contains(body, []byte(`"apiKeyAuth"`)) {
		t.Fatalf("openapi missing api key scheme")
	}
	res, body = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/docs", nil, nil)
	if res.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("/api/openapi.json")) {
		t.Fatalf("docs %d: %s", res.StatusCode, body)
	}
}

func TestOrgTreeEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/org-tree", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("org tree %d: %s", res.StatusCode, body)
	}
	var out struct {
		Data []struct {
			Name     string `json:"name"`
			Children []struct {
				Name string `json:"name"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Data) != 1 || len(out.Data[0].Children) != 2 {
		t.Fatalf("unexpected tree: %s", body)
	}
}

func TestGoalTreeNotFound(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/goal-tree/9999", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d %s", res.StatusCode, body)
	}
	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Code != "not_found" {
		t.Fatalf("unexpected error body %s", body)
	}
}

func TestGoalStatusPatchRecordsActor(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{AllowActorHeader: true})
	defer cleanup()
	retro := findGoal(t, srv.Engine, "Retrospective sample analysis")
	url := fmt.Sprintf("%s/api/goals/%d/status", srv.URL, retro.ID)
	res, body := doJSON(t, srv.Client(), http.MethodPatch, url, map[string]any{"status": "Inactive"}, map[string]string{"X-Actor-Id": "lindqvist"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("patch %d: %s", res.StatusCode, body)
	}
	res, body = doJSON(t, srv.Client(), http.MethodPatch, url, map[string]any{"status": "Paused"}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", res.StatusCode, body)
	}

	res, body = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/events?type=goal.status.updated", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events %d: %s", res.StatusCode, body)
	}
	var evts paginatedEvents
	if err := json.Unmarshal(body, &evts); err != nil {
		t.Fatal(err)
	}
	if len(evts.Data) != 1 || evts.Data[0].ActorID != "lindqvist" || evts.Data[0].Payload["to"] != "Inactive" {
		t.Fatalf("unexpected events %s", body)
	}
}

func TestAddProgress(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	screen := findGoal(t, srv.Engine, "Screen candidate compound library")
	url := fmt.Sprintf("%s/api/progress/%d", srv.URL, screen.ID)

	res, body := doJSON(t, srv.Client(), http.MethodPost, url, map[string]any{
		"update_text":      "Library complete",
		"percent_complete": 100,
		"rag_status":       "Complete",
		"author":           "Dr. Maya Okafor",
		"metrics":          map[string]any{"compounds_screened": 2847},
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("add progress %d: %s", res.StatusCode, body)
	}
	var created ProgressResponse
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}
	if created.Data.Version != 3 || created.Data.RAGStatus != domain.RAGComplete {
		t.Fatalf("unexpected update %s", body)
	}

	res, body = doJSON(t, srv.Client(), http.MethodPost, url, map[string]any{"update_text": "x", "percent_complete": 150}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for percent, got %d %s", res.StatusCode, body)
	}
	cat := findGoal(t, srv.Engine, "KRAS Inhibitor Program")
	res, body = doJSON(t, srv.Client(), http.MethodPost, fmt.Sprintf("%s/api/progress/%d", srv.URL, cat.ID), map[string]any{"update_text": "x", "percent_complete": 5}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for category, got %d %s", res.StatusCode, body)
	}

	res, body = doJSON(t, srv.Client(), http.MethodGet, url+"?latest=true", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("latest %d: %s", res.StatusCode, body)
	}
	var history ProgressHistoryResponse
	if err := json.Unmarshal(body, &history); err != nil {
		t.Fatal(err)
	}
	if len(history.Data.Updates) != 1 || history.Data.Updates[0].Version != 3 {
		t.Fatalf("latest not returned: %s", body)
	}
}

func TestScorecardAndSummary(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/scorecard", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("scorecard %d: %s", res.StatusCode, body)
	}
	var card struct {
		Year int `json:"year"`
		Data []struct {
			ProgramName string                     `json:"program_name"`
			Objectives  map[string]json.RawMessage `json:"objectives"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &card); err != nil {
		t.Fatal(err)
	}
	if card.Year != 2026 || len(card.Data) != 8 {
		t.Fatalf("year %d rows %d", card.Year, len(card.Data))
	}
	for _, q := range []string{"Q1", "Q2", "Q3", "Q4"} {
		if _, ok := card.Data[0].Objectives[q]; !ok {
			t.Fatalf("row missing %s key", q)
		}
	}

	res, body = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/scorecard/summary", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("summary %d: %s", res.StatusCode, body)
	}
	var sum SummaryResponse
	if err := json.Unmarshal(body, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Data.OverallRAG != domain.RAGRed || sum.Data.Totals.NotStarted != 6 {
		t.Fatalf("unexpected summary %s", body)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{Required: true, JWTSecret: testSecret})
	defer cleanup()
	client := srv.Client()

	res, _ := doJSON(t, client, http.MethodGet, srv.URL+"/api/scorecard/summary", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/api/scorecard/summary", nil, map[string]string{"Authorization": "Bearer nope"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", res.StatusCode)
	}

	res, body := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/dev/login", map[string]any{"actor_id": "okafor"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dev login %d: %s", res.StatusCode, body)
	}
	var login DevLoginResponse
	if err := json.Unmarshal(body, &login); err != nil || login.Token == "" {
		t.Fatalf("no token: %s", body)
	}
	res, body = doJSON(t, client, http.MethodGet, srv.URL+"/api/scorecard/summary", nil, map[string]string{"Authorization": "Bearer " + login.Token})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("bearer %d: %s", res.StatusCode, body)
	}

	_, secret, err := srv.Engine.CreateAPIKey(context.Background(), "rao", "ci")
	if err != nil {
		t.Fatal(err)
	}
	res, body = doJSON(t, client, http.MethodGet, srv.URL+"/api/org-tree", nil, map[string]string{"X-Api-Key": secret})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("api key %d: %s", res.StatusCode, body)
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/api/org-tree", nil, map[string]string{"X-Actor-Id": "someone"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("actor header must be ignored when not allowed, got %d", res.StatusCode)
	}
}

func TestSkillOutputs(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	base := srv.URL + "/api/skill-outputs"

	for _, goal := range []string{"Retrospective sample analysis", "Lead candidate selection", "Retrospective sample analysis"} {
		res, body := doJSON(t, srv.Client(), http.MethodPost, base, map[string]any{
			"skill_id":       7,
			"person_name":    "Dr. Tomas Lindqvist",
			"goal_name":      goal,
			"output_summary": "done",
			"output_data":    map[string]any{"samples": 212},
		}, nil)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("submit %d: %s", res.StatusCode, body)
		}
	}

	res, body := doJSON(t, srv.Client(), http.MethodGet, base+"?goal_name="+url.QueryEscape("Retrospective sample analysis")+"&limit=1", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list %d: %s", res.StatusCode, body)
	}
	var page paginatedSkillOutputs
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || page.Limit != 1 || len(page.Data) != 1 || page.Data[0].SkillID != 7 {
		t.Fatalf("unexpected page %s", body)
	}
	if string(page.Data[0].OutputData.Values["samples"]) != "212" {
		t.Fatalf("output_data lost: %s", body)
	}

	res, body = doJSON(t, srv.Client(), http.MethodGet, base+"/upstream?goal_name="+url.QueryEscape("Trial protocol design"), nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("upstream %d: %s", res.StatusCode, body)
	}
	var up UpstreamOutputsResponse
	if err := json.Unmarshal(body, &up); err != nil {
		t.Fatal(err)
	}
	if len(up.Data.UpstreamGoals) != 2 || len(up.Data.Outputs) != 2 {
		t.Fatalf("unexpected upstream %s", body)
	}

	res, body = doJSON(t, srv.Client(), http.MethodGet, base+"/upstream?goal_name=Nope", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d %s", res.StatusCode, body)
	}
	res, body = doJSON(t, srv.Client(), http.MethodPost, base, map[string]any{"skill_id": 0, "person_name": "x", "goal_name": "y", "output_summary": "z"}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for skill_id, got %d %s", res.StatusCode, body)
	}
}
