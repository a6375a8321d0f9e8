package scorecardsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientDecodesEnvelopes(t *testing.T) {
	var gotKey, gotQuery string
	var posted ProgressInput
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/org-tree":
			_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"Vantage","org_level":"Enterprise","children":[{"id":2,"name":"Oncology R&D","children":[]}]}]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/progress/7":
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`{"data":{"program":{"id":7},"updates":[{"program_id":7,"version":2,"rag_status":"Amber"}]}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/progress/7":
			_ = json.NewDecoder(r.Body).Decode(&posted)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"program_id":7,"version":3,"rag_status":"Green"}}`))
		case r.URL.Path == "/api/scorecard/summary":
			_, _ = w.Write([]byte(`{"data":{"overall_rag":"Red","totals":{"green":1,"red":2},"pillars":[]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"not_found","message":"not found"}}`))
		}
	}))
	defer ts.Close()

	c := New(ts.URL + "/api/")
	c.APIKey = "sk_test"
	ctx := context.Background()

	tree, err := c.OrgTree(ctx)
	if err != nil {
		t.Fatalf("org tree: %v", err)
	}
	if len(tree) != 1 || len(tree[0].Children) != 1 || tree[0].Children[0].Name != "Oncology R&D" {
		t.Fatalf("unexpected tree: %+v", tree)
	}
	if gotKey != "sk_test" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}

	latest, err := c.LatestProgress(ctx, 7)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.Version != 2 || gotQuery != "latest=true" {
		t.Fatalf("unexpected latest %+v (query %q)", latest, gotQuery)
	}

	update, err := c.AddProgress(ctx, 7, ProgressInput{UpdateText: "on track", PercentComplete: 50, RAGStatus: "Green"})
	if err != nil {
		t.Fatalf("add progress: %v", err)
	}
	if update.Version != 3 || posted.UpdateText != "on track" || posted.PercentComplete != 50 {
		t.Fatalf("unexpected add result %+v posted %+v", update, posted)
	}

	summary, err := c.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.OverallRAG != "Red" || summary.Totals.Red != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestClientReturnsAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"not_found"}}`))
	}))
	defer ts.Close()

	c := New(ts.URL)
	c.BearerToken = "tok"
	c.APIKey = "ignored"
	_, err := c.GoalTree(context.Background(), 99)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", apiErr.StatusCode)
	}
}
