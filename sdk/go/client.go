package scorecardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal Scorecard HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client. baseURL includes the API prefix, e.g. http://localhost:8080/api.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// OrgUnit is a node of the organization tree.
type OrgUnit struct {
	ID       int64     `json:"id"`
	ParentID *int64    `json:"parent_id"`
	OrgLevel string    `json:"org_level"`
	Name     string    `json:"name"`
	Owner    string    `json:"owner,omitempty"`
	Status   string    `json:"status"`
	Children []OrgUnit `json:"children"`
}

// Goal is a node of a goal tree.
type Goal struct {
	ID          int64  `json:"id"`
	ParentID    *int64 `json:"parent_id"`
	OrgUnitID   int64  `json:"org_unit_id"`
	OrgUnitName string `json:"org_unit_name,omitempty"`
	GoalLevel   string `json:"goal_level"`
	Name        string `json:"name"`
	Owner       string `json:"owner,omitempty"`
	Status      string `json:"status"`
	Children    []Goal `json:"children"`
}

// Alignment is a shaped goal alignment.
type Alignment struct {
	ChildGoalID    int64   `json:"child_goal_id"`
	ChildGoalName  string  `json:"child_goal_name"`
	ParentGoalID   int64   `json:"parent_goal_id"`
	ParentGoalName string  `json:"parent_goal_name"`
	AlignmentType  string  `json:"alignment_type"`
	Strength       float64 `json:"alignment_strength"`
}

type GoalTree struct {
	OrgUnitIDs []int64     `json:"org_unit_ids"`
	Goals      []Goal      `json:"goals"`
	Alignments []Alignment `json:"alignments"`
}

// ProgressUpdate is one versioned status report on a program.
type ProgressUpdate struct {
	ID              int64          `json:"id"`
	ProgramID       int64          `json:"program_id"`
	Version         int            `json:"version"`
	UpdateText      string         `json:"update_text"`
	PercentComplete float64        `json:"percent_complete"`
	RAGStatus       string         `json:"rag_status"`
	Metrics         map[string]any `json:"metrics"`
	Author          string         `json:"author"`
	CreatedAt       string         `json:"created_at"`
}

// ProgressInput is the body of AddProgress.
type ProgressInput struct {
	UpdateText      string         `json:"update_text"`
	PercentComplete float64        `json:"percent_complete"`
	RAGStatus       string         `json:"rag_status,omitempty"`
	Author          string         `json:"author,omitempty"`
	Metrics         map[string]any `json:"metrics,omitempty"`
}

type ProgramStatus struct {
	ProgramID       int64   `json:"program_id"`
	ProgramName     string  `json:"program_name"`
	RAGStatus       string  `json:"rag_status"`
	PercentComplete float64 `json:"percent_complete"`
}

type PillarSummary struct {
	PillarID   int64           `json:"pillar_id"`
	PillarName string          `json:"pillar_name"`
	OverallRAG string          `json:"overall_rag"`
	Programs   []ProgramStatus `json:"programs"`
}

// Summary is the executive RAG rollup.
type Summary struct {
	Pillars []PillarSummary `json:"pillars"`
	Totals  struct {
		Green      int `json:"green"`
		Amber      int `json:"amber"`
		Red        int `json:"red"`
		NotStarted int `json:"not_started"`
	} `json:"totals"`
	OverallRAG string `json:"overall_rag"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// PaginatedEvents wraps event pages with a cursor.
type PaginatedEvents struct {
	Data       []Event `json:"data"`
	NextCursor string  `json:"next_cursor"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// OrgTree returns the organization forest.
func (c *Client) OrgTree(ctx context.Context) ([]OrgUnit, error) {
	var resp envelope[[]OrgUnit]
	err := c.do(ctx, http.MethodGet, "org-tree", nil, &resp)
	return resp.Data, err
}

// GoalTree returns the goals owned by an org unit and its descendants.
func (c *Client) GoalTree(ctx context.Context, orgUnitID int64) (GoalTree, error) {
	var resp envelope[GoalTree]
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("goal-tree/%d", orgUnitID), nil, &resp)
	return resp.Data, err
}

// Summary returns the pillar-level status rollup.
func (c *Client) Summary(ctx context.Context) (Summary, error) {
	var resp envelope[Summary]
	err := c.do(ctx, http.MethodGet, "scorecard/summary", nil, &resp)
	return resp.Data, err
}

// LatestProgress returns the highest-version update of a program, or nil when none exists.
func (c *Client) LatestProgress(ctx context.Context, programID int64) (*ProgressUpdate, error) {
	var resp envelope[struct {
		Updates []ProgressUpdate `json:"updates"`
	}]
	endpoint := fmt.Sprintf("progress/%d?latest=true", programID)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data.Updates) == 0 {
		return nil, nil
	}
	return &resp.Data.Updates[0], nil
}

// AddProgress appends a progress update to a program.
func (c *Client) AddProgress(ctx context.Context, programID int64, in ProgressInput) (ProgressUpdate, error) {
	var resp envelope[ProgressUpdate]
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("progress/%d", programID), in, &resp)
	return resp.Data, err
}

// Events lists events newest first. Pass the previous NextCursor to page.
func (c *Client) Events(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := "events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
