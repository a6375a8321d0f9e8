package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorecard/internal/domain"
	"scorecard/internal/engine"
	"scorecard/internal/hierarchy"
)

var setupOnce sync.Once

// runCLI executes the root command and returns what it printed. Flag values
// persist between runs, so callers always pass --json explicitly.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	setupOnce.Do(func() {
		cobra.OnInitialize(initConfig)
		addPersistentFlags()
		registerCommands()
	})
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func seededWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runCLI(t, "-w", dir, "--json=false", "seed")
	require.NoError(t, err)
	return dir
}

func TestSeedAndOrgTree(t *testing.T) {
	dir := seededWorkspace(t)

	out, err := runCLI(t, "-w", dir, "--json=false", "org", "tree", "--depth", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "└── Vantage Biopharma"))
	assert.Contains(t, lines[1], "├── Oncology R&D")
	assert.Contains(t, lines[2], "└── Clinical Development")

	_, err = runCLI(t, "-w", dir, "--json=false", "seed")
	assert.Error(t, err, "seeding twice must fail")
}

func TestSummaryJSON(t *testing.T) {
	dir := seededWorkspace(t)

	out, err := runCLI(t, "-w", dir, "--json=true", "summary")
	require.NoError(t, err)
	var s hierarchy.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, domain.RAGRed, s.OverallRAG)
	assert.Len(t, s.Pillars, 2)
}

func TestProgressAddAndTimeline(t *testing.T) {
	dir := seededWorkspace(t)

	out, err := runCLI(t, "-w", dir, "--json=true", "goal", "owned", "Dr. Anjali Rao")
	require.NoError(t, err)
	var goals []domain.GoalItem
	require.NoError(t, json.Unmarshal([]byte(out), &goals))
	var edc domain.GoalItem
	for _, g := range goals {
		if g.Name == "Electronic data capture rollout" {
			edc = g
		}
	}
	require.NotZero(t, edc.ID)
	id := strconv.FormatInt(edc.ID, 10)

	out, err = runCLI(t, "-w", dir, "--json=true", "--actor-id", "rao", "progress", "add", id,
		"--text", "Vendor selected", "--percent", "20", "--rag", "amber", "--decision", "Go with vendor B")
	require.NoError(t, err)
	var u domain.ProgressUpdate
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	assert.Equal(t, 2, u.Version)
	assert.Equal(t, domain.RAGAmber, u.RAGStatus)
	assert.Equal(t, "rao", u.Author)
	require.Len(t, u.Metrics.Decisions, 1)

	out, err = runCLI(t, "-w", dir, "--json=false", "progress", "timeline", id)
	require.NoError(t, err)
	assert.Contains(t, out, "decision: Go with vendor B")
	assert.Contains(t, out, "Vendor selected")
}

func TestGoalStatusRejectsUnknownStatus(t *testing.T) {
	dir := seededWorkspace(t)
	_, err := runCLI(t, "-w", dir, "--json=false", "goal", "status", "1", "Paused")
	assert.Error(t, err)
	_, err = runCLI(t, "-w", dir, "--json=false", "goal", "status", "abc", "Active")
	assert.Error(t, err)
}

func TestAPIKeyLifecycle(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "-w", dir, "--json=true", "--actor-id", "okafor", "apikey", "create", "--name", "laptop")
	require.NoError(t, err)
	var created struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.True(t, strings.HasPrefix(created.Key, "sk_"))

	out, err = runCLI(t, "-w", dir, "--json=true", "--actor-id", "okafor", "apikey", "list")
	require.NoError(t, err)
	var keys []domain.APIKey
	require.NoError(t, json.Unmarshal([]byte(out), &keys))
	require.Len(t, keys, 1)
	assert.Equal(t, created.ID, keys[0].ID)

	_, err = runCLI(t, "-w", dir, "--json=true", "--actor-id", "okafor", "apikey", "revoke", created.ID)
	require.NoError(t, err)
	_, err = runCLI(t, "-w", dir, "--json=true", "--actor-id", "okafor", "apikey", "revoke", created.ID)
	assert.Error(t, err)
}

func TestOutputsSubmitAndUpstream(t *testing.T) {
	dir := seededWorkspace(t)

	out, err := runCLI(t, "-w", dir, "--json=true", "--actor-id", "lindqvist", "outputs", "submit",
		"--skill", "5", "--person", "Dr. Tomas Lindqvist", "--goal", "Retrospective sample analysis",
		"--summary", "Cohort validated", "--data", `{"samples": 212}`)
	require.NoError(t, err)
	var created domain.SkillOutput
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.NotNil(t, created.GoalID)
	assert.Equal(t, "212", string(created.OutputData.Values["samples"]))

	out, err = runCLI(t, "-w", dir, "--json=true", "outputs", "upstream", "Trial protocol design")
	require.NoError(t, err)
	var up engine.UpstreamOutputs
	require.NoError(t, json.Unmarshal([]byte(out), &up))
	require.Len(t, up.Outputs, 1)
	assert.Equal(t, created.ID, up.Outputs[0].ID)

	out, err = runCLI(t, "-w", dir, "--json=false", "outputs", "list", "--goal", "Retrospective sample analysis")
	require.NoError(t, err)
	assert.Contains(t, out, "Cohort validated")

	_, err = runCLI(t, "-w", dir, "--json=true", "outputs", "upstream", "No such goal")
	assert.Error(t, err)
}

func TestPrintTree(t *testing.T) {
	parent := int64(1)
	forest := hierarchy.BuildOrgTree([]domain.OrgUnit{
		{ID: 1, Name: "Root", OrgLevel: domain.OrgLevel("Enterprise"), Status: domain.StatusActive},
		{ID: 2, ParentID: &parent, Name: "A", OrgLevel: domain.OrgLevel("Business_Unit"), Status: domain.StatusActive},
		{ID: 3, ParentID: &parent, Name: "B", OrgLevel: domain.OrgLevel("Business_Unit"), Status: domain.StatusActive},
	})
	var buf bytes.Buffer
	printTree(&buf, forest, func(u domain.OrgUnit) string { return u.Name })
	assert.Equal(t, "└── Root\n    ├── A\n    └── B\n", buf.String())
}

func TestTimelineLine(t *testing.T) {
	line := timelineLine(entryWithDecision("2026-02-01", "Pause enrolment", "Dr. Rao"))
	assert.Equal(t, "2026-02-01  v1  decision: Pause enrolment (Dr. Rao)", line)
}

func entryWithDecision(ts, title, by string) engine.TimelineEntry {
	return engine.TimelineEntry{
		Kind:      engine.TimelineDecision,
		Timestamp: ts,
		Version:   1,
		Decision:  &domain.DecisionEvent{Timestamp: ts, Title: title, DecidedBy: by},
	}
}
