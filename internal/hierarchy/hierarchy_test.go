package hierarchy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"scorecard/internal/domain"
)

func id(v int64) *int64 { return &v }
func prio(v int) *int   { return &v }

func unit(uid int64, parent *int64, name string) domain.OrgUnit {
	return domain.OrgUnit{ID: uid, ParentID: parent, Name: name, OrgLevel: domain.OrgDepartment, Status: domain.StatusActive}
}

func goal(gid int64, parent *int64, level domain.GoalLevel, name string) domain.GoalItem {
	return domain.GoalItem{ID: gid, ParentID: parent, OrgUnitID: 1, GoalLevel: level, Name: name, Status: domain.StatusActive}
}

func keys[T Keyed](nodes []*Node[T]) []int64 {
	out := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Item.Key())
	}
	return out
}

func TestAssembleKeepsInputOrderAndLinksChildren(t *testing.T) {
	forest := Assemble([]domain.OrgUnit{
		unit(1, nil, "Root"),
		unit(2, id(1), "B"),
		unit(3, id(1), "A"),
	})
	require.Len(t, forest, 1)
	require.Equal(t, int64(1), forest[0].Item.ID)
	require.Equal(t, []int64{2, 3}, keys(forest[0].Children))
}

func TestAssemblePromotesOrphans(t *testing.T) {
	forest := Assemble([]domain.OrgUnit{unit(2, id(1), "child")})
	require.Len(t, forest, 1)
	require.Equal(t, int64(2), forest[0].Item.ID)
	require.Empty(t, forest[0].Children)
}

func TestAssembleEmitsEachReachableRecordOnce(t *testing.T) {
	items := []domain.OrgUnit{
		unit(1, nil, "a"),
		unit(2, id(1), "b"),
		unit(3, id(2), "c"),
		unit(4, id(99), "orphan"),
		unit(5, id(4), "orphan child"),
	}
	forest := Assemble(items)
	require.Equal(t, len(items), forest.Len())
	seen := map[int64]int{}
	for _, u := range forest.Flatten() {
		seen[u.ID]++
	}
	for _, u := range items {
		require.Equal(t, 1, seen[u.ID], "unit %d", u.ID)
	}
	require.Equal(t, []int64{1, 4}, keys(forest))
}

func TestAssembleDropsCycles(t *testing.T) {
	forest := Assemble([]domain.OrgUnit{
		unit(1, nil, "root"),
		unit(2, id(3), "x"),
		unit(3, id(2), "y"),
		unit(4, id(4), "self"),
	})
	require.Equal(t, 1, forest.Len())
	_, err := json.Marshal(forest)
	require.NoError(t, err)
}

func TestAssembleEmpty(t *testing.T) {
	forest := Assemble[domain.OrgUnit](nil)
	require.NotNil(t, forest)
	require.Empty(t, forest)
}

func TestNodeJSONAddsChildren(t *testing.T) {
	forest := Assemble([]domain.OrgUnit{unit(1, nil, "Root"), unit(2, id(1), "Leaf")})
	data, err := json.Marshal(forest)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "Root", decoded[0]["name"])
	children := decoded[0]["children"].([]any)
	require.Len(t, children, 1)
	leaf := children[0].(map[string]any)
	require.Equal(t, "Leaf", leaf["name"])
	require.Equal(t, []any{}, leaf["children"])
}

func TestPrune(t *testing.T) {
	forest := Assemble([]domain.OrgUnit{unit(1, nil, "a"), unit(2, id(1), "b"), unit(3, id(2), "c")})
	require.Equal(t, 1, forest.Prune(1).Len())
	require.Equal(t, 2, forest.Prune(2).Len())
	require.Equal(t, 3, forest.Prune(0).Len())
	require.Equal(t, 3, forest.Len())
}

func TestBuildOrgTreeFiltersAndSorts(t *testing.T) {
	inactive := unit(5, id(1), "Closed")
	inactive.Status = domain.StatusInactive
	units := []domain.OrgUnit{
		unit(1, nil, "Vantage Biopharma"),
		unit(2, id(1), "Zeta"),
		unit(3, id(1), "Alpha"),
		func() domain.OrgUnit { u := unit(4, id(1), "Omega"); u.Priority = prio(1); return u }(),
		inactive,
	}
	forest := BuildOrgTree(units)
	require.Len(t, forest, 1)
	require.Equal(t, []int64{4, 3, 2}, keys(forest[0].Children))
}

func TestDescendantIDs(t *testing.T) {
	forest := BuildOrgTree([]domain.OrgUnit{
		unit(1, nil, "Enterprise"),
		unit(2, id(1), "R&D"),
		unit(3, id(2), "Oncology"),
		unit(4, id(1), "Commercial"),
	})
	require.Equal(t, NewIDSet(2, 3), DescendantIDs(forest, "R&D"))
	require.Equal(t, NewIDSet(1, 2, 3, 4), DescendantIDs(forest, "Enterprise"))
	require.Empty(t, DescendantIDs(forest, "Nowhere"))
	require.Equal(t, NewIDSet(4), SubtreeIDs(forest, 4))
	require.Empty(t, SubtreeIDs(forest, 42))
}

func TestDescendantIDsOfChildIsSubset(t *testing.T) {
	forest := BuildOrgTree([]domain.OrgUnit{
		unit(1, nil, "E"), unit(2, id(1), "D"), unit(3, id(2), "S"), unit(4, id(3), "I"),
	})
	parent := DescendantIDs(forest, "D")
	for child := range DescendantIDs(forest, "S") {
		require.True(t, parent.Has(child))
	}
}

func TestBuildGoalTreeScopesAndOrders(t *testing.T) {
	prog := goal(4, id(3), domain.LevelProgram, "Trial")
	other := goal(5, nil, domain.LevelPillar, "Elsewhere")
	other.OrgUnitID = 9
	archived := goal(6, id(1), domain.LevelCategory, "Old")
	archived.Status = domain.StatusArchived
	goals := []domain.GoalItem{
		prog,
		goal(3, id(2), domain.LevelGoal, "Readouts"),
		goal(2, id(1), domain.LevelCategory, "Clinical"),
		goal(1, nil, domain.LevelPillar, "Advance Pipeline"),
		other,
		archived,
	}
	forest := BuildGoalTree(goals, NewIDSet(1))
	require.Len(t, forest, 1)
	require.Equal(t, "Advance Pipeline", forest[0].Item.Name)
	require.Equal(t, 4, forest.Len())

	// parent outside the scope promotes the child
	programOnly := goal(7, id(3), domain.LevelProgram, "Orphaned")
	programOnly.OrgUnitID = 2
	forest = BuildGoalTree(append(goals, programOnly), NewIDSet(2))
	require.Equal(t, []int64{7}, keys(forest))
}

func TestClassifyAlignmentsFallbackNames(t *testing.T) {
	shaped := ClassifyAlignments([]domain.GoalAlignment{
		{ChildGoalID: 1, ParentGoalID: 8, AlignmentType: domain.AlignPrimary, AlignmentStrength: 0.7, Notes: "n"},
	}, map[int64]string{1: "Trial"})
	require.Equal(t, []ShapedAlignment{{
		ChildGoalID: 1, ChildGoalName: "Trial",
		ParentGoalID: 8, ParentGoalName: "Goal #8",
		AlignmentType: domain.AlignPrimary, AlignmentStrength: 0.7, Notes: "n",
	}}, shaped)
}

func TestSelectTouching(t *testing.T) {
	edges := []domain.GoalAlignment{
		{ID: 1, ChildGoalID: 1, ParentGoalID: 2},
		{ID: 2, ChildGoalID: 3, ParentGoalID: 4},
		{ID: 3, ChildGoalID: 5, ParentGoalID: 1},
	}
	got := SelectTouching(edges, NewIDSet(1))
	require.Len(t, got, 2)
	require.Equal(t, int64(1), got[0].ID)
	require.Equal(t, int64(3), got[1].ID)
}

func TestSplitRelativeTo(t *testing.T) {
	shaped := ClassifyAlignments([]domain.GoalAlignment{
		{ChildGoalID: 5, ParentGoalID: 9, AlignmentType: domain.AlignPrimary},
		{ChildGoalID: 3, ParentGoalID: 5, AlignmentType: domain.AlignSecondary},
		{ChildGoalID: 5, ParentGoalID: 7, AlignmentType: domain.AlignCrossCutting},
		{ChildGoalID: 1, ParentGoalID: 2, AlignmentType: domain.AlignPrimary},
	}, nil)
	res := SplitRelativeTo(5, shaped)
	require.Len(t, res.Upstream, 1)
	require.Equal(t, int64(9), res.Upstream[0].ParentGoalID)
	require.Len(t, res.Downstream, 1)
	require.Equal(t, int64(3), res.Downstream[0].ChildGoalID)
	require.Len(t, res.CrossCutting, 1)
	require.Equal(t, int64(7), res.CrossCutting[0].ParentGoalID)
	require.Empty(t, res.SelfReferences)
}

func TestSplitRelativeToFlagsSelfReference(t *testing.T) {
	shaped := ClassifyAlignments([]domain.GoalAlignment{
		{ChildGoalID: 5, ParentGoalID: 5, AlignmentType: domain.AlignPrimary},
	}, nil)
	res := SplitRelativeTo(5, shaped)
	require.Len(t, res.Upstream, 1)
	require.Empty(t, res.Downstream)
	require.Len(t, res.SelfReferences, 1)
}

func TestSplitRelativeToFromBothEndpoints(t *testing.T) {
	edges := func(in ...domain.GoalAlignment) []ShapedAlignment { return ClassifyAlignments(in, nil) }
	primary := domain.GoalAlignment{ChildGoalID: 5, ParentGoalID: 9, AlignmentType: domain.AlignPrimary}
	cross := domain.GoalAlignment{ChildGoalID: 5, ParentGoalID: 9, AlignmentType: domain.AlignCrossCutting}
	selfCross := domain.GoalAlignment{ChildGoalID: 7, ParentGoalID: 7, AlignmentType: domain.AlignCrossCutting}

	cases := []struct {
		name                                 string
		focal                                int64
		edges                                []ShapedAlignment
		upstream, downstream, cross, selfRef int
	}{
		{"primary from child", 5, edges(primary), 1, 0, 0, 0},
		{"primary from parent", 9, edges(primary), 0, 1, 0, 0},
		{"cross-cutting from child", 5, edges(cross), 0, 0, 1, 0},
		{"cross-cutting from parent", 9, edges(cross), 0, 0, 1, 0},
		{"both types from child", 5, edges(primary, cross), 1, 0, 1, 0},
		{"both types from parent", 9, edges(primary, cross), 0, 1, 1, 0},
		{"self-referencing cross-cutting", 7, edges(selfCross), 0, 0, 1, 1},
		{"unrelated focal", 3, edges(primary, cross, selfCross), 0, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := SplitRelativeTo(tc.focal, tc.edges)
			require.Len(t, res.Upstream, tc.upstream)
			require.Len(t, res.Downstream, tc.downstream)
			require.Len(t, res.CrossCutting, tc.cross)
			require.Len(t, res.SelfReferences, tc.selfRef)
			for _, e := range res.Upstream {
				require.Equal(t, tc.focal, e.ChildGoalID)
			}
			for _, e := range res.Downstream {
				require.Equal(t, tc.focal, e.ParentGoalID)
			}
		})
	}
}

func TestUpstreamOf(t *testing.T) {
	goals := []domain.GoalItem{
		goal(1, nil, domain.LevelGoal, "Feasibility"),
		goal(2, nil, domain.LevelGoal, "Biomarkers"),
		goal(10, id(1), domain.LevelProgram, "Protocol"),
		goal(11, id(1), domain.LevelProgram, "Recruitment"),
		goal(12, id(1), domain.LevelProgram, "Budget"),
		goal(20, id(2), domain.LevelProgram, "Retro"),
	}
	shaped := ClassifyAlignments([]domain.GoalAlignment{
		{ChildGoalID: 10, ParentGoalID: 20, AlignmentType: domain.AlignPrimary},
		{ChildGoalID: 10, ParentGoalID: 11, AlignmentType: domain.AlignSecondary},
		{ChildGoalID: 10, ParentGoalID: 2, AlignmentType: domain.AlignCrossCutting},
		{ChildGoalID: 10, ParentGoalID: 10, AlignmentType: domain.AlignPrimary},
		{ChildGoalID: 12, ParentGoalID: 10, AlignmentType: domain.AlignPrimary},
	}, NameIndex(goals))

	require.Equal(t, []UpstreamGoal{
		{ID: 20, Name: "Retro", Via: UpstreamViaAlignment},
		{ID: 11, Name: "Recruitment", Via: UpstreamViaAlignment},
		{ID: 12, Name: "Budget", Via: UpstreamViaSibling},
	}, UpstreamOf(goals[2], shaped, goals))
	require.Equal(t, []string{"Retro", "Recruitment", "Budget"}, UpstreamNames(UpstreamOf(goals[2], shaped, goals)))

	require.Empty(t, UpstreamOf(goals[0], shaped, goals), "root goals have no siblings")
	require.Equal(t, []UpstreamGoal{
		{ID: 10, Name: "Protocol", Via: UpstreamViaAlignment},
		{ID: 11, Name: "Recruitment", Via: UpstreamViaSibling},
	}, UpstreamOf(goals[4], shaped, goals))
}

func chain(n int) []domain.GoalItem {
	// goal 0 is the Pillar, goal n is the Program n hops below it
	goals := []domain.GoalItem{goal(0, nil, domain.LevelPillar, "Pillar")}
	for i := 1; i <= n; i++ {
		level := domain.LevelGoal
		if i == n {
			level = domain.LevelProgram
		}
		goals = append(goals, goal(int64(i), id(int64(i-1)), level, "g"))
	}
	return goals
}

func TestFindPillarAncestorWithinBound(t *testing.T) {
	goals := chain(3)
	pillar, ok := FindPillarAncestor(goals[3], LookupFrom(goals))
	require.True(t, ok)
	require.Equal(t, int64(0), pillar.ID)

	goals = chain(MaxAncestorHops)
	_, ok = FindPillarAncestor(goals[MaxAncestorHops], LookupFrom(goals))
	require.True(t, ok)
}

func TestFindPillarAncestorGivesUp(t *testing.T) {
	goals := chain(11)
	_, ok := FindPillarAncestor(goals[11], LookupFrom(goals))
	require.False(t, ok)

	cyclic := []domain.GoalItem{
		goal(1, id(2), domain.LevelGoal, "a"),
		goal(2, id(1), domain.LevelGoal, "b"),
		goal(3, id(1), domain.LevelProgram, "p"),
	}
	_, ok = FindPillarAncestor(cyclic[2], LookupFrom(cyclic))
	require.False(t, ok)

	_, ok = FindPillarAncestor(goal(4, id(404), domain.LevelProgram, "dangling"), LookupFrom(nil))
	require.False(t, ok)

	_, ok = FindPillarAncestor(goal(5, nil, domain.LevelPillar, "top"), LookupFrom(nil))
	require.False(t, ok)
}

func TestAncestorIDs(t *testing.T) {
	goals := chain(3)
	require.Equal(t, []int64{2, 1, 0}, AncestorIDs(goals[3], LookupFrom(goals)))
}

func TestWorstOf(t *testing.T) {
	require.Equal(t, domain.RAGRed, WorstOf(domain.RAGGreen, domain.RAGAmber, domain.RAGRed))
	require.Equal(t, domain.RAGComplete, WorstOf(domain.RAGComplete, domain.RAGComplete))
	require.Equal(t, domain.RAGNotStarted, WorstOf(domain.RAGGreen, domain.RAGNotStarted))
	require.Equal(t, domain.RAGGreen, WorstOf(domain.RAGComplete, domain.RAGGreen))
	require.Equal(t, domain.RAGComplete, WorstOf())
}

func TestEnterpriseStatus(t *testing.T) {
	require.Equal(t, domain.RAGNotStarted, EnterpriseStatus(nil))
	require.Equal(t, domain.RAGAmber, EnterpriseStatus([]PillarSummary{
		{OverallRAG: domain.RAGGreen}, {OverallRAG: domain.RAGAmber}, {OverallRAG: domain.RAGComplete},
	}))
}

func TestSummarizeAdvancePipeline(t *testing.T) {
	goals := []domain.GoalItem{
		goal(1, nil, domain.LevelPillar, "Advance Pipeline"),
		goal(2, id(1), domain.LevelCategory, "Clinical"),
		goal(3, id(2), domain.LevelGoal, "Readouts"),
		goal(10, id(3), domain.LevelProgram, "P1"),
		goal(11, id(3), domain.LevelProgram, "P2"),
		goal(12, id(3), domain.LevelProgram, "P3"),
	}
	cases := []struct {
		name    string
		latest  map[int64]domain.ProgressUpdate
		overall domain.RAGStatus
		totals  Totals
	}{
		{
			name: "red green not started",
			latest: map[int64]domain.ProgressUpdate{
				10: {ProgramID: 10, RAGStatus: domain.RAGRed, PercentComplete: 20},
				11: {ProgramID: 11, RAGStatus: domain.RAGGreen, PercentComplete: 60},
			},
			overall: domain.RAGRed,
			totals:  Totals{Red: 1, Green: 1, NotStarted: 1, Amber: 0},
		},
		{
			name: "green amber not started",
			latest: map[int64]domain.ProgressUpdate{
				10: {ProgramID: 10, RAGStatus: domain.RAGGreen, PercentComplete: 80},
				11: {ProgramID: 11, RAGStatus: domain.RAGAmber, PercentComplete: 40},
			},
			overall: domain.RAGAmber,
			totals:  Totals{Green: 1, Amber: 1, NotStarted: 1},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sum := Summarize(goals[3:], tc.latest, LookupFrom(goals))
			require.Len(t, sum.Pillars, 1)
			p := sum.Pillars[0]
			require.Equal(t, "Advance Pipeline", p.PillarName)
			require.Equal(t, tc.overall, p.OverallRAG)
			require.Len(t, p.Programs, 3)
			require.Equal(t, "P3", p.Programs[2].ProgramName)
			require.Equal(t, domain.RAGNotStarted, p.Programs[2].RAGStatus)
			require.Equal(t, 0.0, p.Programs[2].PercentComplete)
			require.Equal(t, tc.totals, sum.Totals)
			require.Equal(t, tc.overall, sum.OverallRAG)
		})
	}
}

func TestSummarizeExcludesUnassignedFromTotals(t *testing.T) {
	goals := []domain.GoalItem{
		goal(1, nil, domain.LevelPillar, "P1"),
		goal(2, nil, domain.LevelPillar, "P2"),
		goal(10, id(2), domain.LevelProgram, "second pillar first"),
		goal(11, id(1), domain.LevelProgram, "first pillar"),
		goal(12, id(99), domain.LevelProgram, "lost"),
		goal(13, id(1), domain.LevelGoal, "not a program"),
	}
	latest := map[int64]domain.ProgressUpdate{
		10: {RAGStatus: domain.RAGComplete},
		11: {RAGStatus: domain.RAGRed},
		12: {RAGStatus: domain.RAGRed},
	}
	sum := Summarize(goals[2:], latest, LookupFrom(goals))
	require.Len(t, sum.Pillars, 2)
	require.Equal(t, "P2", sum.Pillars[0].PillarName)
	require.Equal(t, domain.RAGComplete, sum.Pillars[0].OverallRAG)
	require.Equal(t, domain.RAGRed, sum.Pillars[1].OverallRAG)
	require.Equal(t, Totals{Red: 1}, sum.Totals)
	require.Equal(t, []int64{12}, sum.Unassigned)
	require.Equal(t, domain.RAGRed, sum.OverallRAG)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil, nil, LookupFrom(nil))
	require.NotNil(t, sum.Pillars)
	require.Empty(t, sum.Pillars)
	require.Equal(t, Totals{}, sum.Totals)
	require.Equal(t, domain.RAGNotStarted, sum.OverallRAG)
}

func TestNextVersion(t *testing.T) {
	require.Equal(t, 4, NextVersion([]int{1, 2, 3}))
	require.Equal(t, 1, NextVersion(nil))
	require.Equal(t, 8, NextVersion([]int{7, 2}))
}
