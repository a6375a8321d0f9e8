package hierarchy

import "scorecard/internal/domain"

// ProgramStatus is one program's latest RAG status and completion.
type ProgramStatus struct {
	ProgramID       int64            `json:"program_id"`
	ProgramName     string           `json:"program_name"`
	RAGStatus       domain.RAGStatus `json:"rag_status"`
	PercentComplete float64          `json:"percent_complete"`
}

// PillarSummary rolls a Pillar's programs up to their worst status.
type PillarSummary struct {
	PillarID   int64            `json:"pillar_id"`
	PillarName string           `json:"pillar_name"`
	OverallRAG domain.RAGStatus `json:"overall_rag"`
	Programs   []ProgramStatus  `json:"programs"`
}

// Totals counts assigned programs by RAG status; Complete is not counted.
type Totals struct {
	Green      int `json:"green"`
	Amber      int `json:"amber"`
	Red        int `json:"red"`
	NotStarted int `json:"not_started"`
}

// Summary is the enterprise rollup across every Pillar.
type Summary struct {
	Pillars    []PillarSummary  `json:"pillars"`
	Totals     Totals           `json:"totals"`
	OverallRAG domain.RAGStatus `json:"overall_rag"`
	// Unassigned lists programs with no reachable Pillar. They are left out of
	// both the pillar groups and the totals.
	Unassigned []int64 `json:"unassigned,omitempty"`
}

// WorstOf reduces statuses by severity. An empty input is Complete, so an
// all-Complete group stays Complete.
func WorstOf(statuses ...domain.RAGStatus) domain.RAGStatus {
	worst := domain.RAGComplete
	for _, s := range statuses {
		if s.Severity() > worst.Severity() {
			worst = s
		}
	}
	return worst
}

// EnterpriseStatus is the worst pillar status, or Not_Started with no pillars.
func EnterpriseStatus(pillars []PillarSummary) domain.RAGStatus {
	if len(pillars) == 0 {
		return domain.RAGNotStarted
	}
	statuses := make([]domain.RAGStatus, 0, len(pillars))
	for _, p := range pillars {
		statuses = append(statuses, p.OverallRAG)
	}
	return WorstOf(statuses...)
}

// Summarize groups programs under their Pillar ancestor in first-seen order.
// A program with no update counts as Not_Started at 0%. Non-Program items in
// programs are ignored.
func Summarize(programs []domain.GoalItem, latest map[int64]domain.ProgressUpdate, lookup GoalLookup) Summary {
	sum := Summary{Pillars: []PillarSummary{}}
	byPillar := map[int64]int{}
	for _, prog := range programs {
		if prog.GoalLevel != domain.LevelProgram {
			continue
		}
		status := ProgramStatus{
			ProgramID:   prog.ID,
			ProgramName: prog.Name,
			RAGStatus:   domain.RAGNotStarted,
		}
		if u, ok := latest[prog.ID]; ok {
			if u.RAGStatus.Valid() {
				status.RAGStatus = u.RAGStatus
			}
			status.PercentComplete = u.PercentComplete
		}
		pillar, ok := FindPillarAncestor(prog, lookup)
		if !ok {
			sum.Unassigned = append(sum.Unassigned, prog.ID)
			continue
		}
		idx, seen := byPillar[pillar.ID]
		if !seen {
			idx = len(sum.Pillars)
			byPillar[pillar.ID] = idx
			sum.Pillars = append(sum.Pillars, PillarSummary{PillarID: pillar.ID, PillarName: pillar.Name})
		}
		sum.Pillars[idx].Programs = append(sum.Pillars[idx].Programs, status)
		sum.Totals.add(status.RAGStatus)
	}
	for i := range sum.Pillars {
		statuses := make([]domain.RAGStatus, 0, len(sum.Pillars[i].Programs))
		for _, p := range sum.Pillars[i].Programs {
			statuses = append(statuses, p.RAGStatus)
		}
		sum.Pillars[i].OverallRAG = WorstOf(statuses...)
	}
	sum.OverallRAG = EnterpriseStatus(sum.Pillars)
	return sum
}

func (t *Totals) add(s domain.RAGStatus) {
	switch s {
	case domain.RAGGreen:
		t.Green++
	case domain.RAGAmber:
		t.Amber++
	case domain.RAGRed:
		t.Red++
	case domain.RAGNotStarted:
		t.NotStarted++
	}
}

// NextVersion is one more than the highest existing version, or 1.
func NextVersion(existing []int) int {
	highest := 0
	for _, v := range existing {
		if v > highest {
			highest = v
		}
	}
	return highest + 1
}
