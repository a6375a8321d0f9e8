package domain

import (
	"fmt"
	"strings"
)

type OrgLevel string

const (
	OrgEnterprise    OrgLevel = "Enterprise"
	OrgBusinessUnit  OrgLevel = "Business_Unit"
	OrgFunction      OrgLevel = "Function"
	OrgDepartment    OrgLevel = "Department"
	OrgSubDepartment OrgLevel = "Sub_Department"
	OrgIndividual    OrgLevel = "Individual"
)

func (l OrgLevel) Valid() bool {
	switch l {
	case OrgEnterprise, OrgBusinessUnit, OrgFunction, OrgDepartment, OrgSubDepartment, OrgIndividual:
		return true
	}
	return false
}

// Status is the lifecycle state shared by org units and goals.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
	StatusArchived Status = "Archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusArchived:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	for _, s := range []Status{StatusActive, StatusInactive, StatusArchived} {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", raw)
}

type GoalLevel string

const (
	LevelPillar   GoalLevel = "Pillar"
	LevelCategory GoalLevel = "Category"
	LevelGoal     GoalLevel = "Goal"
	LevelProgram  GoalLevel = "Program"
)

// Rank orders goal levels from the top of the hierarchy down. Unknown levels sort last.
func (l GoalLevel) Rank() int {
	switch l {
	case LevelPillar:
		return 1
	case LevelCategory:
		return 2
	case LevelGoal:
		return 3
	case LevelProgram:
		return 4
	}
	return 5
}

func (l GoalLevel) Valid() bool { return l.Rank() < 5 }

func ParseGoalLevel(raw string) (GoalLevel, error) {
	for _, l := range []GoalLevel{LevelPillar, LevelCategory, LevelGoal, LevelProgram} {
		if strings.EqualFold(strings.TrimSpace(raw), string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("invalid goal level %q", raw)
}

// RAGStatus is the traffic-light status reported on progress updates.
type RAGStatus string

const (
	RAGRed        RAGStatus = "Red"
	RAGAmber      RAGStatus = "Amber"
	RAGGreen      RAGStatus = "Green"
	RAGNotStarted RAGStatus = "Not_Started"
	RAGComplete   RAGStatus = "Complete"
)

// Severity is the worst-wins precedence used when rolling statuses up.
// Red 5 > Amber 4 > Not_Started 3 > Green 2 > Complete 1.
func (s RAGStatus) Severity() int {
	switch s {
	case RAGRed:
		return 5
	case RAGAmber:
		return 4
	case RAGNotStarted:
		return 3
	case RAGGreen:
		return 2
	case RAGComplete:
		return 1
	}
	return 0
}

func (s RAGStatus) Valid() bool { return s.Severity() > 0 }

// ParseRAGStatus accepts the canonical spellings plus "Not Started" and
// lower-case variants.
func ParseRAGStatus(raw string) (RAGStatus, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "red":
		return RAGRed, nil
	case "amber":
		return RAGAmber, nil
	case "green":
		return RAGGreen, nil
	case "not_started":
		return RAGNotStarted, nil
	case "complete":
		return RAGComplete, nil
	}
	return "", fmt.Errorf("invalid rag_status %q", raw)
}

type AlignmentType string

const (
	AlignPrimary      AlignmentType = "primary"
	AlignSecondary    AlignmentType = "secondary"
	AlignCrossCutting AlignmentType = "cross_cutting"
)

func (t AlignmentType) Valid() bool {
	switch t {
	case AlignPrimary, AlignSecondary, AlignCrossCutting:
		return true
	}
	return false
}

// ParseAlignmentType also accepts the hyphenated "cross-cutting".
func ParseAlignmentType(raw string) (AlignmentType, error) {
	t := AlignmentType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	if !t.Valid() {
		return "", fmt.Errorf("invalid alignment_type %q", raw)
	}
	return t, nil
}

type Quarter string

const (
	Q1 Quarter = "Q1"
	Q2 Quarter = "Q2"
	Q3 Quarter = "Q3"
	Q4 Quarter = "Q4"
)

var Quarters = []Quarter{Q1, Q2, Q3, Q4}

func ParseQuarter(raw string) (Quarter, error) {
	q := Quarter(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Quarters {
		if q == known {
			return q, nil
		}
	}
	return "", fmt.Errorf("invalid quarter %q", raw)
}
