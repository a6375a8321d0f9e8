package domain

type OrgUnit struct {
	ID          int64    `json:"id"`
	ParentID    *int64   `json:"parent_id"`
	OrgLevel    OrgLevel `json:"org_level" enum:"Enterprise,Business_Unit,Function,Department,Sub_Department,Individual"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Owner       string   `json:"owner,omitempty"`
	Status      Status   `json:"status" enum:"Active,Inactive,Archived"`
	Priority    *int     `json:"priority,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty" format:"date-time"`
}

func (u OrgUnit) Key() int64 { return u.ID }

func (u OrgUnit) ParentKey() (int64, bool) {
	if u.ParentID == nil {
		return 0, false
	}
	return *u.ParentID, true
}

type GoalItem struct {
	ID          int64     `json:"id"`
	ParentID    *int64    `json:"parent_id"`
	OrgUnitID   int64     `json:"org_unit_id"`
	OrgUnitName string    `json:"org_unit_name,omitempty"`
	GoalLevel   GoalLevel `json:"goal_level" enum:"Pillar,Category,Goal,Program"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Owner       string    `json:"owner,omitempty"`
	Status      Status    `json:"status" enum:"Active,Inactive,Archived"`
	Weight      *float64  `json:"weight,omitempty"`
	Priority    *int      `json:"priority,omitempty"`
	CreatedAt   string    `json:"created_at,omitempty" format:"date-time"`
	UpdatedAt   string    `json:"updated_at,omitempty" format:"date-time"`
}

func (g GoalItem) Key() int64 { return g.ID }

func (g GoalItem) ParentKey() (int64, bool) {
	if g.ParentID == nil {
		return 0, false
	}
	return *g.ParentID, true
}

// GoalAlignment is a directed "child references parent" edge between two goals.
type GoalAlignment struct {
	ID                int64         `json:"id"`
	ChildGoalID       int64         `json:"child_goal_id"`
	ParentGoalID      int64         `json:"parent_goal_id"`
	AlignmentType     AlignmentType `json:"alignment_type" enum:"primary,secondary,cross_cutting"`
	AlignmentStrength float64       `json:"alignment_strength" minimum:"0" maximum:"1"`
	Notes             string        `json:"notes,omitempty"`
	CreatedAt         string        `json:"created_at,omitempty" format:"date-time"`
}

type ProgressUpdate struct {
	ID              int64     `json:"id"`
	ProgramID       int64     `json:"program_id"`
	Version         int       `json:"version"`
	UpdateText      string    `json:"update_text"`
	PercentComplete float64   `json:"percent_complete" minimum:"0" maximum:"100"`
	RAGStatus       RAGStatus `json:"rag_status" enum:"Red,Amber,Green,Not_Started,Complete"`
	Metrics         Metrics   `json:"metrics"`
	Author          string    `json:"author"`
	CreatedAt       string    `json:"created_at" format:"date-time"`
}

type ProgramObjective struct {
	ID            int64   `json:"id"`
	ProgramID     int64   `json:"program_id"`
	Year          int     `json:"year"`
	Quarter       Quarter `json:"quarter" enum:"Q1,Q2,Q3,Q4"`
	ObjectiveText string  `json:"objective_text"`
	TargetValue   string  `json:"target_value,omitempty"`
	TargetUnit    string  `json:"target_unit,omitempty"`
	Status        string  `json:"status,omitempty"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload,omitempty"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"-"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// SkillOutputCompleted is the status of a submitted output. Only completed
// outputs are offered to downstream goals.
const SkillOutputCompleted = "completed"

// SkillOutput is work produced by running a person's skill, filed against a
// goal by name. OutputData shares the progress metrics shape so decisions
// embedded in it stay typed.
type SkillOutput struct {
	ID            int64          `json:"id"`
	SkillID       int64          `json:"skill_id"`
	PersonName    string         `json:"person_name"`
	GoalName      string         `json:"goal_name"`
	GoalID        *int64         `json:"goal_id,omitempty"`
	OutputData    Metrics        `json:"output_data"`
	OutputSummary string         `json:"output_summary"`
	Status        string         `json:"status"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     string         `json:"created_at" format:"date-time"`
}
