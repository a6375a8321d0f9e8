package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecisionEvent is a decision recorded alongside a progress update.
type DecisionEvent struct {
	Timestamp string `json:"timestamp,omitempty"`
	Title     string `json:"title"`
	Rationale string `json:"rationale,omitempty"`
	Impact    string `json:"impact,omitempty"`
	DecidedBy string `json:"decided_by,omitempty"`
}

// Metrics is the payload attached to a progress update. Decisions are typed;
// every other key is carried through untouched.
type Metrics struct {
	Decisions []DecisionEvent            `json:"decisions,omitempty"`
	Values    map[string]json.RawMessage `json:"-"`
}

func (m Metrics) IsZero() bool {
	return len(m.Decisions) == 0 && len(m.Values) == 0
}

func (m Metrics) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Values)+1)
	for k, v := range m.Values {
		if k == "decisions" {
			continue
		}
		out[k] = v
	}
	if len(m.Decisions) > 0 {
		data, err := json.Marshal(m.Decisions)
		if err != nil {
			return nil, err
		}
		out["decisions"] = data
	}
	return json.Marshal(out)
}

func (m *Metrics) UnmarshalJSON(data []byte) error {
	*m = Metrics{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("metrics must be an object: %w", err)
	}
	if d, ok := raw["decisions"]; ok {
		delete(raw, "decisions")
		if !bytes.Equal(bytes.TrimSpace(d), []byte("null")) {
			if err := json.Unmarshal(d, &m.Decisions); err != nil {
				return fmt.Errorf("metrics.decisions: %w", err)
			}
		}
	}
	if len(raw) > 0 {
		m.Values = raw
	}
	return nil
}

// MetricsFromMap converts a decoded JSON object into Metrics.
func MetricsFromMap(in map[string]any) (Metrics, error) {
	if len(in) == 0 {
		return Metrics{}, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return Metrics{}, fmt.Errorf("invalid metrics: %w", err)
	}
	var m Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return Metrics{}, fmt.Errorf("invalid metrics: %w", err)
	}
	return m, nil
}
