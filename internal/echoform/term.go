package echoform

import (
	"encoding/json"
	"fmt"
	"time"
)

// Term is one weighted entry in an EchoForm. Symbol, role, and intensity are
// required on the wire; timestamp is optional (terms without one never
// decay). Extra holds arbitrary additional keys, flattened into the term
// object on the wire rather than nested.
type Term struct {
	Symbol    string
	Role      string
	Intensity float64
	Timestamp *time.Time
	Extra     map[string]any
}

// NewTerm builds a term without a timestamp.
func NewTerm(symbol, role string, intensity float64) Term {
	return Term{Symbol: symbol, Role: role, Intensity: intensity}
}

// NewTimedTerm builds a term carrying a timestamp, making it subject to
// time decay.
func NewTimedTerm(symbol, role string, intensity float64, at time.Time) Term {
	at = at.UTC()
	return Term{Symbol: symbol, Role: role, Intensity: intensity, Timestamp: &at}
}

// MarshalJSON flattens Extra into the term object. encoding/json sorts map
// keys, so the output is canonical.
func (t Term) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(t.Extra)+4)
	for k, v := range t.Extra {
		obj[k] = v
	}
	obj["symbol"] = t.Symbol
	obj["role"] = t.Role
	obj["intensity"] = t.Intensity
	if t.Timestamp != nil {
		obj["timestamp"] = t.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(obj)
}

// UnmarshalJSON splits the wire object back into required fields plus Extra.
func (t *Term) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unmarshal term: %w", err)
	}

	if v, ok := obj["symbol"].(string); ok {
		t.Symbol = v
	}
	if v, ok := obj["role"].(string); ok {
		t.Role = v
	}
	if v, ok := obj["intensity"].(float64); ok {
		t.Intensity = v
	}
	if v, ok := obj["timestamp"].(string); ok {
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return fmt.Errorf("unmarshal term timestamp %q: %w", v, err)
		}
		t.Timestamp = &ts
	}

	delete(obj, "symbol")
	delete(obj, "role")
	delete(obj, "intensity")
	delete(obj, "timestamp")
	if len(obj) > 0 {
		t.Extra = obj
	}
	return nil
}
