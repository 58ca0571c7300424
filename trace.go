package overrides

import (
	"encoding/json"
)

// Override origins reported in traces.
const (
	OriginDefault = "default"
	OriginUser    = "user"
)

// Trace records how a resolution was produced: the params that were matched
// and the overrides that were applied, in application order.
type Trace struct {
	Plugin  string            `json:"plugin"`
	Params  MatchParams       `json:"params"`
	Applied []AppliedOverride `json:"applied"`
}

// AppliedOverride identifies one override that contributed to a resolution.
// Index is the position in the combined override list.
type AppliedOverride struct {
	Index    int      `json:"index"`
	Origin   string   `json:"origin"`
	Criteria Criteria `json:"criteria"`
}

// Indexes returns the applied override positions.
func (t Trace) Indexes() []int {
	out := make([]int, len(t.Applied))
	for i, applied := range t.Applied {
		out[i] = applied.Index
	}
	return out
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

func buildTrace(plugin string, params MatchParams, options ParsedOptions, defaultCount int, indexes []int) Trace {
	trace := Trace{Plugin: plugin, Params: params, Applied: make([]AppliedOverride, 0, len(indexes))}
	for _, index := range indexes {
		origin := OriginUser
		if index < defaultCount {
			origin = OriginDefault
		}
		trace.Applied = append(trace.Applied, AppliedOverride{
			Index:    index,
			Origin:   origin,
			Criteria: options.Overrides[index].Criteria,
		})
	}
	return trace
}
