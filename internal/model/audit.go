package model

import (
	"bytes"
	"encoding/json"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Score display modes reported by Lighthouse for each audit.
const (
	ScoreDisplayModeNumeric       = "numeric"
	ScoreDisplayModeBinary        = "binary"
	ScoreDisplayModeManual        = "manual"
	ScoreDisplayModeInformative   = "informative"
	ScoreDisplayModeNotApplicable = "notApplicable"
	ScoreDisplayModeError         = "error"
)

// Audit is a single check of a Lighthouse report. Score is nil when
// Lighthouse reports null, typically for informative or not applicable audits.
type Audit struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Score            *float64 `json:"score"`
	ScoreDisplayMode string   `json:"scoreDisplayMode"`
}

// Audits maps audit id to Audit and keeps the order in which the audits
// appear in the report. The zero value is an empty mapping.
type Audits struct {
	m *orderedmap.OrderedMap[string, Audit]
}

// NewAudits builds Audits in the order of the arguments; the key is Audit.ID.
func NewAudits(audits ...Audit) Audits {
	var ret Audits
	for _, a := range audits {
		ret = ret.With(a.ID, a)
	}
	return ret
}

// With returns a copy of a with id set to audit. An existing id keeps its position.
func (a Audits) With(id string, audit Audit) Audits {
	m := orderedmap.New[string, Audit]()
	for k, v := range a.All() {
		m.Set(k, v)
	}
	m.Set(id, audit)
	return Audits{m: m}
}

func (a Audits) Len() int {
	if a.m == nil {
		return 0
	}
	return a.m.Len()
}

func (a Audits) Get(id string) (Audit, bool) {
	if a.m == nil {
		return Audit{}, false
	}
	return a.m.Get(id)
}

// All iterates over the audits in report order.
func (a Audits) All() iter.Seq2[string, Audit] {
	return func(yield func(string, Audit) bool) {
		if a.m == nil {
			return
		}
		for pair := a.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// IDs returns audit ids in report order.
func (a Audits) IDs() []string {
	ret := make([]string, 0, a.Len())
	for id := range a.All() {
		ret = append(ret, id)
	}
	return ret
}

func (a *Audits) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		a.m = nil
		return nil
	}
	m := orderedmap.New[string, Audit]()
	if err := m.UnmarshalJSON(b); err != nil {
		return err
	}
	a.m = m
	return nil
}

func (a Audits) MarshalJSON() ([]byte, error) {
	if a.m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a.m)
}
