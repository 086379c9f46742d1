package report

import (
	"encoding/json"
	"sort"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
)

// FixStatus records what the correction engine did with a failure.
type FixStatus string

const (
	FixNone   FixStatus = "none"
	FixFixed  FixStatus = "fixed"
	FixFailed FixStatus = "failed"
)

// Failure is one unsatisfied invariant on one record.
type Failure struct {
	InvariantID string
	Code        ir.Code
	Detail      Detail
	FixStatus   FixStatus
	FixNote     string
}

// NewFailure returns a failure with FixNone status.
func NewFailure(invariantID string, code ir.Code, d Detail) *Failure {
	return &Failure{
		InvariantID: invariantID,
		Code:        code,
		Detail:      d,
		FixStatus:   FixNone,
	}
}

// Message returns the failure's context text.
func (f *Failure) Message() string {
	if f.Detail == nil {
		return ""
	}
	return f.Detail.Message()
}

// Key identifies the failure across evaluations of the same rules.
func (f *Failure) Key() string {
	return f.InvariantID + "\x1f" + string(f.Code) + "\x1f" + f.Message()
}

// MarkFixed records a committed fix.
func (f *Failure) MarkFixed(note string) {
	f.FixStatus = FixFixed
	f.FixNote = note
}

// MarkFailed records a rejected or impossible fix.
func (f *Failure) MarkFailed(note string) {
	f.FixStatus = FixFailed
	f.FixNote = note
}

type failureJSON struct {
	InvariantID string          `json:"invariant_id"`
	Code        ir.Code         `json:"code"`
	ContextInfo string          `json:"context_info"`
	DetailType  string          `json:"detail_type,omitempty"`
	Detail      json.RawMessage `json:"detail,omitempty"`
	FixStatus   FixStatus       `json:"fix_status"`
	FixNote     string          `json:"fix_note,omitempty"`
}

// MarshalJSON renders the failure with its detail tagged by type.
func (f *Failure) MarshalJSON() ([]byte, error) {
	out := failureJSON{
		InvariantID: f.InvariantID,
		Code:        f.Code,
		ContextInfo: f.Message(),
		FixStatus:   f.FixStatus,
		FixNote:     f.FixNote,
	}
	if f.Detail != nil {
		raw, err := json.Marshal(f.Detail)
		if err != nil {
			return nil, err
		}
		out.DetailType = f.Detail.Type()
		out.Detail = raw
	}
	return json.Marshal(out)
}

// SortFailures orders failures by invariant id, code, then message.
func SortFailures(fs []*Failure) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.InvariantID != b.InvariantID {
			return a.InvariantID < b.InvariantID
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message() < b.Message()
	})
}

// NewKeys returns the failures of after whose key does not appear in before.
func NewKeys(before, after []*Failure) []*Failure {
	seen := make(map[string]bool, len(before))
	for _, f := range before {
		seen[f.Key()] = true
	}
	var added []*Failure
	for _, f := range after {
		if !seen[f.Key()] {
			added = append(added, f)
		}
	}
	return added
}

// InvariantIDs returns the distinct invariant ids of fs, sorted.
func InvariantIDs(fs []*Failure) []string {
	set := make(map[string]bool)
	for _, f := range fs {
		set[f.InvariantID] = true
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
