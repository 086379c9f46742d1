package report

import (
	"fmt"
	"strings"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
)

// Detail is the typed context of an invariant failure.
// Sealed: only types in this package implement it.
type Detail interface {
	// Message renders the detail as stable human-readable text.
	Message() string

	// Type names the detail variant in serialized reports.
	Type() string

	detail()
}

// MissingObject reports an absent retention schedule or final disposition.
type MissingObject struct {
	Schedule ir.ScheduleKind `json:"schedule"`
}

func (d MissingObject) detail()      {}
func (d MissingObject) Type() string { return "missing_object" }
func (d MissingObject) Message() string {
	return "missing " + scheduleName(d.Schedule)
}

// UnexpectedObject reports a schedule carried by a level-3 record with children.
type UnexpectedObject struct {
	Schedule ir.ScheduleKind `json:"schedule"`
	Children []ir.Code       `json:"children"`
}

func (d UnexpectedObject) detail()      {}
func (d UnexpectedObject) Type() string { return "unexpected_object" }
func (d UnexpectedObject) Message() string {
	return fmt.Sprintf("%s present on a record with children (%s)", scheduleName(d.Schedule), joinCodes(d.Children))
}

// InvalidDisposition reports an unrecognized disposition value.
type InvalidDisposition struct {
	Value string `json:"value"`
}

func (d InvalidDisposition) detail()      {}
func (d InvalidDisposition) Type() string { return "invalid_disposition" }
func (d InvalidDisposition) Message() string {
	return fmt.Sprintf("unrecognized disposition value %q", d.Value)
}

// MissingOwner reports a record without owners.
type MissingOwner struct{}

func (d MissingOwner) detail()         {}
func (d MissingOwner) Type() string    { return "missing_owner" }
func (d MissingOwner) Message() string { return "no owner declared" }

// SelfRelation reports an edge from a record to itself.
type SelfRelation struct {
	Kind ir.RelationKind `json:"kind"`
}

func (d SelfRelation) detail()      {}
func (d SelfRelation) Type() string { return "self_relation" }
func (d SelfRelation) Message() string {
	return fmt.Sprintf("%s relation to itself", d.Kind)
}

// DuplicateRelation reports more than one edge to the same target.
// Kinds lists every duplicate entry in declaration order.
type DuplicateRelation struct {
	Target ir.Code           `json:"target"`
	Kinds  []ir.RelationKind `json:"kinds"`
}

func (d DuplicateRelation) detail()      {}
func (d DuplicateRelation) Type() string { return "duplicate_relation" }
func (d DuplicateRelation) Message() string {
	return fmt.Sprintf("%d relations to %s (%s)", len(d.Kinds), d.Target, joinKinds(d.Kinds))
}

// ConflictingKinds reports mutually exclusive outgoing kinds on one record.
type ConflictingKinds struct {
	Kinds []ir.RelationKind `json:"kinds"`
}

func (d ConflictingKinds) detail()      {}
func (d ConflictingKinds) Type() string { return "conflicting_kinds" }
func (d ConflictingKinds) Message() string {
	return "mutually exclusive relations " + joinKinds(d.Kinds)
}

// PairRelation reports an antisymmetric kind held in both directions.
// The failure's code is the smaller code of the pair.
type PairRelation struct {
	Other ir.Code         `json:"other"`
	Kind  ir.RelationKind `json:"kind"`
}

func (d PairRelation) detail()      {}
func (d PairRelation) Type() string { return "pair_relation" }
func (d PairRelation) Message() string {
	return fmt.Sprintf("%s holds in both directions with %s", d.Kind, d.Other)
}

// Cycle reports a succession cycle.
type Cycle struct {
	Members []ir.Code `json:"members"`
}

func (d Cycle) detail()      {}
func (d Cycle) Type() string { return "cycle" }
func (d Cycle) Message() string {
	return "succession cycle " + joinCodes(d.Members)
}

// DispositionMismatch reports a disposition value contradicting the relations.
type DispositionMismatch struct {
	Expected string            `json:"expected"`
	Actual   string            `json:"actual"`
	Kinds    []ir.RelationKind `json:"kinds"`
}

func (d DispositionMismatch) detail()      {}
func (d DispositionMismatch) Type() string { return "disposition_mismatch" }
func (d DispositionMismatch) Message() string {
	actual := d.Actual
	if actual == "" {
		actual = "none"
	}
	return fmt.Sprintf("relations %s require disposition %s, found %s", joinKinds(d.Kinds), d.Expected, actual)
}

// Absence distinguishes why a justification reference is missing.
type Absence string

const (
	AbsentSchedule  Absence = "schedule"  // no PCA/DF object at all
	AbsentCriterion Absence = "criterion" // object present, no criterion of the kind
	AbsentReference Absence = "reference" // criterion present, code not listed
)

// MissingJustification reports a related code not justified by the matching
// criterion.
type MissingJustification struct {
	Target    ir.Code          `json:"target"`
	Relation  ir.RelationKind  `json:"relation"`
	Schedule  ir.ScheduleKind  `json:"schedule"`
	Criterion ir.CriterionKind `json:"criterion"`
	Absent    Absence          `json:"absent"`
}

func (d MissingJustification) detail()      {}
func (d MissingJustification) Type() string { return "missing_justification" }
func (d MissingJustification) Message() string {
	switch d.Absent {
	case AbsentSchedule:
		return fmt.Sprintf("%s %s not justified: no %s, no justification at all",
			d.Relation, d.Target, scheduleName(d.Schedule))
	case AbsentCriterion:
		return fmt.Sprintf("%s %s not justified: no %s criterion in %s, no justification at all",
			d.Relation, d.Target, d.Criterion, scheduleName(d.Schedule))
	default:
		return fmt.Sprintf("%s %s not justified: %s criterion present but reference missing",
			d.Relation, d.Target, d.Criterion)
	}
}

// MissingRelation reports a code justified by a criterion without the
// matching relation.
type MissingRelation struct {
	Target    ir.Code           `json:"target"`
	Schedule  ir.ScheduleKind   `json:"schedule"`
	Criterion ir.CriterionKind  `json:"criterion"`
	Expected  []ir.RelationKind `json:"expected"`
}

func (d MissingRelation) detail()      {}
func (d MissingRelation) Type() string { return "missing_relation" }
func (d MissingRelation) Message() string {
	return fmt.Sprintf("%s listed in %s %s criterion without relation %s",
		d.Target, scheduleName(d.Schedule), d.Criterion, strings.Join(kindStrings(d.Expected), " or "))
}

// MissingLegislation reports legislation cited by a legal criterion but not
// declared in context. Holder is the record whose refs must contain it.
type MissingLegislation struct {
	Legislation   string  `json:"legislation"`
	Holder        ir.Code `json:"holder"`
	ParentMissing bool    `json:"parent_missing,omitempty"`
}

func (d MissingLegislation) detail()      {}
func (d MissingLegislation) Type() string { return "missing_legislation" }
func (d MissingLegislation) Message() string {
	if d.ParentMissing {
		return fmt.Sprintf("legislation %s cannot be checked: parent %s not found", d.Legislation, d.Holder)
	}
	return fmt.Sprintf("legislation %s missing from context of %s", d.Legislation, d.Holder)
}

// DuplicateNote reports a note id declared on more than one record.
type DuplicateNote struct {
	NoteID string    `json:"note_id"`
	Others []ir.Code `json:"others"`
}

func (d DuplicateNote) detail()      {}
func (d DuplicateNote) Type() string { return "duplicate_note" }
func (d DuplicateNote) Message() string {
	return fmt.Sprintf("note id %s also used by %s", d.NoteID, joinCodes(d.Others))
}

// IndexTermIssue reports an index term missing from a child or repeated on an
// unrelated record.
type IndexTermIssue struct {
	Term     string  `json:"term"`
	Other    ir.Code `json:"other"`
	Repeated bool    `json:"repeated,omitempty"`
}

func (d IndexTermIssue) detail()      {}
func (d IndexTermIssue) Type() string { return "index_term" }
func (d IndexTermIssue) Message() string {
	if d.Repeated {
		return fmt.Sprintf("index term %q also on unrelated %s", d.Term, d.Other)
	}
	return fmt.Sprintf("index term %q missing on child %s", d.Term, d.Other)
}

// Participants reports a transversality flag contradicted by participants.
type Participants struct {
	Transversal bool `json:"transversal"`
	Count       int  `json:"count"`
}

func (d Participants) detail()      {}
func (d Participants) Type() string { return "participants" }
func (d Participants) Message() string {
	if d.Transversal {
		return "transversal process without participants"
	}
	return fmt.Sprintf("non-transversal process with %d participants", d.Count)
}

// HarmonizingParent reports a level-4 record under a harmonizing parent.
type HarmonizingParent struct {
	Parent ir.Code `json:"parent"`
}

func (d HarmonizingParent) detail()      {}
func (d HarmonizingParent) Type() string { return "harmonizing_parent" }
func (d HarmonizingParent) Message() string {
	return fmt.Sprintf("parent %s is harmonizing", d.Parent)
}

// Text is a free-form detail for ad hoc rules.
type Text struct {
	Text string `json:"text"`
}

func (d Text) detail()         {}
func (d Text) Type() string    { return "text" }
func (d Text) Message() string { return d.Text }

func scheduleName(s ir.ScheduleKind) string {
	switch s {
	case ir.ScheduleRetention:
		return "retention schedule"
	case ir.ScheduleDisposition:
		return "final disposition"
	}
	return string(s)
}

func joinCodes(codes []ir.Code) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func kindStrings(kinds []ir.RelationKind) []string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return parts
}

func joinKinds(kinds []ir.RelationKind) string {
	return strings.Join(kindStrings(kinds), ", ")
}
