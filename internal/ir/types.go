package ir

import "fmt"

// Record is one node of the classification scheme.
type Record struct {
	Code            Code     `json:"code"`
	State           State    `json:"state"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Notes           []Note   `json:"notes,omitempty"`
	ExampleNotes    []Note   `json:"example_notes,omitempty"`
	ExclusionNotes  []Note   `json:"exclusion_notes,omitempty"`
	LegislationRefs []string `json:"legislation_refs,omitempty"`

	Relations []Relation `json:"relations,omitempty"`

	Retention   *RetentionSchedule `json:"retention,omitempty"`   // PCA
	Disposition *FinalDisposition  `json:"disposition,omitempty"` // DF

	Owners       []string      `json:"owners,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
	Transversal  bool          `json:"transversal,omitempty"`
	ProcessType  string        `json:"process_type,omitempty"`

	// Children is derived by the loader for level-3 records.
	Children []Code `json:"children,omitempty"`

	// CriterionSeq is the next criterion ordinal per schedule.
	// Missing entries start at the current justification length.
	CriterionSeq map[ScheduleKind]int `json:"-"`
}

// Note is an application note attached to a record.
type Note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Relation is a typed directed edge to another record.
type Relation struct {
	Target Code         `json:"target"`
	Kind   RelationKind `json:"kind"`
}

func (r Relation) String() string {
	return fmt.Sprintf("%s %s", r.Kind, r.Target)
}

// RetentionSchedule is the PCA object of a record.
type RetentionSchedule struct {
	Values              []string    `json:"values,omitempty"`
	Notes               string      `json:"notes,omitempty"`
	CountingMethod      string      `json:"counting_method,omitempty"`
	SubdivisionCriteria string      `json:"subdivision_criteria,omitempty"`
	Justification       []Criterion `json:"justification,omitempty"`
}

// FinalDisposition is the DF object of a record.
type FinalDisposition struct {
	Value         string      `json:"value"`
	Note          string      `json:"note,omitempty"`
	Justification []Criterion `json:"justification,omitempty"`
}

// Criterion is one justification entry inside a PCA or DF.
type Criterion struct {
	ID              string        `json:"id"`
	Kind            CriterionKind `json:"kind"`
	Content         string        `json:"content,omitempty"`
	LegislationRefs []string      `json:"legislation_refs,omitempty"`
	ProcessRefs     []Code        `json:"process_refs,omitempty"`
}

// HasProcessRef reports whether code is listed in the criterion's process refs.
func (c Criterion) HasProcessRef(code Code) bool {
	for _, p := range c.ProcessRefs {
		if p == code {
			return true
		}
	}
	return false
}

// Participant is an entity intervening in a transversal process.
type Participant struct {
	Entity string `json:"entity"`
	Role   string `json:"role,omitempty"`
}

// IndexTerm is one entry of the index-term list.
type IndexTerm struct {
	Code Code   `json:"code"`
	Term string `json:"term"`
}

// Catalogs holds the flat id sets injected into a run.
// A nil Legislation slice means the catalog was not provided.
type Catalogs struct {
	Entities    []string `json:"entities,omitempty"`
	EntityTypes []string `json:"entity_types,omitempty"`
	Legislation []string `json:"legislation,omitempty"`
}

// Sheet groups the records declared under one top-level code.
type Sheet struct {
	Name    string    `json:"name"`
	Records []*Record `json:"records"`
}

// RecordSet is the ingestion hand-off: every sheet plus index terms and catalogs.
type RecordSet struct {
	Sheets     []Sheet     `json:"sheets"`
	IndexTerms []IndexTerm `json:"index_terms,omitempty"`
	Catalogs   Catalogs    `json:"catalogs"`
}

// Len returns the number of declared records across all sheets.
func (s RecordSet) Len() int {
	n := 0
	for _, sh := range s.Sheets {
		n += len(sh.Records)
	}
	return n
}

// Level returns the level derived from the record's code.
func (r *Record) Level() int {
	return r.Code.Level()
}

// Checked reports whether invariants apply to the record.
func (r *Record) Checked() bool {
	return r.State.Checked() && r.Code.Valid()
}

// IsLeaf reports whether r is a level-3 record without derived children.
func (r *Record) IsLeaf() bool {
	return r.Level() == 3 && len(r.Children) == 0
}

// HasRelation reports whether r has an edge of kind to target.
func (r *Record) HasRelation(target Code, kind RelationKind) bool {
	for _, rel := range r.Relations {
		if rel.Target == target && rel.Kind == kind {
			return true
		}
	}
	return false
}

// HasKind reports whether r has at least one outgoing edge of kind.
func (r *Record) HasKind(kind RelationKind) bool {
	for _, rel := range r.Relations {
		if rel.Kind == kind {
			return true
		}
	}
	return false
}

// HasLegislation reports whether id is declared in r's legislation refs.
func (r *Record) HasLegislation(id string) bool {
	for _, l := range r.LegislationRefs {
		if l == id {
			return true
		}
	}
	return false
}

// Justification returns the criteria of the given schedule, or nil when the
// schedule object is absent.
func (r *Record) Justification(s ScheduleKind) []Criterion {
	switch s {
	case ScheduleRetention:
		if r.Retention != nil {
			return r.Retention.Justification
		}
	case ScheduleDisposition:
		if r.Disposition != nil {
			return r.Disposition.Justification
		}
	}
	return nil
}

// HasSchedule reports whether the schedule object is present.
func (r *Record) HasSchedule(s ScheduleKind) bool {
	switch s {
	case ScheduleRetention:
		return r.Retention != nil
	case ScheduleDisposition:
		return r.Disposition != nil
	}
	return false
}

// CriteriaOfKind returns the indexes of criteria of kind in schedule s.
func (r *Record) CriteriaOfKind(s ScheduleKind, kind CriterionKind) []int {
	var idx []int
	for i, c := range r.Justification(s) {
		if c.Kind == kind {
			idx = append(idx, i)
		}
	}
	return idx
}

// AppendCriterion appends c to schedule s. The schedule object must exist.
func (r *Record) AppendCriterion(s ScheduleKind, c Criterion) error {
	switch s {
	case ScheduleRetention:
		if r.Retention == nil {
			return fmt.Errorf("%s: no retention schedule", r.Code)
		}
		r.Retention.Justification = append(r.Retention.Justification, c)
	case ScheduleDisposition:
		if r.Disposition == nil {
			return fmt.Errorf("%s: no final disposition", r.Code)
		}
		r.Disposition.Justification = append(r.Disposition.Justification, c)
	default:
		return fmt.Errorf("unknown schedule %q", s)
	}
	return nil
}

// NextCriterionID allocates a criterion id for schedule s and advances the
// record's counter. Ids have the form crit_<schedule>_<code>_<n>; n starts at
// the number of existing criteria and skips ids already in use.
func (r *Record) NextCriterionID(s ScheduleKind) string {
	existing := r.Justification(s)
	taken := make(map[string]bool, len(existing))
	for _, c := range existing {
		taken[c.ID] = true
	}

	if r.CriterionSeq == nil {
		r.CriterionSeq = make(map[ScheduleKind]int, 2)
	}
	n, ok := r.CriterionSeq[s]
	if !ok {
		n = len(existing)
	}

	for {
		id := fmt.Sprintf("crit_%s_%s_%d", s, r.Code, n)
		n++
		if !taken[id] {
			r.CriterionSeq[s] = n
			return id
		}
	}
}

// AllNotes returns notes, example notes and exclusion notes in that order.
func (r *Record) AllNotes() []Note {
	out := make([]Note, 0, len(r.Notes)+len(r.ExampleNotes)+len(r.ExclusionNotes))
	out = append(out, r.Notes...)
	out = append(out, r.ExampleNotes...)
	return append(out, r.ExclusionNotes...)
}
