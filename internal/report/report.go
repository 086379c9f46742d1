package report

import (
	"fmt"
	"sort"
	"sync"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
)

// Structural error codes (S100-S299)
const (
	// Grave (S101-S199): block serialization
	ErrDuplicateDeclaration = "S101" // code declared more than once
	ErrInvalidRelation      = "S102" // relation target not declared
	ErrInvalidProcessRef    = "S103" // criterion process ref not declared
	ErrUnknownLegislation   = "S104" // legislation id not in catalog
	ErrMalformedCode        = "S105" // code does not match any level shape
	ErrUnknownRelationLabel = "S106" // relation label not recognized
	ErrUnknownState         = "S107" // state label not recognized
	ErrUnknownCriterionKind = "S108" // criterion kind label not recognized
	ErrUnknownIndexCode     = "S109" // index term references undeclared code

	// Normal (S201-S299): reported, do not block serialization
	ErrMissingParent     = "S201" // level-4 parent not declared
	ErrHarmonizingParent = "S202" // level-4 parent is harmonizing
)

// StructuralError is a load-time problem outside the invariant catalogue.
type StructuralError struct {
	Code    string  `json:"code"`
	Subject ir.Code `json:"subject"`
	Message string  `json:"message"`
	Sheet   string  `json:"sheet,omitempty"`
}

// Error implements the error interface.
func (e StructuralError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Subject, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Grave holds the errors that make a run non-serializable.
type Grave struct {
	DuplicateDeclarations []StructuralError `json:"duplicate_declarations"`
	// InvalidRelations is keyed by the unresolved target (code or legislation id).
	InvalidRelations map[string][]StructuralError `json:"invalid_relations"`
	Other            []StructuralError            `json:"other"`
}

// Empty reports whether no grave error was recorded.
func (g *Grave) Empty() bool {
	return len(g.DuplicateDeclarations) == 0 && len(g.InvalidRelations) == 0 && len(g.Other) == 0
}

// Count returns the number of grave errors.
func (g *Grave) Count() int {
	n := len(g.DuplicateDeclarations) + len(g.Other)
	for _, errs := range g.InvalidRelations {
		n += len(errs)
	}
	return n
}

// InferredEdge is a mirror edge inserted by closure.
type InferredEdge struct {
	From ir.Code         `json:"from"`
	To   ir.Code         `json:"to"`
	Kind ir.RelationKind `json:"kind"`
}

// Notice is a warning attached to a record.
type Notice struct {
	Code    ir.Code `json:"code"`
	Related ir.Code `json:"related,omitempty"`
	Message string  `json:"message"`
}

// Warnings never affect serializability.
type Warnings struct {
	InferredEdges               []InferredEdge `json:"inferred_edges"`
	HarmonizationNotices        []Notice       `json:"harmonization_notices"`
	RelationsTouchingHarmonized []Notice       `json:"relations_touching_harmonized"`
	Generic                     []string       `json:"generic"`
}

// Count returns the number of warnings.
func (w *Warnings) Count() int {
	return len(w.InferredEdges) + len(w.HarmonizationNotices) + len(w.RelationsTouchingHarmonized) + len(w.Generic)
}

// Report is the outcome of one validation run.
// Safe for concurrent use through its methods.
type Report struct {
	mu sync.Mutex

	Grave    Grave                 `json:"grave"`
	Normal   []StructuralError     `json:"normal"`
	Failures map[string][]*Failure `json:"invariant_failures"`
	Warnings Warnings              `json:"warnings"`

	// Regressions lists failures found by the final revalidation that the
	// first evaluation did not report.
	Regressions []*Failure `json:"regressions,omitempty"`
}

// New returns an empty report.
func New() *Report {
	return &Report{
		Grave:    Grave{InvalidRelations: make(map[string][]StructuralError)},
		Failures: make(map[string][]*Failure),
	}
}

// AddDuplicate records a duplicate declaration.
func (r *Report) AddDuplicate(e StructuralError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Grave.DuplicateDeclarations = append(r.Grave.DuplicateDeclarations, e)
}

// AddInvalidRelation records an unresolved reference keyed by target.
func (r *Report) AddInvalidRelation(target string, e StructuralError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Grave.InvalidRelations[target] = append(r.Grave.InvalidRelations[target], e)
}

// AddGrave records any other grave structural error.
func (r *Report) AddGrave(e StructuralError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Grave.Other = append(r.Grave.Other, e)
}

// AddNormal records a non-blocking structural error.
func (r *Report) AddNormal(e StructuralError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Normal = append(r.Normal, e)
}

// AddInferredEdge records a closure insertion.
func (r *Report) AddInferredEdge(e InferredEdge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings.InferredEdges = append(r.Warnings.InferredEdges, e)
}

// AddHarmonizationNotice records a harmonizing record skipped by the loader.
func (r *Report) AddHarmonizationNotice(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings.HarmonizationNotices = append(r.Warnings.HarmonizationNotices, n)
}

// AddTouchingHarmonized records a reference resolved to a harmonizing record.
func (r *Report) AddTouchingHarmonized(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings.RelationsTouchingHarmonized = append(r.Warnings.RelationsTouchingHarmonized, n)
}

// AddWarning records a generic warning.
func (r *Report) AddWarning(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings.Generic = append(r.Warnings.Generic, fmt.Sprintf(format, args...))
}

// AddFailures appends failures to their invariant buckets.
func (r *Report) AddFailures(fs []*Failure) {
	if len(fs) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range fs {
		r.Failures[f.InvariantID] = append(r.Failures[f.InvariantID], f)
	}
}

// SetRegressions records the failures introduced after correction.
func (r *Report) SetRegressions(fs []*Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Regressions = fs
}

// Serializable reports whether the record set may be handed to the serializer.
func (r *Report) Serializable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Grave.Empty()
}

// All returns every invariant failure in deterministic order.
func (r *Report) All() []*Failure {
	r.mu.Lock()
	var all []*Failure
	for _, fs := range r.Failures {
		all = append(all, fs...)
	}
	r.mu.Unlock()
	SortFailures(all)
	return all
}

// Sort puts every bucket in deterministic order. Called once a run is complete.
func (r *Report) Sort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, fs := range r.Failures {
		SortFailures(fs)
	}
	SortFailures(r.Regressions)
	sortStructural(r.Grave.DuplicateDeclarations)
	sortStructural(r.Grave.Other)
	for _, errs := range r.Grave.InvalidRelations {
		sortStructural(errs)
	}
	sortStructural(r.Normal)
	sort.SliceStable(r.Warnings.InferredEdges, func(i, j int) bool {
		a, b := r.Warnings.InferredEdges[i], r.Warnings.InferredEdges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})
	sortNotices(r.Warnings.HarmonizationNotices)
	sortNotices(r.Warnings.RelationsTouchingHarmonized)
	sort.Strings(r.Warnings.Generic)
}

// Counts summarizes a report.
type Counts struct {
	Grave       int `json:"grave"`
	Normal      int `json:"normal"`
	Failures    int `json:"failures"`
	Fixed       int `json:"fixed"`
	FixFailed   int `json:"fix_failed"`
	Warnings    int `json:"warnings"`
	Regressions int `json:"regressions"`
}

// Unfixed returns the number of failures not marked fixed.
func (c Counts) Unfixed() int {
	return c.Failures - c.Fixed
}

// Counts returns the report totals.
func (r *Report) Counts() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := Counts{
		Grave:       r.Grave.Count(),
		Normal:      len(r.Normal),
		Warnings:    r.Warnings.Count(),
		Regressions: len(r.Regressions),
	}
	for _, fs := range r.Failures {
		for _, f := range fs {
			c.Failures++
			switch f.FixStatus {
			case FixFixed:
				c.Fixed++
			case FixFailed:
				c.FixFailed++
			}
		}
	}
	return c
}

func sortStructural(errs []StructuralError) {
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Subject != errs[j].Subject {
			return errs[i].Subject < errs[j].Subject
		}
		if errs[i].Code != errs[j].Code {
			return errs[i].Code < errs[j].Code
		}
		return errs[i].Message < errs[j].Message
	})
}

func sortNotices(ns []Notice) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].Code != ns[j].Code {
			return ns[i].Code < ns[j].Code
		}
		if ns[i].Related != ns[j].Related {
			return ns[i].Related < ns[j].Related
		}
		return ns[i].Message < ns[j].Message
	})
}
