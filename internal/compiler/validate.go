package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
)

// Metadata validation codes (E100-E199). These never block serialization.
const (
	ErrEmptyTitle          = "E101" // title is required
	ErrNoteWithoutID       = "E102" // note id is required
	ErrEmptyCriterion      = "E103" // criterion content is required
	ErrUnknownEntity       = "E104" // owner or participant not in entity catalog
	ErrDuplicateCriterion  = "E105" // criterion id repeated within a schedule
	ErrParticipantNoEntity = "E106" // participant without entity
)

// ValidationError is a metadata problem on one record.
type ValidationError struct {
	Subject ir.Code `json:"subject"`
	Field   string  `json:"field"`
	Message string  `json:"message"`
	Code    string  `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s %s: %s", e.Code, e.Subject, e.Field, e.Message)
}

// Validate checks record metadata the invariant catalogue does not cover.
// Harmonizing records are skipped. Returns all errors found.
func Validate(set ir.RecordSet) []ValidationError {
	var entities map[string]bool
	if len(set.Catalogs.Entities) > 0 {
		entities = make(map[string]bool, len(set.Catalogs.Entities))
		for _, e := range set.Catalogs.Entities {
			entities[e] = true
		}
	}

	var errs []ValidationError
	for _, sh := range set.Sheets {
		for _, r := range sh.Records {
			if r.State == ir.StateHarmonizing {
				continue
			}
			errs = append(errs, validateRecord(r, entities)...)
		}
	}
	return errs
}

func validateRecord(r *ir.Record, entities map[string]bool) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Subject: r.Code,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	// E101
	if strings.TrimSpace(r.Title) == "" {
		add("title", ErrEmptyTitle, "title is required and must be non-empty")
	}

	// E102
	for field, notes := range map[string][]ir.Note{
		"notes":           r.Notes,
		"example_notes":   r.ExampleNotes,
		"exclusion_notes": r.ExclusionNotes,
	} {
		for i, n := range notes {
			if strings.TrimSpace(n.ID) == "" {
				add(fmt.Sprintf("%s[%d].id", field, i), ErrNoteWithoutID, "note id is required")
			}
		}
	}

	for _, s := range []ir.ScheduleKind{ir.ScheduleRetention, ir.ScheduleDisposition} {
		ids := make(map[string]bool)
		for i, c := range r.Justification(s) {
			field := fmt.Sprintf("%s.justification[%d]", s, i)
			// E103
			if strings.TrimSpace(c.Content) == "" {
				add(field+".content", ErrEmptyCriterion, "%s criterion has no content", c.Kind)
			}
			// E105
			if c.ID != "" && ids[c.ID] {
				add(field+".id", ErrDuplicateCriterion, "duplicate criterion id %q", c.ID)
			}
			ids[c.ID] = true
		}
	}

	// E104
	if entities != nil {
		for i, o := range r.Owners {
			if !entities[o] {
				add(fmt.Sprintf("owners[%d]", i), ErrUnknownEntity, "entity %q not in catalog", o)
			}
		}
	}

	for i, p := range r.Participants {
		field := fmt.Sprintf("participants[%d]", i)
		// E106
		if strings.TrimSpace(p.Entity) == "" {
			add(field+".entity", ErrParticipantNoEntity, "participant without entity")
			continue
		}
		if entities != nil && !entities[p.Entity] {
			add(field+".entity", ErrUnknownEntity, "entity %q not in catalog", p.Entity)
		}
	}

	return sortValidation(errs)
}

// sortValidation orders one record's errors by field.
func sortValidation(errs []ValidationError) []ValidationError {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}
