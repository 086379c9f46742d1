package compiler

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

//go:embed schema.cue
var schemaSource string

// Compiler compiles record files. It is not safe for concurrent use: the
// underlying CUE context is shared.
type Compiler struct {
	ctx    *cue.Context
	schema cue.Value
}

// New builds a compiler around the embedded record schema.
func New() (*Compiler, error) {
	ctx := cuecontext.New()
	s := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := s.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return &Compiler{ctx: ctx, schema: s.LookupPath(cue.ParsePath("#File"))}, nil
}

// Unit is the output of one or more compiled files.
type Unit struct {
	Set        ir.RecordSet
	Structural []report.StructuralError

	// legislationSeen is true when some file declared a legislation catalog,
	// even an empty one.
	legislationSeen bool
}

// CompileFile compiles one record file. Files ending in .json are read as
// JSON; anything else as CUE.
func (c *Compiler) CompileFile(filename string, src []byte) (*Unit, error) {
	var v cue.Value
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		expr, err := cuejson.Extract(filename, src)
		if err != nil {
			return nil, formatCUEError(err)
		}
		v = c.ctx.BuildExpr(expr)
	} else {
		v = c.ctx.CompileBytes(src, cue.Filename(filename))
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return c.CompileValue(v)
}

// CompileValue compiles an already built CUE value.
func (c *Compiler) CompileValue(v cue.Value) (*Unit, error) {
	v = c.schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	u := &Unit{}
	if err := u.decodeSheets(v.LookupPath(cue.ParsePath("sheets"))); err != nil {
		return nil, err
	}

	if terms := v.LookupPath(cue.ParsePath("index_terms")); terms.Exists() {
		var raw []ir.IndexTerm
		if err := terms.Decode(&raw); err != nil {
			return nil, formatCUEError(err)
		}
		for _, t := range raw {
			u.Set.IndexTerms = append(u.Set.IndexTerms, ir.IndexTerm{
				Code: ir.Code(strings.TrimSpace(string(t.Code))),
				Term: t.Term,
			})
		}
	}

	if cat := v.LookupPath(cue.ParsePath("catalogs")); cat.Exists() {
		if err := cat.Decode(&u.Set.Catalogs); err != nil {
			return nil, formatCUEError(err)
		}
		if cat.LookupPath(cue.ParsePath("legislation")).Exists() {
			u.legislationSeen = true
		}
	}
	return u, nil
}

func (u *Unit) decodeSheets(sheets cue.Value) error {
	if !sheets.Exists() {
		return nil
	}
	iter, err := sheets.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		var raws []rawRecord
		if err := iter.Value().Decode(&raws); err != nil {
			return formatCUEError(err)
		}
		sheet := ir.Sheet{Name: name, Records: make([]*ir.Record, 0, len(raws))}
		for _, raw := range raws {
			sheet.Records = append(sheet.Records, u.convert(name, raw))
		}
		u.Set.Sheets = append(u.Set.Sheets, sheet)
	}
	return nil
}

// Merge concatenates units in order. The legislation catalog is provided
// when any unit provided one.
func Merge(units ...*Unit) *Unit {
	out := &Unit{}
	for _, u := range units {
		out.Set.Sheets = append(out.Set.Sheets, u.Set.Sheets...)
		out.Set.IndexTerms = append(out.Set.IndexTerms, u.Set.IndexTerms...)
		out.Set.Catalogs.Entities = append(out.Set.Catalogs.Entities, u.Set.Catalogs.Entities...)
		out.Set.Catalogs.EntityTypes = append(out.Set.Catalogs.EntityTypes, u.Set.Catalogs.EntityTypes...)
		out.Set.Catalogs.Legislation = append(out.Set.Catalogs.Legislation, u.Set.Catalogs.Legislation...)
		out.Structural = append(out.Structural, u.Structural...)
		out.legislationSeen = out.legislationSeen || u.legislationSeen
	}
	if out.legislationSeen && out.Set.Catalogs.Legislation == nil {
		out.Set.Catalogs.Legislation = []string{}
	}
	if !out.legislationSeen {
		out.Set.Catalogs.Legislation = nil
	}
	return out
}

type rawRelation struct {
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

type rawCriterion struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Content     string   `json:"content"`
	Legislation []string `json:"legislation"`
	Processes   []string `json:"processes"`
}

type rawRetention struct {
	Values              []string       `json:"values"`
	Notes               string         `json:"notes"`
	CountingMethod      string         `json:"counting_method"`
	SubdivisionCriteria string         `json:"subdivision_criteria"`
	Justification       []rawCriterion `json:"justification"`
}

type rawDisposition struct {
	Value         string         `json:"value"`
	Note          string         `json:"note"`
	Justification []rawCriterion `json:"justification"`
}

type rawRecord struct {
	Code           string           `json:"code"`
	State          string           `json:"state"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Notes          []ir.Note        `json:"notes"`
	ExampleNotes   []ir.Note        `json:"example_notes"`
	ExclusionNotes []ir.Note        `json:"exclusion_notes"`
	Legislation    []string         `json:"legislation"`
	Relations      []rawRelation    `json:"relations"`
	PCA            *rawRetention    `json:"pca"`
	DF             *rawDisposition  `json:"df"`
	Owners         []string         `json:"owners"`
	Participants   []ir.Participant `json:"participants"`
	Transversal    bool             `json:"transversal"`
	ProcessType    string           `json:"process_type"`
}

// convert maps a decoded record to the IR, reporting unknown labels.
func (u *Unit) convert(sheet string, raw rawRecord) *ir.Record {
	code := ir.Code(strings.TrimSpace(raw.Code))
	r := &ir.Record{
		Code:            code,
		State:           ir.StateActive,
		Title:           raw.Title,
		Description:     raw.Description,
		Notes:           raw.Notes,
		ExampleNotes:    raw.ExampleNotes,
		ExclusionNotes:  raw.ExclusionNotes,
		LegislationRefs: trimAll(raw.Legislation),
		Owners:          trimAll(raw.Owners),
		Participants:    raw.Participants,
		Transversal:     raw.Transversal,
		ProcessType:     raw.ProcessType,
	}

	if raw.State != "" {
		state, ok := ir.ParseState(raw.State)
		if !ok {
			u.structural(sheet, code, report.ErrUnknownState, fmt.Sprintf("unknown state %q", raw.State))
		}
		r.State = state
	}

	for _, rel := range raw.Relations {
		kind, ok := ir.ParseRelationKind(rel.Kind)
		if !ok {
			u.structural(sheet, code, report.ErrUnknownRelationLabel,
				fmt.Sprintf("unknown relation label %q to %s", rel.Kind, rel.Target))
			continue
		}
		r.Relations = append(r.Relations, ir.Relation{Target: ir.Code(strings.TrimSpace(rel.Target)), Kind: kind})
	}

	if raw.PCA != nil {
		r.Retention = &ir.RetentionSchedule{
			Values:              raw.PCA.Values,
			Notes:               raw.PCA.Notes,
			CountingMethod:      raw.PCA.CountingMethod,
			SubdivisionCriteria: raw.PCA.SubdivisionCriteria,
			Justification:       u.criteria(sheet, code, raw.PCA.Justification),
		}
	}
	if raw.DF != nil {
		value, _ := ir.NormalizeDisposition(raw.DF.Value)
		r.Disposition = &ir.FinalDisposition{
			Value:         value,
			Note:          raw.DF.Note,
			Justification: u.criteria(sheet, code, raw.DF.Justification),
		}
	}
	return r
}

func (u *Unit) criteria(sheet string, code ir.Code, raws []rawCriterion) []ir.Criterion {
	var out []ir.Criterion
	for _, raw := range raws {
		kind, ok := ir.ParseCriterionKind(raw.Kind)
		if !ok {
			u.structural(sheet, code, report.ErrUnknownCriterionKind,
				fmt.Sprintf("unknown criterion kind %q", raw.Kind))
			continue
		}
		c := ir.Criterion{
			ID:              raw.ID,
			Kind:            kind,
			Content:         raw.Content,
			LegislationRefs: trimAll(raw.Legislation),
		}
		for _, p := range raw.Processes {
			c.ProcessRefs = append(c.ProcessRefs, ir.Code(strings.TrimSpace(p)))
		}
		out = append(out, c)
	}
	return out
}

func (u *Unit) structural(sheet string, code ir.Code, errCode, msg string) {
	u.Structural = append(u.Structural, report.StructuralError{
		Code:    errCode,
		Subject: code,
		Message: msg,
		Sheet:   sheet,
	})
}

func trimAll(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
