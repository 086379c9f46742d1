package ir

import "strings"

// State is the lifecycle state of a record.
type State string

const (
	StateActive      State = "active"
	StateInactive    State = "inactive"
	StateHarmonizing State = "harmonizing"
	StateInvalid     State = "invalid"
)

// stateLabels maps accepted input labels to states.
// Both the short sheet codes and the long names are accepted.
var stateLabels = map[string]State{
	"a":            StateActive,
	"ativo":        StateActive,
	"active":       StateActive,
	"i":            StateInactive,
	"inativo":      StateInactive,
	"inactive":     StateInactive,
	"h":            StateHarmonizing,
	"harmonização": StateHarmonizing,
	"harmonizacao": StateHarmonizing,
	"harmonizing":  StateHarmonizing,
}

// ParseState maps an input label to a State.
// Unknown labels return StateInvalid and false.
func ParseState(label string) (State, bool) {
	s, ok := stateLabels[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return StateInvalid, false
	}
	return s, true
}

// Checked reports whether records in this state are subject to invariants.
func (s State) Checked() bool {
	return s == StateActive || s == StateInactive
}

// RelationKind is the type of a directed relation between two records.
type RelationKind string

const (
	SynthesisOf   RelationKind = "SynthesisOf"
	SynthesizedBy RelationKind = "SynthesizedBy"
	SupplementOf  RelationKind = "SupplementOf"
	SupplementFor RelationKind = "SupplementFor"
	SuccessorOf   RelationKind = "SuccessorOf"
	PredecessorOf RelationKind = "PredecessorOf"
	CrossedWith   RelationKind = "CrossedWith"
	ComplementOf  RelationKind = "ComplementOf"
)

// RelationKinds lists every relation kind in declaration order.
var RelationKinds = []RelationKind{
	SynthesisOf, SynthesizedBy,
	SupplementOf, SupplementFor,
	SuccessorOf, PredecessorOf,
	CrossedWith, ComplementOf,
}

// relationLabels maps the ontology predicate labels used in the source
// sheets to relation kinds. The English names are accepted as well.
var relationLabels = map[string]RelationKind{
	"esintesede":      SynthesisOf,
	"esintetizadopor": SynthesizedBy,
	"esuplementode":   SupplementOf,
	"esuplementopara": SupplementFor,
	"esucessorde":     SuccessorOf,
	"eantecessorde":   PredecessorOf,
	"ecruzadocom":     CrossedWith,
	"ecomplementarde": ComplementOf,
}

func init() {
	for _, k := range RelationKinds {
		relationLabels[strings.ToLower(string(k))] = k
	}
}

// ParseRelationKind maps an input label to a RelationKind.
func ParseRelationKind(label string) (RelationKind, bool) {
	k, ok := relationLabels[strings.ToLower(strings.TrimSpace(label))]
	return k, ok
}

// mirrors holds the closing edge kind for symmetric and inverse kinds.
var mirrors = map[RelationKind]RelationKind{
	CrossedWith:   CrossedWith,
	ComplementOf:  ComplementOf,
	SynthesisOf:   SynthesizedBy,
	SynthesizedBy: SynthesisOf,
	SupplementOf:  SupplementFor,
	SupplementFor: SupplementOf,
	SuccessorOf:   PredecessorOf,
	PredecessorOf: SuccessorOf,
}

// Mirror returns the kind of the edge that closes k in the opposite
// direction. Every kind has a mirror; symmetric kinds mirror themselves.
func (k RelationKind) Mirror() (RelationKind, bool) {
	m, ok := mirrors[k]
	return m, ok
}

// Symmetric reports whether k is its own mirror.
func (k RelationKind) Symmetric() bool {
	m, ok := mirrors[k]
	return ok && m == k
}

// CriterionKind is the type of a justification criterion.
type CriterionKind string

const (
	CriterionLegal           CriterionKind = "legal"
	CriterionDensity         CriterionKind = "density"
	CriterionComplementarity CriterionKind = "complementarity"
	CriterionUtility         CriterionKind = "utility"
	CriterionManagerial      CriterionKind = "managerial"
)

var criterionLabels = map[string]CriterionKind{
	"legal":     CriterionLegal,
	"densidade": CriterionDensity,
	"density":   CriterionDensity,

	"complementaridade": CriterionComplementarity,
	"complementarity":   CriterionComplementarity,

	"utilidade":   CriterionUtility,
	"utility":     CriterionUtility,
	"gestionario": CriterionManagerial,
	"managerial":  CriterionManagerial,
}

// ParseCriterionKind maps an input label to a CriterionKind.
func ParseCriterionKind(label string) (CriterionKind, bool) {
	k, ok := criterionLabels[strings.ToLower(strings.TrimSpace(label))]
	return k, ok
}

// ScheduleKind identifies which justification a criterion belongs to.
type ScheduleKind string

const (
	ScheduleRetention   ScheduleKind = "pca"
	ScheduleDisposition ScheduleKind = "df"
)

// Disposition codes for the final destination of a record.
const (
	DispositionConservation        = "C"
	DispositionElimination         = "E"
	DispositionPartialConservation = "CP"
)

var dispositionLabels = map[string]string{
	"c":            DispositionConservation,
	"conservação":  DispositionConservation,
	"conservacao":  DispositionConservation,
	"conservation": DispositionConservation,

	"e":           DispositionElimination,
	"eliminação":  DispositionElimination,
	"eliminacao":  DispositionElimination,
	"elimination": DispositionElimination,

	"cp":                   DispositionPartialConservation,
	"conservação parcial":  DispositionPartialConservation,
	"conservacao parcial":  DispositionPartialConservation,
	"partial conservation": DispositionPartialConservation,
}

// NormalizeDisposition maps a disposition label to its code.
// Unknown values are returned trimmed and unchanged with ok=false so the
// invariant layer can report them.
func NormalizeDisposition(label string) (string, bool) {
	trimmed := strings.TrimSpace(label)
	code, ok := dispositionLabels[strings.ToLower(trimmed)]
	if !ok {
		return trimmed, false
	}
	return code, true
}
