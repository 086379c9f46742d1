// Package invariant holds the rule catalogue checked against a closed record
// graph.
//
// A rule is a pure function of a graph.View and a Scope. It reads records,
// never mutates them, and returns zero or more typed failures. Rules are
// independent: evaluation order is not observable because the report sorts
// failures, so Set.Evaluate may run rules in parallel.
//
// A nil Scope means every checked record. A non-nil Scope restricts a rule
// to the failures that involve a scoped record: the record itself, either
// end of a pair, or the parent/child a record's failure depends on. The
// correction engine uses scopes to evaluate dependency sets on the records a
// fix touches.
//
// Malformed or partially absent data fails the predicate. Rules do not
// panic on it; a panicking rule is recovered and reported as a failure.
package invariant
