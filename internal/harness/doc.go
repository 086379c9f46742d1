// Package harness runs scenario files against the validation pipeline.
//
// A scenario names some record files (or declares records inline), the
// pipeline settings to use, and assertions over the resulting report,
// commit log, output record set and archive rows.
//
// # Scenario Format
//
//	name: missing_legislation
//	description: "A legal criterion citing undeclared legislation is fixed"
//	files:
//	  - records/missing_legislation.cue
//	autofix: true
//	assertions:
//	  - type: failure
//	    invariant: leg_inv_1
//	    code: "200.10.001"
//	    status: fixed
//	  - type: record
//	    code: "200.10.001"
//	    legislation: [leg_1]
//
// Inline records use the same shape as a record file:
//
//	records:
//	  sheets:
//	    "200":
//	      - code: "200.10.001"
//	        relations: [{target: "200.10.001", kind: eCruzadoCom}]
//
// File paths are relative to the scenario file. Runs use a fixed run id
// (the scenario name) and a fixed clock, so two runs of the same scenario
// produce byte-identical snapshots.
//
// # Assertion Types
//
//   - failure: at least one (or exactly count) matching invariant failure
//   - no_failure: no matching invariant failure
//   - structural: a load error with the given severity, error code or subject
//   - serializable: whether the run produced an output record set
//   - regressions: number of failures found by the final revalidation
//   - commit: a correction commit for the given invariant or code
//   - record: a property of a record in the output set
//   - archived: number of matching failure rows after archiving the run
package harness
