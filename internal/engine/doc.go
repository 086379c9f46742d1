// Package engine runs one validation of a record set end to end.
//
// A run goes through fixed phases, each completing before the next starts:
//
//  1. compile: record files are unified with the schema and merged; label
//     problems become grave structural errors, metadata problems become
//     normal ones.
//  2. build: the record store is loaded and closed under relation mirrors.
//  3. evaluate: the full invariant set runs against the closed graph.
//  4. correct (optional): fixable failures go through the speculative
//     correction protocol; commits are stamped by the run's Clock.
//  5. revalidate (optional): the invariant set runs again and any failure
//     the first evaluation did not report is recorded as a regression.
//
// The result carries the sorted report, the commit log and, when the run
// has no grave errors, the exported record set for serialization.
//
// Logging follows the rest of the module: Info per phase, Debug for detail.
package engine
