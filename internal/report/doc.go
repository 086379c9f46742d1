// Package report collects everything a validation run finds: grave structural
// errors, normal structural errors, invariant failures with their fix status,
// and warnings.
//
// A run is serializable only when the grave bucket is empty. Invariant
// failures never block serialization, fixed or not.
//
// Failure details are a sealed union (see Detail). Every detail renders a
// stable message; the pair (invariant id, code, message) is the failure key
// used to diff two evaluations of the same rules.
package report
