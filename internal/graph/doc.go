// Package graph loads a record set into a record store and closes its
// relation graph.
//
// Loading is two-phase and the phases are distinct types:
//
//	g, rep := graph.Build(set)   // classify, derive children, check references
//	cg := g.Close()              // insert queued mirror edges exactly once
//
// Only *ClosedGraph (and overlays derived from it) satisfy View, so invariant
// rules cannot be evaluated on a graph whose closure has not run.
//
// The store is copy-on-write: readers get whole record pointers, and a
// committed correction swaps a clone in under the write lock. Records handed
// out by a View must be treated as read-only.
package graph
