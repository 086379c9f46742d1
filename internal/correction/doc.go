// Package correction repairs invariant failures speculatively.
//
// Every fix is tried on clones of the records it touches. The fixer checks
// the failure's dependency set on the live graph and on an overlay carrying
// the patched clones; the patch is committed only when the overlay produces
// no failure key the live graph did not already have. A rejected patch
// leaves the live graph untouched, field for field.
//
// Failures whose touched record sets are disjoint are independent and run in
// parallel partitions. Inside a partition fixes apply in failure order, each
// seeing the commits of the ones before it.
package correction
