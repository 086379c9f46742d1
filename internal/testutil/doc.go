// Package testutil provides builders and deterministic generators for tests.
//
// Record builders keep test fixtures short: Leaf returns a level-3 record
// that satisfies every presence rule, so a test only spells out the fields
// its rule looks at.
package testutil
