// Package ir provides the canonical record model for the classification scheme.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// record model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Codes are dotted strings; the level is always derived from the shape,
//     never stored independently of the code
//   - Records are mutated only by closure and by committed corrections;
//     everything else works on clones (see Clone)
//   - All JSON tags use snake_case
//   - Digests use canonical JSON (sorted keys, NFC strings)
package ir
