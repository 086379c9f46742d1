// Package compiler turns record files into an ir.RecordSet.
//
// Record files are CUE or JSON documents unified against an embedded schema
// (schema.cue) before decoding. Shape errors are fatal and carry the source
// position. Label errors are not: an unknown state, relation label or
// criterion kind becomes a grave structural error and the offending value is
// dropped or marked Invalid, so the rest of the file is still checked.
//
// Usage:
//
//	c, err := compiler.New()
//	a, err := c.CompileFile("200.cue", src200)
//	b, err := c.CompileFile("catalogs.json", srcCatalogs)
//	u := compiler.Merge(a, b) // u.Set, u.Structural
package compiler
