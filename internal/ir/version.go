package ir

// Version constants for the record model and the checker.
const (
	// ModelVersion is the record model schema version.
	ModelVersion = "1"

	// CheckerVersion is the clavcheck version.
	CheckerVersion = "0.1.0"
)
