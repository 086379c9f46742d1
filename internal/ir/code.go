package ir

import (
	"regexp"
	"strings"
)

// Code is a hierarchical dotted classification code, e.g. "200.30.301.1".
type Code string

// levelPatterns match the four code shapes, index 0 is level 1.
var levelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{3}$`),
	regexp.MustCompile(`^\d{3}\.\d{1,3}$`),
	regexp.MustCompile(`^\d{3}\.\d{1,3}\.\d{1,3}$`),
	regexp.MustCompile(`^\d{3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`),
}

// Level returns the hierarchy level (1-4) derived from the code shape.
// Returns 0 for malformed codes.
func (c Code) Level() int {
	s := string(c)
	for i, p := range levelPatterns {
		if p.MatchString(s) {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether the code matches one of the four level shapes.
func (c Code) Valid() bool {
	return c.Level() > 0
}

// Parent returns the code one level up, or "" for level-1 and malformed codes.
func (c Code) Parent() Code {
	if c.Level() < 2 {
		return ""
	}
	i := strings.LastIndexByte(string(c), '.')
	return c[:i]
}

// Root returns the top-level (sheet) prefix of the code.
func (c Code) Root() Code {
	if i := strings.IndexByte(string(c), '.'); i >= 0 {
		return c[:i]
	}
	return c
}

// IsChildOf reports whether c is exactly one segment below parent.
func (c Code) IsChildOf(parent Code) bool {
	return c.Level() > 1 && c.Parent() == parent
}

// String implements fmt.Stringer.
func (c Code) String() string {
	return string(c)
}
