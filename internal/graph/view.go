package graph

import (
	"sort"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
)

// View is a read-only view of a closed record graph.
// Sealed: implemented by *ClosedGraph and its overlays only.
type View interface {
	// Record returns any declared record, harmonizing ones included.
	Record(code ir.Code) (*ir.Record, bool)

	// Checked returns the Active/Inactive records with valid codes, sorted by code.
	Checked() []*ir.Record

	// IsChecked reports whether code names a checked record.
	IsChecked(code ir.Code) bool

	IndexTerms() []ir.IndexTerm
	Catalogs() ir.Catalogs

	closedView()
}

// ClosedGraph is a record graph whose closure has run.
type ClosedGraph struct {
	g       *Graph
	checked []ir.Code
}

func (c *ClosedGraph) closedView() {}

// Record implements View.
func (c *ClosedGraph) Record(code ir.Code) (*ir.Record, bool) {
	return c.g.store.Get(code)
}

// Checked implements View.
func (c *ClosedGraph) Checked() []*ir.Record {
	out := make([]*ir.Record, 0, len(c.checked))
	for _, code := range c.checked {
		if r, ok := c.g.store.Get(code); ok {
			out = append(out, r)
		}
	}
	return out
}

// IsChecked implements View.
func (c *ClosedGraph) IsChecked(code ir.Code) bool {
	i := sort.Search(len(c.checked), func(i int) bool { return c.checked[i] >= code })
	return i < len(c.checked) && c.checked[i] == code
}

// IndexTerms implements View.
func (c *ClosedGraph) IndexTerms() []ir.IndexTerm {
	return c.g.indexTerms
}

// Catalogs implements View.
func (c *ClosedGraph) Catalogs() ir.Catalogs {
	return c.g.catalogs
}

// Harmonizing returns the codes of harmonizing records, sorted.
func (c *ClosedGraph) Harmonizing() []ir.Code {
	out := make([]ir.Code, 0, len(c.g.harmonizing))
	for code := range c.g.harmonizing {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of declared records.
func (c *ClosedGraph) Len() int {
	return c.g.store.Len()
}

// Reclose runs the closure computation again and inserts whatever it finds.
// On a graph that is already closed it inserts nothing and returns 0.
func (c *ClosedGraph) Reclose() int {
	edges := c.g.missingMirrors(c.g.store.Codes())
	c.g.insertEdges(edges)
	return len(edges)
}

// With returns a view where the given records replace the live ones.
// The clones must not be mutated after the call.
func (c *ClosedGraph) With(clones ...*ir.Record) View {
	over := make(map[ir.Code]*ir.Record, len(clones))
	for _, r := range clones {
		over[r.Code] = r
	}
	return &overlay{base: c, over: over}
}

// Commit swaps the given records into the live store in one write.
// Unknown codes are ignored. Returns the number of records replaced.
func (c *ClosedGraph) Commit(recs ...*ir.Record) int {
	return c.g.store.swap(recs)
}

// Export returns the current records grouped by top-level code, ready for
// serialization. Sheets and records are sorted by code.
func (c *ClosedGraph) Export() ir.RecordSet {
	bySheet := make(map[ir.Code][]*ir.Record)
	var roots []ir.Code
	for _, code := range c.g.store.Codes() {
		r, _ := c.g.store.Get(code)
		root := code.Root()
		if _, ok := bySheet[root]; !ok {
			roots = append(roots, root)
		}
		bySheet[root] = append(bySheet[root], r.Clone())
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	set := ir.RecordSet{
		Sheets:     make([]ir.Sheet, 0, len(roots)),
		IndexTerms: append([]ir.IndexTerm(nil), c.g.indexTerms...),
		Catalogs:   c.g.catalogs,
	}
	for _, root := range roots {
		set.Sheets = append(set.Sheets, ir.Sheet{Name: string(root), Records: bySheet[root]})
	}
	return set
}

// overlay is a View with some records replaced by uncommitted clones.
type overlay struct {
	base *ClosedGraph
	over map[ir.Code]*ir.Record
}

func (o *overlay) closedView() {}

func (o *overlay) Record(code ir.Code) (*ir.Record, bool) {
	if r, ok := o.over[code]; ok {
		return r, true
	}
	return o.base.Record(code)
}

func (o *overlay) Checked() []*ir.Record {
	out := o.base.Checked()
	for i, r := range out {
		if c, ok := o.over[r.Code]; ok {
			out[i] = c
		}
	}
	return out
}

func (o *overlay) IsChecked(code ir.Code) bool {
	return o.base.IsChecked(code)
}

func (o *overlay) IndexTerms() []ir.IndexTerm {
	return o.base.IndexTerms()
}

func (o *overlay) Catalogs() ir.Catalogs {
	return o.base.Catalogs()
}
