package correction

import "github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"

// unionFind groups codes that share a fix.
type unionFind struct {
	parent map[ir.Code]ir.Code
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[ir.Code]ir.Code)}
}

func (u *unionFind) add(c ir.Code) {
	if _, ok := u.parent[c]; !ok {
		u.parent[c] = c
	}
}

func (u *unionFind) find(c ir.Code) ir.Code {
	u.add(c)
	for u.parent[c] != c {
		u.parent[c] = u.parent[u.parent[c]]
		c = u.parent[c]
	}
	return c
}

// union merges the sets of a and b. The smaller code becomes the root so
// partition identity does not depend on insertion order.
func (u *unionFind) union(a, b ir.Code) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
