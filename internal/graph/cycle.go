package graph

import (
	"sort"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
)

// SuccessionCycles returns the strongly connected components of the
// SuccessorOf graph among checked records that contain more than two
// records. Two-record cycles are plain antisymmetry violations and are
// reported by their own rule.
//
// Each component is sorted by code; components are sorted by first code.
func SuccessionCycles(v View) [][]ir.Code {
	adj := make(map[ir.Code][]ir.Code)
	var nodes []ir.Code
	for _, r := range v.Checked() {
		nodes = append(nodes, r.Code)
		for _, rel := range r.Relations {
			if rel.Kind == ir.SuccessorOf && rel.Target != r.Code && v.IsChecked(rel.Target) {
				adj[r.Code] = append(adj[r.Code], rel.Target)
			}
		}
	}

	var out [][]ir.Code
	for _, scc := range tarjanSCC(nodes, adj) {
		if len(scc) > 2 {
			sort.Slice(scc, func(i, j int) bool { return scc[i] < scc[j] })
			out = append(out, scc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in the given order so results are deterministic.
func tarjanSCC(nodes []ir.Code, adj map[ir.Code][]ir.Code) [][]ir.Code {
	var (
		index   = 0
		stack   []ir.Code
		indices = make(map[ir.Code]int)
		lowlink = make(map[ir.Code]int)
		onStack = make(map[ir.Code]bool)
		sccs    [][]ir.Code
	)

	var strongConnect func(ir.Code)
	strongConnect = func(v ir.Code) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack to form an SCC
		if lowlink[v] == indices[v] {
			var scc []ir.Code
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}
