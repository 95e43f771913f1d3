// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package grammar

import (
	"sort"
	"strings"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
)

// ComputeNullables marks every rule that can succeed without consuming
// input. It iterates to a fixpoint so mutually recursive rules settle.
func ComputeNullables(g *Grammar) {
	for changed := true; changed; {
		changed = false
		for _, r := range g.Rules {
			if !r.Nullable && g.rhsNullable(r.Rhs) {
				r.Nullable = true
				changed = true
			}
		}
	}
}

func (g *Grammar) rhsNullable(rhs *Rhs) bool {
	for _, alt := range rhs.Alts {
		if g.altNullable(alt) {
			return true
		}
	}
	return false
}

func (g *Grammar) altNullable(alt *Alt) bool {
	for _, item := range alt.Items {
		if !g.ItemNullable(item.Item) {
			return false
		}
	}
	return true
}

// ItemNullable reports whether item can match the empty input. Rule
// references consult Rule.Nullable, so ComputeNullables must run first.
func (g *Grammar) ItemNullable(item Item) bool {
	switch n := item.(type) {
	case *NameLeaf:
		if r := g.Rule(n.Value); r != nil {
			return r.Nullable
		}
		return false
	case *StringLeaf:
		return Unquote(n.Value) == ""
	case *Group:
		return g.rhsNullable(n.Rhs)
	case *Opt, *Repeat0, *PositiveLookahead, *NegativeLookahead, *Cut:
		return true
	case *Repeat1:
		return g.ItemNullable(n.Node)
	case *Gather:
		return g.ItemNullable(n.Node)
	case *Forced:
		return g.ItemNullable(n.Node)
	default:
		return false
	}
}

// initialNames returns the rule names that may be invoked at the start
// position of item.
func (g *Grammar) initialNames(item Item, out map[string]bool) {
	switch n := item.(type) {
	case *NameLeaf:
		if r := g.Rule(n.Value); r != nil {
			out[strings.ToLower(r.Name)] = true
		}
	case *StringLeaf, *Cut:
	case *Group:
		g.rhsInitialNames(n.Rhs, out)
	case *Opt:
		g.initialNames(n.Node, out)
	case *Repeat0:
		g.initialNames(n.Node, out)
	case *Repeat1:
		g.initialNames(n.Node, out)
	case *Gather:
		g.initialNames(n.Node, out)
	case *PositiveLookahead:
		g.initialNames(n.Node, out)
	case *NegativeLookahead:
		g.initialNames(n.Node, out)
	case *Forced:
		g.initialNames(n.Node, out)
	}
}

func (g *Grammar) rhsInitialNames(rhs *Rhs, out map[string]bool) {
	for _, alt := range rhs.Alts {
		for _, item := range alt.Items {
			g.initialNames(item.Item, out)
			if !g.ItemNullable(item.Item) {
				break
			}
		}
	}
}

// FirstGraph maps each rule to the sorted names of rules that can be
// called before any input is consumed.
func FirstGraph(g *Grammar) map[string][]string {
	graph := make(map[string][]string, len(g.Rules))
	for _, r := range g.Rules {
		names := map[string]bool{}
		g.rhsInitialNames(r.Rhs, names)
		edges := make([]string, 0, len(names))
		for name := range names {
			edges = append(edges, name)
		}
		sort.Strings(edges)
		graph[strings.ToLower(r.Name)] = edges
	}
	return graph
}

// StronglyConnectedComponents runs Tarjan's algorithm over graph. Each
// component is sorted and components are returned in discovery order of
// a name-ordered traversal.
func StronglyConnectedComponents(vertices []string, graph map[string][]string) [][]string {
	index := map[string]int{}
	lowlink := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	var result [][]string
	next := 0

	var connect func(v string)
	connect = func(v string) {
		index[v] = next
		lowlink[v] = next
		next = next + 1
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range graph[v] {
			if _, seen := index[w]; !seen {
				connect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && index[w] < lowlink[v] {
				lowlink[v] = index[w]
			}
		}
		if lowlink[v] != index[v] {
			return
		}
		var scc []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		sort.Strings(scc)
		result = append(result, scc)
	}
	for _, v := range vertices {
		if _, seen := index[v]; !seen {
			connect(v)
		}
	}
	return result
}

// CyclesInSCC yields every simple cycle through start that stays within
// scc. Each cycle lists its nodes starting at start.
func CyclesInSCC(graph map[string][]string, scc []string, start string) [][]string {
	members := make(map[string]bool, len(scc))
	for _, name := range scc {
		members[name] = true
	}
	var cycles [][]string
	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		for _, p := range path {
			if p == node {
				if node == start {
					cycles = append(cycles, append([]string(nil), path...))
				}
				return
			}
		}
		path = append(path, node)
		for _, child := range graph[node] {
			if members[child] {
				dfs(child, path)
			}
		}
	}
	dfs(start, nil)
	return cycles
}

// ComputeLeftRecursives flags left-recursive rules and elects one leader
// per cycle. The leader of a multi-rule component is the smallest name
// that lies on every cycle of the component.
func ComputeLeftRecursives(g *Grammar) exc.Exception {
	ComputeNullables(g)
	graph := FirstGraph(g)
	vertices := make([]string, 0, len(graph))
	for _, r := range g.Rules {
		vertices = append(vertices, strings.ToLower(r.Name))
	}
	for _, scc := range StronglyConnectedComponents(vertices, graph) {
		if len(scc) == 1 {
			name := scc[0]
			for _, edge := range graph[name] {
				if edge == name {
					r := g.Rule(name)
					r.LeftRecursive = true
					r.Leader = true
				}
			}
			continue
		}
		leaders := make(map[string]bool, len(scc))
		for _, name := range scc {
			g.Rule(name).LeftRecursive = true
			leaders[name] = true
		}
		for _, start := range scc {
			for _, cycle := range CyclesInSCC(graph, scc, start) {
				onCycle := make(map[string]bool, len(cycle))
				for _, name := range cycle {
					onCycle[name] = true
				}
				for name := range leaders {
					if !onCycle[name] {
						delete(leaders, name)
					}
				}
				if len(leaders) == 0 {
					return exc.Newf(exc.Location{URI: g.URI, Rule: scc[0]}, exc.CodeNoLeftRecursiveLead,
						"left-recursive rules %s have no leadership candidate (no rule is included in all cycles)", strings.Join(scc, ", "))
				}
			}
		}
		candidates := make([]string, 0, len(leaders))
		for name := range leaders {
			candidates = append(candidates, name)
		}
		sort.Strings(candidates)
		g.Rule(candidates[0]).Leader = true
	}
	return nil
}
