// Package graphmetrics computes the per-claim graph statistics shared by
// components I (Blast Radius) and J (Structural Analysis): cascade
// breadth, support/contested ratios, conflict degree, articulation
// points, and the leverage composite spec.md §4.J defines and §4.I
// consumes. Centralizing them avoids two divergent implementations of
// the same formula. Grounded on the teacher's internal/modes/graph.go
// adjacency-map traversal style, generalized to an undirected claim
// graph with Tarjan-style articulation-point detection (the
// dominikbraun/graph library exposes StronglyConnectedComponents for
// directed graphs only, which is not the right primitive here — hence
// the hand-rolled DFS below; a justified stdlib use).
package graphmetrics

import (
	"sort"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

// ClaimMetrics bundles the shared per-claim graph statistics.
type ClaimMetrics struct {
	CascadeBreadth    float64
	SupportRatio      float64
	ContestedRatio    float64
	ConflictDegree    int
	ArticulationPoint bool
	Leverage          float64
}

// Compute derives ClaimMetrics for every claim from the semantic edge set.
// modelCount is the total number of distinct model responses in the run
// (the denominator of supportRatio).
func Compute(claims []*pipeline.Claim, edges []*pipeline.SemanticEdge, modelCount int) map[pipeline.ClaimID]*ClaimMetrics {
	out := make(map[pipeline.ClaimID]*ClaimMetrics, len(claims))
	if len(claims) == 0 {
		return out
	}

	degree := make(map[pipeline.ClaimID]int)
	conflictDegree := make(map[pipeline.ClaimID]int)
	for _, e := range edges {
		degree[e.Source]++
		degree[e.Target]++
		if e.Kind == pipeline.EdgeRefutes {
			conflictDegree[e.Source]++
			conflictDegree[e.Target]++
		}
	}

	maxDegree := 0
	for _, d := range degree {
		if d > maxDegree {
			maxDegree = d
		}
	}

	articulation := articulationPoints(claims, edges)

	for _, c := range claims {
		m := &ClaimMetrics{}

		d := degree[c.ID]
		if maxDegree > 0 {
			m.CascadeBreadth = float64(d) / float64(maxDegree)
		}
		if d > 0 {
			m.ContestedRatio = float64(conflictDegree[c.ID]) / float64(d)
		}
		m.ConflictDegree = conflictDegree[c.ID]

		if modelCount > 0 {
			m.SupportRatio = float64(len(c.Supporters)) / float64(modelCount)
		}
		if m.SupportRatio > 1 {
			m.SupportRatio = 1
		}

		m.ArticulationPoint = articulation[c.ID]
		m.Leverage = 0.5*m.SupportRatio + 0.3*m.CascadeBreadth + 0.2*(1-m.ContestedRatio)

		out[c.ID] = m
	}
	return out
}

// articulationPoints finds cut vertices of the undirected graph formed by
// treating every semantic edge (of any kind) as an undirected connection
// between two claims (spec.md §4.I: "removing the claim disconnects the
// semantic edge graph"), via the standard DFS low-link algorithm.
func articulationPoints(claims []*pipeline.Claim, edges []*pipeline.SemanticEdge) map[pipeline.ClaimID]bool {
	adj := make(map[pipeline.ClaimID][]pipeline.ClaimID)
	ids := make([]pipeline.ClaimID, 0, len(claims))
	for _, c := range claims {
		ids = append(ids, c.ID)
		if _, ok := adj[c.ID]; !ok {
			adj[c.ID] = nil
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	for id := range adj {
		sort.Slice(adj[id], func(i, j int) bool { return adj[id][i] < adj[id][j] })
	}

	disc := make(map[pipeline.ClaimID]int)
	low := make(map[pipeline.ClaimID]int)
	visited := make(map[pipeline.ClaimID]bool)
	result := make(map[pipeline.ClaimID]bool, len(claims))
	timer := 0

	var dfs func(u pipeline.ClaimID, parent pipeline.ClaimID, isRoot bool)
	dfs = func(u pipeline.ClaimID, parent pipeline.ClaimID, isRoot bool) {
		visited[u] = true
		timer++
		disc[u] = timer
		low[u] = timer
		children := 0

		for _, v := range adj[u] {
			if v == parent {
				continue
			}
			if visited[v] {
				if disc[v] < low[u] {
					low[u] = disc[v]
				}
				continue
			}
			children++
			dfs(v, u, false)
			if low[v] < low[u] {
				low[u] = low[v]
			}
			if !isRoot && low[v] >= disc[u] {
				result[u] = true
			}
		}
		if isRoot && children > 1 {
			result[u] = true
		}
	}

	for _, id := range ids {
		if !visited[id] {
			dfs(id, "", true)
		}
	}
	return result
}
