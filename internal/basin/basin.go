// Package basin implements component D, Basin Inversion: the empirical
// distribution statistics of mutual-edge similarities, the derived valley
// threshold, and the basin partition it induces. Grounded on the same
// github.com/dominikbraun/graph traversal pattern used in
// internal/substrate for connected-component discovery, restricted here
// to edges above the valley threshold, and on pkg/vecmath for the
// underlying statistics.
package basin

import (
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
	"github.com/quanticsoul4772/cogmap/pkg/vecmath"
)

// Invert computes the BasinInversion output from a substrate's mutual
// edges (spec.md §4.D).
func Invert(substrate *pipeline.Substrate) *pipeline.BasinInversion {
	if substrate == nil || len(substrate.MutualEdges) == 0 {
		return &pipeline.BasinInversion{Status: pipeline.BasinDegenerate}
	}

	samples := make([]float64, len(substrate.MutualEdges))
	for i, e := range substrate.MutualEdges {
		samples[i] = e.Similarity
	}
	stats := vecmath.ComputeStats(samples)
	discriminationRange := stats.P90 - stats.P10
	valleyThreshold := stats.P10 + 0.25*discriminationRange

	basins := buildBasins(substrate, valleyThreshold)

	var status pipeline.BasinStatus
	switch {
	case discriminationRange >= 0.10:
		status = pipeline.BasinOK
	case discriminationRange >= 0.05:
		status = pipeline.BasinUndifferentiated
	default:
		status = pipeline.BasinDegenerate
	}

	return &pipeline.BasinInversion{
		Mu:                  stats.Mu,
		Sigma:               stats.Sigma,
		P10:                 stats.P10,
		P90:                 stats.P90,
		DiscriminationRange: discriminationRange,
		ValleyThreshold:     valleyThreshold,
		BasinCount:          len(basins),
		Status:              status,
		Basins:              basins,
	}
}

// buildBasins returns connected components of the sub-graph containing
// only mutual edges with similarity >= valleyThreshold.
func buildBasins(substrate *pipeline.Substrate, valleyThreshold float64) [][]pipeline.ParagraphID {
	g := graph.New(func(id pipeline.ParagraphID) string { return string(id) })
	nodeSet := make(map[pipeline.ParagraphID]bool)
	for _, n := range substrate.Nodes {
		if !nodeSet[n.ParagraphID] {
			nodeSet[n.ParagraphID] = true
			_ = g.AddVertex(n.ParagraphID)
		}
	}
	for _, e := range substrate.MutualEdges {
		if e.Similarity >= valleyThreshold {
			_ = g.AddEdge(e.Source, e.Target)
			_ = g.AddEdge(e.Target, e.Source)
		}
	}

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		adjacency = map[pipeline.ParagraphID]map[pipeline.ParagraphID]graph.Edge[pipeline.ParagraphID]{}
	}

	ordered := make([]pipeline.ParagraphID, 0, len(nodeSet))
	for id := range nodeSet {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	visited := make(map[pipeline.ParagraphID]bool)
	var basins [][]pipeline.ParagraphID
	for _, start := range ordered {
		if visited[start] {
			continue
		}
		var basin []pipeline.ParagraphID
		queue := []pipeline.ParagraphID{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			basin = append(basin, cur)

			neighborIDs := make([]pipeline.ParagraphID, 0, len(adjacency[cur]))
			for target := range adjacency[cur] {
				neighborIDs = append(neighborIDs, target)
			}
			sort.Slice(neighborIDs, func(i, j int) bool { return neighborIDs[i] < neighborIDs[j] })
			for _, next := range neighborIDs {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		sort.Slice(basin, func(i, j int) bool { return basin[i] < basin[j] })
		basins = append(basins, basin)
	}
	return basins
}
