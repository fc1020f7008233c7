// Package pipeline defines the external interfaces and canonical data model
// of the cognitive mapping pipeline (spec.md §3 and §6): the input shape,
// the pluggable Embedder/Mapper contracts, and the CognitiveArtifact this
// package's stages ultimately assemble.
package pipeline

import "fmt"

// ModelIndex identifies one source response, stable across a run.
type ModelIndex int

// Stance is the closed set of sentence-level rhetorical postures.
type Stance string

const (
	StancePrescriptive Stance = "prescriptive"
	StanceCautionary   Stance = "cautionary"
	StancePrerequisite Stance = "prerequisite"
	StanceDependent    Stance = "dependent"
	StanceAssertive    Stance = "assertive"
	StanceUncertain    Stance = "uncertain"
	StanceUnknown      Stance = "unknown"
)

// Signals are three independent boolean cues detected on a statement.
type Signals struct {
	Sequence    bool `json:"sequence"`
	Tension     bool `json:"tension"`
	Conditional bool `json:"conditional"`
}

// StatementID has the form stmt_{modelIndex}_{paragraphIndex}_{sentenceIndex}.
type StatementID string

// ParagraphID has the form p_{modelIndex}_{paragraphIndex}.
type ParagraphID string

// ClaimID is assigned by the mapper.
type ClaimID string

// Embedding is a fixed-dimension floating point vector.
type Embedding []float32

func MakeStatementID(model ModelIndex, paragraphIdx, sentenceIdx int) StatementID {
	return StatementID(fmt.Sprintf("stmt_%d_%d_%d", model, paragraphIdx, sentenceIdx))
}

func MakeParagraphID(model ModelIndex, paragraphIdx int) ParagraphID {
	return ParagraphID(fmt.Sprintf("p_%d_%d", model, paragraphIdx))
}

// ShadowStatement is produced by the Shadow Extractor and never mutated
// afterwards.
type ShadowStatement struct {
	ID                  StatementID `json:"id"`
	ModelIndex          ModelIndex  `json:"modelIndex"`
	ParagraphIndex      int         `json:"paragraphIndex"`
	SentenceIndex       int         `json:"sentenceIndex"`
	Text                string      `json:"text"`
	Stance              Stance      `json:"stance"`
	Confidence          float64     `json:"confidence"`
	Signals             Signals     `json:"signals"`
	GeometricCoordinate *[2]float64 `json:"geometricCoordinates,omitempty"`
}

// ShadowParagraph groups the statements carved from one paragraph of raw
// text, in original order.
type ShadowParagraph struct {
	ID             ParagraphID   `json:"id"`
	ModelIndex     ModelIndex    `json:"modelIndex"`
	ParagraphIndex int           `json:"paragraphIndex"`
	StatementIDs   []StatementID `json:"statementIds"`
	DominantStance Stance        `json:"dominantStance"`
	Contested      bool          `json:"contested"`
	FullParagraph  string        `json:"_fullParagraph"`
}

// Shadow is the pre-semantic decomposition produced by component A.
type Shadow struct {
	Statements []*ShadowStatement `json:"statements"`
	Paragraphs []*ShadowParagraph `json:"paragraphs"`
}

// SubstrateNode is one geometric node per paragraph.
type SubstrateNode struct {
	ParagraphID    ParagraphID `json:"paragraphId"`
	ModelIndex     ModelIndex  `json:"modelIndex"`
	Embedding      Embedding   `json:"embedding"`
	MutualDegree   int         `json:"mutualDegree"`
	StrongDegree   int         `json:"strongDegree"`
	Top1Sim        float64     `json:"top1Sim"`
	AvgTopKSim     float64     `json:"avgTopKSim"`
	IsolationScore float64     `json:"isolationScore"`
	ComponentID    string      `json:"componentId"`
	RegionID       string      `json:"regionId"`
	X              *float64    `json:"x,omitempty"`
	Y              *float64    `json:"y,omitempty"`
}

// EdgeKind is the closed set of substrate edge classifications.
type EdgeKind string

const (
	EdgeKNN    EdgeKind = "knn"
	EdgeMutual EdgeKind = "mutual"
	EdgeStrong EdgeKind = "strong"
)

// SubstrateEdge connects two paragraphs in geometric space.
type SubstrateEdge struct {
	Source     ParagraphID `json:"source"`
	Target     ParagraphID `json:"target"`
	Similarity float64     `json:"similarity"`
	Kind       EdgeKind    `json:"kind"`
}

// RegionKind distinguishes weakly-connected components from their
// size-capped subdivisions. "cluster" is ingested as an alias of "patch"
// per spec.md §9.
type RegionKind string

const (
	RegionComponent RegionKind = "component"
	RegionPatch     RegionKind = "patch"
)

// Region groups paragraphs treated as one interpretive unit.
type Region struct {
	ID       string          `json:"id"`
	Kind     RegionKind      `json:"kind"`
	NodeIDs  []ParagraphID   `json:"nodeIds"`
	Profile  map[string]any  `json:"profile,omitempty"`
}

// Substrate is the output of component C.
type Substrate struct {
	Nodes       []*SubstrateNode `json:"nodes"`
	KNNEdges    []*SubstrateEdge `json:"knnEdges"`
	MutualEdges []*SubstrateEdge `json:"mutualEdges"`
	StrongEdges []*SubstrateEdge `json:"strongEdges"`
	Regions     []*Region        `json:"regions"`
}

// BasinStatus classifies how discriminating the geometric signal is.
type BasinStatus string

const (
	BasinOK              BasinStatus = "ok"
	BasinUndifferentiated BasinStatus = "undifferentiated"
	BasinDegenerate       BasinStatus = "degenerate"
)

// BasinInversion is the output of component D.
type BasinInversion struct {
	Mu                 float64     `json:"mu"`
	Sigma              float64     `json:"sigma"`
	P10                float64     `json:"p10"`
	P90                float64     `json:"p90"`
	DiscriminationRange float64    `json:"discriminationRange"`
	ValleyThreshold    float64     `json:"valleyThreshold"`
	BasinCount         int         `json:"basinCount"`
	Status             BasinStatus `json:"status"`
	Basins             [][]ParagraphID `json:"basins,omitempty"`
}

// ClaimType is the closed set of claim classifications.
type ClaimType string

const (
	ClaimFactual      ClaimType = "factual"
	ClaimPrescriptive ClaimType = "prescriptive"
	ClaimConditional  ClaimType = "conditional"
	ClaimContested    ClaimType = "contested"
	ClaimSpeculative  ClaimType = "speculative"
)

// ClaimRole is an optional secondary role tag.
type ClaimRole string

const (
	RoleAnchor     ClaimRole = "anchor"
	RoleChallenger ClaimRole = "challenger"
	RoleSupplement ClaimRole = "supplement"
	RoleBranch     ClaimRole = "branch"
)

// Claim is a mapper-produced unit of semantic content.
type Claim struct {
	ID                 ClaimID        `json:"id"`
	Label              string         `json:"label"`
	Text               string         `json:"text"`
	Type               ClaimType      `json:"type"`
	Role               *ClaimRole     `json:"role,omitempty"`
	SourceStatementIDs []StatementID  `json:"sourceStatementIds"`
	Supporters         []ModelIndex   `json:"supporters"`
	ProvenanceBulk     *float64       `json:"provenanceBulk,omitempty"`
	SourceCoherence    *float64       `json:"sourceCoherence,omitempty"`
}

// SemanticEdgeKind is the closed set of relations between two claims.
type SemanticEdgeKind string

const (
	EdgeSupports     SemanticEdgeKind = "supports"
	EdgeRefutes      SemanticEdgeKind = "refutes"
	EdgeTradeoff     SemanticEdgeKind = "tradeoff"
	EdgePrerequisite SemanticEdgeKind = "prerequisite"
	EdgeElaborates   SemanticEdgeKind = "elaborates"
)

// SemanticEdge connects two claims.
type SemanticEdge struct {
	Source ClaimID          `json:"source"`
	Target ClaimID          `json:"target"`
	Kind   SemanticEdgeKind `json:"kind"`
	Weight float64          `json:"weight"`
	Reason string           `json:"reason,omitempty"`
}

// Conditional is a gate extracted from the mapper's <conditional> tags.
type Conditional struct {
	ID        string `json:"id"`
	Condition string `json:"condition"`
	ThenClaim ClaimID `json:"thenClaim,omitempty"`
	ElseClaim ClaimID `json:"elseClaim,omitempty"`
}

// Semantic is the output of component E.
type Semantic struct {
	Claims       []*Claim       `json:"claims"`
	Edges        []*SemanticEdge `json:"edges"`
	Conditionals []*Conditional `json:"conditionals"`
	Narrative    string         `json:"narrative"`
	RawText      string         `json:"rawText,omitempty"`
}

// StatementWeight pairs a statement with its assignment weight.
type StatementWeight struct {
	StatementID StatementID `json:"statementId"`
	Weight      float64     `json:"weight"`
}

// EntropyBuckets aggregates statements by how many claims they were
// assigned to.
type EntropyBuckets struct {
	One        int `json:"one"`
	Two        int `json:"two"`
	ThreePlus  int `json:"threePlus"`
}

// ProvenanceRecord is the per-claim output of component F.
type ProvenanceRecord struct {
	ClaimID                  ClaimID            `json:"claimId"`
	DirectStatementProvenance []StatementWeight `json:"directStatementProvenance"`
	ProvenanceBulk            float64           `json:"provenanceBulk"`
	Entropy                   float64           `json:"entropy"`
	ExclusivityRatio          float64           `json:"exclusivityRatio"`
	DominantParagraphIDs      []ParagraphID     `json:"dominantParagraphIds"`
}

// StatementAllocation is the full competitive-assignment diagnostic output.
type StatementAllocation struct {
	AssignmentCounts   map[StatementID]int `json:"assignmentCounts"`
	Entropy            EntropyBuckets      `json:"entropy"`
	DualCoordinateFlag bool                `json:"dualCoordinateFlag"`
}

// FieldPoint is one paragraph's contribution to a claim's continuous field.
type FieldPoint struct {
	StatementID   StatementID `json:"statementId"`
	SimClaim      float64     `json:"sim_claim"`
	EvidenceScore float64     `json:"evidenceScore"`
}

// ContinuousField is the per-claim output of component G.
type ContinuousField struct {
	ClaimID                     ClaimID      `json:"claimId"`
	Field                       []FieldPoint `json:"field"`
	CoreSetSize                 int          `json:"coreSetSize"`
	DisagreementWithCompetitive bool         `json:"disagreementWithCompetitive"`
}

// ParagraphSimilarity is per-claim paragraph-level similarity, the
// fallback consumed when BasinInversion.Status != ok.
type ParagraphSimilarity struct {
	ClaimID ClaimID `json:"claimId"`
	Scores  map[ParagraphID]float64 `json:"scores"`
}

// RelevanceTier is the closed set of query relevance tiers.
type RelevanceTier string

const (
	TierHigh   RelevanceTier = "high"
	TierMedium RelevanceTier = "medium"
	TierLow    RelevanceTier = "low"
)

// RelevanceMeta carries contextual annotations for a relevance score.
type RelevanceMeta struct {
	ModelCount     int     `json:"modelCount"`
	RegionID       *string `json:"regionId,omitempty"`
	DominantStance *Stance `json:"dominantStance,omitempty"`
}

// QueryRelevanceScore is the per-statement output of component H.
type QueryRelevanceScore struct {
	StatementID                StatementID   `json:"statementId"`
	CompositeRelevance          float64       `json:"compositeRelevance"`
	QuerySimilarity             float64       `json:"querySimilarity"`
	Novelty                     float64       `json:"novelty"`
	SubConsensusCorroboration   int           `json:"subConsensusCorroboration"`
	Tier                        RelevanceTier `json:"tier"`
	Meta                        RelevanceMeta `json:"meta"`
}

// BlastRadiusComponents breaks down the composite score.
type BlastRadiusComponents struct {
	CascadeBreadth    float64 `json:"cascadeBreadth"`
	ExclusiveEvidence float64 `json:"exclusiveEvidence"`
	Leverage          float64 `json:"leverage"`
	QueryRelevance    float64 `json:"queryRelevance"`
	ArticulationPoint float64 `json:"articulationPoint"`
}

// BlastRadiusScore is the per-claim output of component I's filter stage.
type BlastRadiusScore struct {
	ClaimID            ClaimID               `json:"claimId"`
	Composite          float64               `json:"composite"`
	RawComposite       float64               `json:"rawComposite"`
	Components         BlastRadiusComponents `json:"components"`
	Suppressed         bool                  `json:"suppressed"`
	SuppressionReason  string                `json:"suppressionReason,omitempty"`
}

// SurveyGate is one generated yes/no follow-up question.
type SurveyGate struct {
	ID             string    `json:"id"`
	Question       string    `json:"question"`
	AffectedClaims []ClaimID `json:"affectedClaims"`
	BlastRadius    float64   `json:"blastRadius"`
	Reasoning      string    `json:"reasoning"`
}

// BlastRadiusFilter is the full output of component I.
type BlastRadiusFilter struct {
	Scores            []*BlastRadiusScore `json:"scores"`
	SkipSurvey        bool                `json:"skipSurvey"`
	SkipReason        string              `json:"skipReason,omitempty"`
	QuestionCeiling   int                 `json:"questionCeiling"`
	ConvergenceRatio  float64             `json:"convergenceRatio"`
}

// ShapePrior is the overall graph-shape classification from component J.
type ShapePrior string

const (
	ShapeConvergent ShapePrior = "convergent"
	ShapeDivergent  ShapePrior = "divergent"
	ShapeTradeoff   ShapePrior = "tradeoff"
	ShapeFragmented ShapePrior = "fragmented"
	ShapeParallel   ShapePrior = "parallel"
)

// ClaimStructuralMetrics is the per-claim output of component J.
type ClaimStructuralMetrics struct {
	ClaimID         ClaimID `json:"claimId"`
	SupportRatio    float64 `json:"supportRatio"`
	ContestedRatio  float64 `json:"contestedRatio"`
	ConflictDegree  int     `json:"conflictDegree"`
	Leverage        float64 `json:"leverage"`
	KeystoneScore   float64 `json:"keystoneScore"`
	ArticulationPoint bool  `json:"articulationPoint"`
}

// StructuralAnalysis is the full output of component J.
type StructuralAnalysis struct {
	Claims     []*ClaimStructuralMetrics `json:"claims"`
	Shape      ShapePrior                `json:"shape"`
	Confidence float64                   `json:"confidence"`
}

// StageObservation is a structured event emitted by any stage; it
// supplements observability.stages with fine-grained notices referenced
// throughout spec.md §4 and §7 (e.g. mapper_parse_failed).
type StageObservation struct {
	Level     string `json:"level"` // "info" | "warn" | "error"
	Code      string `json:"code"`
	Message   string `json:"message"`
	StageName string `json:"stageName"`
}

// StageResult records the outcome of one orchestrator stage.
type StageResult struct {
	StartedAtMs int64  `json:"startedAtMs"`
	TimeMs      int64  `json:"timeMs"`
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
}

// Observability is the full run's instrumentation.
type Observability struct {
	Stages       map[string]*StageResult `json:"stages"`
	Observations []StageObservation       `json:"observations"`
	TotalTimeMs  int64                    `json:"totalTimeMs"`
	Aborted      bool                     `json:"aborted"`
}

// Geometry bundles the geometric-substrate sub-objects.
type Geometry struct {
	Substrate      *Substrate      `json:"substrate"`
	BasinInversion *BasinInversion `json:"basinInversion"`
	PreSemantic    map[string]any  `json:"preSemantic,omitempty"`
}

// CognitiveArtifact is the canonical, immutable output of one pipeline run.
type CognitiveArtifact struct {
	Shadow                 *Shadow                 `json:"shadow"`
	Geometry               *Geometry               `json:"geometry"`
	Semantic                *Semantic               `json:"semantic"`
	ClaimProvenance         []*ProvenanceRecord     `json:"claimProvenance"`
	StatementAllocation     *StatementAllocation    `json:"statementAllocation"`
	ContinuousField         []*ContinuousField      `json:"continuousField"`
	ParagraphSimilarityField []*ParagraphSimilarity `json:"paragraphSimilarityField"`
	QueryRelevance          []*QueryRelevanceScore  `json:"queryRelevance"`
	BlastRadiusFilter       *BlastRadiusFilter      `json:"blastRadiusFilter"`
	SurveyGates             []*SurveyGate           `json:"surveyGates"`
	StructuralAnalysis      *StructuralAnalysis     `json:"structuralAnalysis"`
	Observability           *Observability          `json:"observability"`
}
