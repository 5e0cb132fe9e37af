// Package analyzer orchestrates the full pipeline: schema extraction,
// candidate generation, consolidation, ranking, verification, and DBML
// rendering. Each stage fully consumes its input before the next begins; the
// stages themselves live in their own packages and stay independently
// testable.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/schemalens/schemalens/internal/artifact"
	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/database"
	"github.com/schemalens/schemalens/internal/detect"
	"github.com/schemalens/schemalens/internal/embed"
	"github.com/schemalens/schemalens/internal/logger"
	"github.com/schemalens/schemalens/internal/render/dbml"
	"github.com/schemalens/schemalens/internal/schema"
	"github.com/schemalens/schemalens/internal/verify"
)

// Analyzer wires the pipeline's collaborators together. Construct one per
// run; all collaborators are passed in explicitly so runs are reproducible
// and testable without a live database.
type Analyzer struct {
	cfg      *config.Config
	intro    schema.Introspector
	db       database.DB // used for row sampling, may be nil
	embedder embed.Provider
	oracle   verify.Oracle
	stores   []artifact.Store
	log      *logger.Logger
}

// New creates an Analyzer. db may be nil to skip row sampling; embedder may
// be nil to skip the semantic generator; stores may be empty to skip
// artifact persistence.
func New(cfg *config.Config, intro schema.Introspector, db database.DB, embedder embed.Provider, oracle verify.Oracle, stores []artifact.Store, log *logger.Logger) *Analyzer {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{
		cfg:      cfg,
		intro:    intro,
		db:       db,
		embedder: embedder,
		oracle:   oracle,
		stores:   stores,
		log:      log,
	}
}

// Result summarises one analysis run.
type Result struct {
	RunID               string                        `json:"run_id"`
	Tables              int                           `json:"tables"`
	Columns             int                           `json:"columns"`
	Candidates          int                           `json:"candidates"`
	Verified            int                           `json:"verified"`
	ValidRelationships  int                           `json:"valid_relationships"`
	DeclaredForeignKeys int                           `json:"declared_foreign_keys"`
	Relationships       []verify.VerifiedRelationship `json:"relationships"`
	Artifacts           []string                      `json:"artifacts"`
}

// Run executes the pipeline end to end. It fails only on unrecoverable
// states (unreachable database, empty schema); generator and oracle failures
// degrade the result instead of aborting it.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := a.log.With().Str("run_id", runID).Logger()

	log.Info("extracting schema")
	s, err := schema.Extract(ctx, a.intro, log)
	if err != nil {
		return nil, fmt.Errorf("extract schema: %w", err)
	}

	var samples schema.SampleSet
	if a.db != nil && a.cfg.Detect.SampleRows > 0 {
		samples = schema.CollectSamples(ctx, a.db, s, a.cfg.Detect.SampleRows)
	}

	candidates := a.generate(ctx, s, log)
	candidates = detect.Validate(s, candidates, log)
	consolidated := detect.Consolidate(candidates, s.DeclaredForeignKeys())
	ranked := detect.Rank(consolidated)

	log.With().Int("candidates", len(ranked)).Logger().Info("candidates consolidated")

	verified := a.verify(ctx, ranked, s, samples, log)

	declared := verify.DeclaredRelationships(s)
	relationships := append(declared, verified...)

	result := &Result{
		RunID:               runID,
		Tables:              len(s.Tables),
		Candidates:          len(ranked),
		Verified:            len(verified),
		DeclaredForeignKeys: len(declared),
		Relationships:       relationships,
	}
	for _, table := range s.Tables {
		result.Columns += len(table.Columns)
	}
	for _, rel := range relationships {
		if rel.IsValid {
			result.ValidRelationships++
		}
	}

	if err := a.persist(ctx, runID, s, ranked, verified, relationships, result); err != nil {
		return nil, err
	}

	log.With().
		Int("tables", result.Tables).
		Int("candidates", result.Candidates).
		Int("valid", result.ValidRelationships).
		Logger().Info("analysis complete")
	return result, nil
}

// generate runs the three detectors in a fixed order so consolidation sees a
// deterministic concatenation. A semantic failure costs only that generator.
func (a *Analyzer) generate(ctx context.Context, s *schema.Schema, log *logger.Logger) []detect.Candidate {
	generators := []detect.Generator{
		detect.NewPatternMatcher(a.cfg.Detect.TokenSimilarity, log),
	}
	if a.embedder != nil {
		generators = append(generators, detect.NewSemanticMatcher(a.embedder, a.cfg.Detect.SemanticThreshold, log))
	}
	generators = append(generators, detect.NewTypeMatcher(log))

	var all []detect.Candidate
	for _, g := range generators {
		cands, err := g.Detect(ctx, s)
		if err != nil {
			log.With().Err(err).Str("generator", g.Name()).Logger().
				Warn("generator failed, continuing without it")
			continue
		}
		log.With().Str("generator", g.Name()).Int("candidates", len(cands)).Logger().
			Debug("generator finished")
		all = append(all, cands...)
	}
	return all
}

func (a *Analyzer) verify(ctx context.Context, ranked []detect.Candidate, s *schema.Schema, samples schema.SampleSet, log *logger.Logger) []verify.VerifiedRelationship {
	if a.oracle == nil || len(ranked) == 0 {
		return nil
	}

	delay := a.cfg.Verify.Delay.Std()
	if _, local := a.oracle.(*verify.Rules); local {
		// The politeness pause only matters for an external service.
		delay = 0
	}

	verifier := verify.NewVerifier(a.oracle, a.cfg.Verify.MaxChecks, delay, log)
	return verifier.Verify(ctx, ranked, s, samples)
}

type artifactItem struct {
	key         string
	contentType string
	data        []byte
}

// persist renders and stores all run artifacts. Store failures are logged
// and skipped; losing an artifact never loses the analysis.
func (a *Analyzer) persist(ctx context.Context, runID string, s *schema.Schema, ranked []detect.Candidate, verified []verify.VerifiedRelationship, relationships []verify.VerifiedRelationship, result *Result) error {
	var candidates bytes.Buffer
	if err := detect.WriteReport(&candidates, ranked); err != nil {
		return fmt.Errorf("render candidate report: %w", err)
	}

	var verification bytes.Buffer
	if err := verify.WriteReport(&verification, verified); err != nil {
		return fmt.Errorf("render verification report: %w", err)
	}

	var doc bytes.Buffer
	generator := dbml.NewGenerator(dbml.Options{
		ProjectName:    a.cfg.Output.ProjectName,
		IncludeIndexes: a.cfg.Output.IncludeIndexes,
		IncludeNotes:   a.cfg.Output.IncludeNotes,
		IncludeGroups:  a.cfg.Output.IncludeGroups,
	})
	if err := generator.Generate(&doc, s, relationships); err != nil {
		return fmt.Errorf("render dbml: %w", err)
	}

	extracted, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("render schema export: %w", err)
	}

	artifacts := []artifactItem{
		{runID + "/schema.json", "application/json", extracted},
		{runID + "/candidates.txt", "text/plain", candidates.Bytes()},
		{runID + "/verification.txt", "text/plain", verification.Bytes()},
		{runID + "/schema.dbml", "text/plain", doc.Bytes()},
	}

	summaryKey := runID + "/summary.json"
	for _, art := range artifacts {
		result.Artifacts = append(result.Artifacts, art.key)
	}
	result.Artifacts = append(result.Artifacts, summaryKey)

	summary, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	artifacts = append(artifacts, artifactItem{summaryKey, "application/json", summary})

	for _, store := range a.stores {
		for _, art := range artifacts {
			if err := store.Put(ctx, art.key, art.contentType, art.data); err != nil {
				a.log.With().Err(err).Str("artifact", art.key).Logger().
					Warn("failed to persist artifact")
			}
		}
	}
	return nil
}
