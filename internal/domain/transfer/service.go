package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// invalidator is the cache surface the importer needs: a restored store makes
// every cached snapshot stale.
type invalidator interface {
	Invalidate()
}

type Service struct {
	repo   Repository
	cache  invalidator
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, cache invalidator, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// Export snapshots the store into a versioned document.
func (s *Service) Export(ctx context.Context) (*Document, error) {
	ds, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}
	return &Document{
		ExportMetadata: Metadata{
			ExportedAt:      s.now().UTC(),
			Version:         FormatVersion,
			Application:     applicationName,
			TotalProcedures: len(ds.Procedures),
			TotalProducts:   len(ds.Products),
			TotalCategories: len(ds.Categories),
			ExportedTables:  exportedTables,
		},
		Tables:               ds.Tables,
		CompetitiveAdvantage: ds.CompetitiveAdvantage,
	}, nil
}

// requiredArrays must be present as JSON arrays before an import runs.
var requiredArrays = []string{"procedures", "products", "categories", "phases", "patient_types"}

// ImportSummary reports what a successful import restored.
type ImportSummary struct {
	Procedures int `json:"procedures"`
	Products   int `json:"products"`
	Categories int `json:"categories"`
}

// Import validates the raw document and replaces the store contents with it.
func (s *Service) Import(ctx context.Context, raw []byte) (*ImportSummary, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parse import document: %w", err)
	}

	metaRaw, ok := fields["export_metadata"]
	if !ok {
		return nil, fmt.Errorf("import document has no export_metadata")
	}
	var meta Metadata
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, fmt.Errorf("parse export_metadata: %w", err)
	}
	if meta.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported export version %q, want %q", meta.Version, FormatVersion)
	}
	for _, key := range requiredArrays {
		val, ok := fields[key]
		if !ok || !isJSONArray(val) {
			return nil, fmt.Errorf("import document missing required array %q", key)
		}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode import document: %w", err)
	}

	ds := &Dataset{Tables: doc.Tables, CompetitiveAdvantage: doc.CompetitiveAdvantage}
	if err := s.repo.Restore(ctx, ds); err != nil {
		return nil, fmt.Errorf("restore store: %w", err)
	}
	s.cache.Invalidate()
	s.logger.Info().
		Int("procedures", len(ds.Procedures)).
		Int("products", len(ds.Products)).
		Int("categories", len(ds.Categories)).
		Msg("store restored from import document")

	return &ImportSummary{
		Procedures: len(ds.Procedures),
		Products:   len(ds.Products),
		Categories: len(ds.Categories),
	}, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
