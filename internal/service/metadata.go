package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/raphaelgruber/recipebox/internal/db"
	"github.com/raphaelgruber/recipebox/internal/models"
)

// MetadataRepository reads and writes reference options. *db.Client implements it.
type MetadataRepository interface {
	GetMetadata(ctx context.Context) (*models.Metadata, error)
	UpsertOption(ctx context.Context, kind models.OptionKind, opt models.Option, position int) error
}

var _ MetadataRepository = (*db.Client)(nil)

// DefaultMetadataTTL bounds how stale cached reference data may get.
const DefaultMetadataTTL = 5 * time.Minute

const metadataCacheKey = "metadata"

type cachedMetadata struct {
	md      *models.Metadata
	fetched time.Time
}

// MetadataService serves reference data from the database through a small cache.
type MetadataService struct {
	repo   MetadataRepository
	cache  *lru.LRU[cachedMetadata]
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewMetadataService creates the service. ttl <= 0 uses DefaultMetadataTTL.
func NewMetadataService(repo MetadataRepository, ttl time.Duration, log *slog.Logger) *MetadataService {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &MetadataService{
		repo:   repo,
		cache:  lru.New[cachedMetadata](4),
		ttl:    ttl,
		now:    time.Now,
		logger: log.With("component", "metadata"),
	}
}

// FetchMetadata returns all reference lists.
func (s *MetadataService) FetchMetadata(ctx context.Context) (*models.Metadata, error) {
	if hit, ok := s.cache.Get(ctx, metadataCacheKey); ok && hit.md != nil && s.now().Sub(hit.fetched) < s.ttl {
		return hit.md, nil
	}

	md, err := s.repo.GetMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	s.cache.Add(ctx, metadataCacheKey, cachedMetadata{md: md, fetched: s.now()})
	s.logger.Debug("metadata loaded",
		"categories", len(md.Categories), "levels", len(md.Levels),
		"labels", len(md.Labels), "units", len(md.Units))
	return md, nil
}

// UpsertOption adds or relabels an option and drops the cache.
func (s *MetadataService) UpsertOption(ctx context.Context, kind models.OptionKind, opt models.Option, position int) error {
	if !kind.Valid() {
		return fieldError("kind", "failed oneof")
	}
	if opt.Key != models.Slugify(opt.Key) || opt.Key == "" {
		return fieldError("key", "failed slug")
	}
	if opt.Label == "" {
		return fieldError("label", "failed required")
	}
	if err := s.repo.UpsertOption(ctx, kind, opt, position); err != nil {
		return err
	}
	s.cache.Add(ctx, metadataCacheKey, cachedMetadata{})
	s.logger.Info("metadata option saved", "kind", kind, "key", opt.Key)
	return nil
}
