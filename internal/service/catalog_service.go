package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gac-api/internal/dto"
	"github.com/noah-isme/gac-api/internal/models"
	appErrors "github.com/noah-isme/gac-api/pkg/errors"
)

const (
	cacheKeyDimensions = "catalog:dimensions"
	cacheKeyProofModes = "catalog:proofmodes"
)

type catalogStore interface {
	ListDimensions(ctx context.Context) ([]models.Dimension, error)
	GetDimension(ctx context.Context, id string) (*models.Dimension, error)
	CreateDimension(ctx context.Context, dim *models.Dimension) error
	ListActivities(ctx context.Context, dimensionID string) ([]models.Activity, error)
	GetActivity(ctx context.Context, id string) (*models.Activity, error)
	CreateActivity(ctx context.Context, act *models.Activity) error
	ListProofModes(ctx context.Context) ([]models.ProofMode, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CatalogService serves the dimension, activity and proof mode reference
// data with a cache-aside layer. The catalog changes rarely, so cached
// reads tolerate the configured TTL of staleness.
type CatalogService struct {
	repo      catalogStore
	cache     catalogCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewCatalogService constructs the service.
func NewCatalogService(repo catalogStore, cache catalogCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &CatalogService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// ListDimensions returns all dimensions, cache-aside.
func (s *CatalogService) ListDimensions(ctx context.Context) ([]models.Dimension, error) {
	var cached []models.Dimension
	if s.readCache(ctx, cacheKeyDimensions, &cached) {
		return cached, nil
	}
	dims, err := s.repo.ListDimensions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list dimensions")
	}
	s.writeCache(ctx, cacheKeyDimensions, dims)
	return dims, nil
}

// ListDimensionsWithActivities returns each dimension with its activities
// nested, the shape the submission form consumes.
func (s *CatalogService) ListDimensionsWithActivities(ctx context.Context) ([]dto.DimensionWithActivities, error) {
	dims, err := s.ListDimensions(ctx)
	if err != nil {
		return nil, err
	}
	acts, err := s.ListActivities(ctx, "")
	if err != nil {
		return nil, err
	}
	byDimension := make(map[string][]models.Activity, len(dims))
	for _, act := range acts {
		byDimension[act.DimensionID] = append(byDimension[act.DimensionID], act)
	}
	result := make([]dto.DimensionWithActivities, 0, len(dims))
	for _, dim := range dims {
		result = append(result, dto.DimensionWithActivities{
			Dimension:  dim,
			Activities: byDimension[dim.ID],
		})
	}
	return result, nil
}

// ListActivities returns activities, cache-aside per dimension filter.
func (s *CatalogService) ListActivities(ctx context.Context, dimensionID string) ([]models.Activity, error) {
	key := fmt.Sprintf("catalog:activities:%s", dimensionID)
	var cached []models.Activity
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}
	acts, err := s.repo.ListActivities(ctx, dimensionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	s.writeCache(ctx, key, acts)
	return acts, nil
}

// ListProofModes returns proof modes, cache-aside.
func (s *CatalogService) ListProofModes(ctx context.Context) ([]models.ProofMode, error) {
	var cached []models.ProofMode
	if s.readCache(ctx, cacheKeyProofModes, &cached) {
		return cached, nil
	}
	modes, err := s.repo.ListProofModes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list proof modes")
	}
	s.writeCache(ctx, cacheKeyProofModes, modes)
	return modes, nil
}

// CreateDimension registers a dimension and invalidates cached reads.
func (s *CatalogService) CreateDimension(ctx context.Context, req dto.CreateDimensionRequest, actor *models.JWTClaims) (*models.Dimension, error) {
	if err := s.ensureAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dimension payload")
	}
	dim := &models.Dimension{Name: req.Name, HourCap: req.HourCap}
	if err := s.repo.CreateDimension(ctx, dim); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create dimension")
	}
	s.invalidate(ctx)
	return dim, nil
}

// CreateActivity registers an activity under an existing dimension and
// invalidates cached reads.
func (s *CatalogService) CreateActivity(ctx context.Context, req dto.CreateActivityRequest, actor *models.JWTClaims) (*models.Activity, error) {
	if err := s.ensureAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	if _, err := s.repo.GetDimension(ctx, req.DimensionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "dimension does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dimension")
	}
	act := &models.Activity{Name: req.Name, DimensionID: req.DimensionID, HourCap: req.HourCap}
	if err := s.repo.CreateActivity(ctx, act); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	s.invalidate(ctx)
	return act, nil
}

func (s *CatalogService) ensureAdmin(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	return nil
}

func (s *CatalogService) readCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	start := time.Now()
	err := s.cache.Get(ctx, key, dest)
	hit := err == nil
	s.metrics.RecordCacheOperation(hit, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("catalog cache read failed", zap.Error(err), zap.String("key", key))
	}
	return hit
}

func (s *CatalogService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("catalog cache write failed", zap.Error(err), zap.String("key", key))
	}
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "catalog:*"); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
