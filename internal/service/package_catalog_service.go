package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/member-console/internal/models"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

const catalogCacheKey = "catalog:packages"

// PackageLister reads the remote catalog.
type PackageLister interface {
	List(ctx context.Context) ([]models.Package, error)
}

// PackageCatalogService serves the read-only package catalog. Loads go through
// the cache and concurrent misses share one remote call.
type PackageCatalogService struct {
	repo   PackageLister
	cache  *CacheService
	logger *zap.Logger
	group  singleflight.Group
}

// NewPackageCatalogService constructs the catalog adapter.
func NewPackageCatalogService(repo PackageLister, cache *CacheService, logger *zap.Logger) *PackageCatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PackageCatalogService{repo: repo, cache: cache, logger: logger}
}

// List returns the active catalog packages and whether they were served from cache.
func (s *PackageCatalogService) List(ctx context.Context) ([]models.Package, bool, error) {
	all, hit, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}
	active := make([]models.Package, 0, len(all))
	for _, pkg := range all {
		if pkg.Active {
			active = append(active, pkg)
		}
	}
	return active, hit, nil
}

// Find returns an active package by id.
func (s *PackageCatalogService) Find(ctx context.Context, packageID string) (*models.Package, error) {
	all, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, pkg := range all {
		if pkg.ID == packageID && pkg.Active {
			found := pkg
			return &found, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrPackageNotFound, fmt.Sprintf("package %s not found", packageID))
}

// Invalidate drops the cached catalog.
func (s *PackageCatalogService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, catalogCacheKey)
}

func (s *PackageCatalogService) load(ctx context.Context) ([]models.Package, bool, error) {
	var cached []models.Package
	if s.cache.Get(ctx, catalogCacheKey, &cached) {
		return cached, true, nil
	}

	result, err, shared := s.group.Do(catalogCacheKey, func() (interface{}, error) {
		packages, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, catalogCacheKey, packages, 0)
		return packages, nil
	})
	if err != nil {
		s.logger.Warn("package catalog load failed", zap.Bool("shared", shared), zap.Error(err))
		return nil, false, err
	}
	packages := result.([]models.Package)
	return append([]models.Package(nil), packages...), false, nil
}
