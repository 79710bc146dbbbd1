package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/member-console/internal/dto"
	"github.com/noah-isme/member-console/internal/models"
)

// PackageAPIRepository reads the package catalog.
type PackageAPIRepository struct {
	client *APIClient
}

// NewPackageAPIRepository constructs the repository.
func NewPackageAPIRepository(client *APIClient) *PackageAPIRepository {
	return &PackageAPIRepository{client: client}
}

// List returns every catalog package, including inactive ones.
func (r *PackageAPIRepository) List(ctx context.Context) ([]models.Package, error) {
	env, err := r.client.do(ctx, call{operation: "packages.list", method: http.MethodGet, path: "/packages"})
	if err != nil {
		return nil, err
	}
	var payloads []dto.PackagePayload
	if err := decodeData(env, &payloads); err != nil {
		return nil, err
	}
	packages := make([]models.Package, 0, len(payloads))
	for _, p := range payloads {
		pkg := p.Normalize()
		if pkg.ID == "" {
			continue
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}
