package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/member-console/internal/models"
	"github.com/noah-isme/member-console/pkg/config"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

const (
	defaultSortBy       = "createdAt"
	fallbackPageSize    = 20
	fallbackMaxPageSize = 100
)

// reservedQueryKeys are owned by the descriptor and cannot be used as filters.
var reservedQueryKeys = map[string]struct{}{
	"page":        {},
	"limit":       {},
	"sortBy":      {},
	"sortOrder":   {},
	"search":      {},
	"isStudent":   {},
	"excludeType": {},
}

// QueryBuilder normalises raw directory input into a QueryDescriptor.
type QueryBuilder struct {
	defaultPageSize int
	maxPageSize     int
}

// NewQueryBuilder constructs a builder from directory configuration.
func NewQueryBuilder(cfg config.DirectoryConfig) *QueryBuilder {
	b := &QueryBuilder{defaultPageSize: cfg.DefaultPageSize, maxPageSize: cfg.MaxPageSize}
	if b.maxPageSize <= 0 {
		b.maxPageSize = fallbackMaxPageSize
	}
	if b.defaultPageSize <= 0 {
		b.defaultPageSize = fallbackPageSize
	}
	if b.defaultPageSize > b.maxPageSize {
		b.defaultPageSize = b.maxPageSize
	}
	return b
}

// DefaultPageSize returns the page size used when none is requested.
func (b *QueryBuilder) DefaultPageSize() int {
	return b.defaultPageSize
}

// Build normalises a directory query for the given scope.
func (b *QueryBuilder) Build(scope models.DirectoryScope, q models.DirectoryQuery) (models.QueryDescriptor, error) {
	d, err := b.BuildQuery(q.Search, q.Filters, q.Page, q.PageSize, q.Sort)
	if err != nil {
		return models.QueryDescriptor{}, err
	}
	d.Scope = scope
	return d.Clone(), nil
}

// BuildQuery is pure: equal inputs always produce equal descriptors.
func (b *QueryBuilder) BuildQuery(search string, filters map[string]string, page, pageSize int, sort models.Sort) (models.QueryDescriptor, error) {
	if pageSize < 0 {
		return models.QueryDescriptor{}, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("page size %d must not be negative", pageSize))
	}
	if pageSize == 0 {
		pageSize = b.defaultPageSize
	}
	if pageSize > b.maxPageSize {
		return models.QueryDescriptor{}, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("page size %d exceeds maximum %d", pageSize, b.maxPageSize))
	}
	if page < 1 {
		page = 1
	}

	order, err := normalizeSortOrder(sort.Order)
	if err != nil {
		return models.QueryDescriptor{}, err
	}
	sortBy := strings.TrimSpace(sort.By)
	if sortBy == "" {
		sortBy = defaultSortBy
	}

	d := models.QueryDescriptor{
		Page:      page,
		Limit:     pageSize,
		SortBy:    sortBy,
		SortOrder: order,
		Search:    strings.TrimSpace(search),
		Filters:   map[string]string{},
	}

	for key, value := range filters {
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if _, reserved := reservedQueryKeys[key]; reserved {
			return models.QueryDescriptor{}, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("filter %q collides with a reserved query key", key))
		}
		d.Filters[key] = value
	}

	return d, nil
}

func normalizeSortOrder(order models.SortOrder) (models.SortOrder, error) {
	switch models.SortOrder(strings.ToLower(strings.TrimSpace(string(order)))) {
	case "":
		return models.SortDesc, nil
	case models.SortAsc:
		return models.SortAsc, nil
	case models.SortDesc:
		return models.SortDesc, nil
	default:
		return "", appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("unknown sort order %q", order))
	}
}
