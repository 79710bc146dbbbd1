package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/noah-isme/member-console/internal/models"
	"github.com/noah-isme/member-console/pkg/config"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

func newTestQueryBuilder() *QueryBuilder {
	return NewQueryBuilder(config.DirectoryConfig{DefaultPageSize: 20, MaxPageSize: 100})
}

func TestBuildQueryDefaults(t *testing.T) {
	d, err := newTestQueryBuilder().BuildQuery("  ", map[string]string{"grade": "5", "section": ""}, 0, 0, models.Sort{})
	require.NoError(t, err)

	assert.Equal(t, 1, d.Page)
	assert.Equal(t, 20, d.Limit)
	assert.Equal(t, "createdAt", d.SortBy)
	assert.Equal(t, models.SortDesc, d.SortOrder)
	assert.Empty(t, d.Search)
	assert.Equal(t, map[string]string{"grade": "5"}, d.Filters)
}

func TestBuildQueryNormalisesSortOrder(t *testing.T) {
	d, err := newTestQueryBuilder().BuildQuery("ali", nil, 3, 10, models.Sort{By: "lastName", Order: " ASC "})
	require.NoError(t, err)
	assert.Equal(t, models.SortAsc, d.SortOrder)
	assert.Equal(t, "lastName", d.SortBy)
	assert.Equal(t, "ali", d.Search)
	assert.Equal(t, 3, d.Page)
}

func TestBuildQueryConfigurationErrors(t *testing.T) {
	b := newTestQueryBuilder()
	cases := map[string]func() error{
		"negative page size": func() error { _, err := b.BuildQuery("", nil, 1, -1, models.Sort{}); return err },
		"page size over max": func() error { _, err := b.BuildQuery("", nil, 1, 101, models.Sort{}); return err },
		"unknown sort order": func() error {
			_, err := b.BuildQuery("", nil, 1, 10, models.Sort{Order: "sideways"})
			return err
		},
		"reserved filter key": func() error {
			_, err := b.BuildQuery("", map[string]string{"page": "2"}, 1, 10, models.Sort{})
			return err
		},
	}
	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			err := run()
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrConfiguration))
		})
	}
}

func TestBuildAppliesScope(t *testing.T) {
	isStudent := false
	d, err := newTestQueryBuilder().Build(models.DirectoryScope{IsStudent: &isStudent, ExcludeType: "hospital"}, models.DirectoryQuery{Search: "x"})
	require.NoError(t, err)
	require.NotNil(t, d.Scope.IsStudent)
	assert.False(t, *d.Scope.IsStudent)
	assert.Equal(t, "hospital", d.Scope.ExcludeType)

	isStudent = true
	assert.False(t, *d.Scope.IsStudent, "descriptor must not alias the caller's scope")
}

func TestNewQueryBuilderClampsDefaults(t *testing.T) {
	b := NewQueryBuilder(config.DirectoryConfig{DefaultPageSize: 500, MaxPageSize: 50})
	assert.Equal(t, 50, b.DefaultPageSize())

	b = NewQueryBuilder(config.DirectoryConfig{})
	assert.Equal(t, 20, b.DefaultPageSize())
}

func TestBuildQueryProperties(t *testing.T) {
	b := newTestQueryBuilder()
	filterKeys := []string{"grade", "section", "navigatorId", "doctorId", "memberType"}

	rapid.Check(t, func(t *rapid.T) {
		search := rapid.String().Draw(t, "search")
		page := rapid.IntRange(-5, 50).Draw(t, "page")
		pageSize := rapid.IntRange(0, 100).Draw(t, "pageSize")
		order := rapid.SampledFrom([]models.SortOrder{"", "asc", "desc", "ASC", "Desc"}).Draw(t, "order")
		filters := rapid.MapOf(rapid.SampledFrom(filterKeys), rapid.SampledFrom([]string{"", " ", "5", " A ", "n-1"})).Draw(t, "filters")

		d, err := b.BuildQuery(search, filters, page, pageSize, models.Sort{Order: order})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if d.Page < 1 {
			t.Fatalf("page %d below 1", d.Page)
		}
		if page >= 1 && d.Page != page {
			t.Fatalf("page %d rewritten to %d", page, d.Page)
		}
		if d.Limit < 1 || d.Limit > 100 {
			t.Fatalf("limit %d out of range", d.Limit)
		}
		if d.SortOrder != models.SortAsc && d.SortOrder != models.SortDesc {
			t.Fatalf("sort order %q not normalised", d.SortOrder)
		}
		if strings.TrimSpace(search) == "" && d.Search != "" {
			t.Fatalf("blank search kept as %q", d.Search)
		}
		for key, value := range d.Filters {
			if value == "" {
				t.Fatalf("filter %s kept with empty value", key)
			}
		}
		for key, value := range filters {
			if strings.TrimSpace(value) != "" && d.Filters[key] != strings.TrimSpace(value) {
				t.Fatalf("filter %s dropped", key)
			}
		}

		again, err := b.BuildQuery(search, filters, page, pageSize, models.Sort{Order: order})
		if err != nil || !assert.ObjectsAreEqual(d, again) {
			t.Fatalf("builder is not deterministic")
		}
	})
}
