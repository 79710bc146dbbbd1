package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/member-console/internal/models"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

type listerFunc func(ctx context.Context, d models.QueryDescriptor) (*models.RemotePage, error)

func (f listerFunc) List(ctx context.Context, d models.QueryDescriptor) (*models.RemotePage, error) {
	return f(ctx, d)
}

func makeMembers(prefix string, n int) []models.Member {
	members := make([]models.Member, n)
	for i := range members {
		members[i] = models.Member{
			ID:        fmt.Sprintf("%s-%d", prefix, i+1),
			MemberID:  fmt.Sprintf("M%s%03d", prefix, i+1),
			FirstName: "Member",
			LastName:  fmt.Sprintf("%s%d", prefix, i+1),
		}
	}
	return members
}

func pagedLister(perPage, pages int) listerFunc {
	return func(ctx context.Context, d models.QueryDescriptor) (*models.RemotePage, error) {
		return &models.RemotePage{
			Members: makeMembers(fmt.Sprintf("p%d", d.Page), perPage),
			Total:   perPage * pages,
			Page:    d.Page,
			Pages:   pages,
			Limit:   d.Limit,
		}, nil
	}
}

func firstPage(limit int) models.QueryDescriptor {
	return models.QueryDescriptor{Page: 1, Limit: limit, SortBy: "createdAt", SortOrder: models.SortDesc}
}

func TestDirectoryViewFetchReplaceThenAppend(t *testing.T) {
	metrics := NewMetricsService()
	view := NewDirectoryView("v-1", models.DirectoryScope{}, firstPage(2), pagedLister(2, 3), metrics, nil)

	result, err := view.Fetch(context.Background(), firstPage(2), models.FetchReplace)
	require.NoError(t, err)
	assert.True(t, result.HasMore)
	assert.Len(t, result.Rows, 2)

	more, err := view.LoadMore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, more)
	assert.Equal(t, 2, more.Page)

	snap := view.Snapshot()
	require.Len(t, snap.Rows, 4)
	assert.Equal(t, "p1-1", snap.Rows[0].Member.ID)
	assert.Equal(t, "p2-2", snap.Rows[3].Member.ID)
	assert.Equal(t, models.FetchIdle, snap.Status)
	assert.Equal(t, 6, snap.Total)

	_, err = view.LoadMore(context.Background())
	require.NoError(t, err)
	last, err := view.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last)
	assert.Len(t, view.Members(), 6)
}

func TestDirectoryViewHasMoreFallsBackToFullPage(t *testing.T) {
	lister := listerFunc(func(ctx context.Context, d models.QueryDescriptor) (*models.RemotePage, error) {
		return &models.RemotePage{Members: makeMembers("x", 3), Page: d.Page}, nil
	})
	view := NewDirectoryView("v-1", models.DirectoryScope{}, firstPage(3), lister, nil, nil)

	result, err := view.Fetch(context.Background(), firstPage(3), models.FetchReplace)
	require.NoError(t, err)
	assert.True(t, result.HasMore)

	result, err = view.Fetch(context.Background(), firstPage(5), models.FetchReplace)
	require.NoError(t, err)
	assert.False(t, result.HasMore)
}

func TestDirectoryViewDiscardsSupersededResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var slowCtxErr error
	lister := listerFunc(func(ctx context.Context, d models.QueryDescriptor) (*models.RemotePage, error) {
		if d.Search == "slow" {
			close(started)
			<-release
			slowCtxErr = ctx.Err()
			return &models.RemotePage{Members: makeMembers("slow", 2), Page: 1, Pages: 1}, nil
		}
		return &models.RemotePage{Members: makeMembers("fast", 1), Page: 1, Pages: 1}, nil
	})
	metrics := NewMetricsService()
	view := NewDirectoryView("v-1", models.DirectoryScope{}, firstPage(20), lister, metrics, nil)

	slow := firstPage(20)
	slow.Search = "slow"
	fast := firstPage(20)
	fast.Search = "fast"

	var wg sync.WaitGroup
	var slowErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowErr = view.Fetch(context.Background(), slow, models.FetchReplace)
	}()

	<-started
	_, err := view.Fetch(context.Background(), fast, models.FetchReplace)
	require.NoError(t, err)
	close(release)
	wg.Wait()

	assert.True(t, errors.Is(slowErr, appErrors.ErrStaleResponse))
	assert.ErrorIs(t, slowCtxErr, context.Canceled)

	snap := view.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "fast-1", snap.Rows[0].Member.ID)
	assert.Equal(t, "fast", snap.Descriptor.Search)
	assert.Equal(t, uint64(1), metrics.Snapshot().StaleResponses)
}

func TestDirectoryViewErrorKeepsBuffer(t *testing.T) {
	fail := false
	lister := listerFunc(func(ctx context.Context, d models.QueryDescriptor) (*models.RemotePage, error) {
		if fail {
			return nil, appErrors.Clone(appErrors.ErrNetwork, "member service unreachable")
		}
		return &models.RemotePage{Members: makeMembers("a", 2), Page: 1, Pages: 2}, nil
	})
	view := NewDirectoryView("v-1", models.DirectoryScope{}, firstPage(2), lister, nil, nil)

	_, err := view.Fetch(context.Background(), firstPage(2), models.FetchReplace)
	require.NoError(t, err)

	fail = true
	_, err = view.LoadMore(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrNetwork))

	snap := view.Snapshot()
	assert.Len(t, snap.Rows, 2)
	assert.False(t, snap.HasMore)
	assert.Equal(t, "member service unreachable", snap.LastError)
	assert.Equal(t, models.FetchIdle, snap.Status)
}

func TestDirectoryViewRefreshUsesFirstPageOfLastQuery(t *testing.T) {
	var seen []models.QueryDescriptor
	lister := listerFunc(func(ctx context.Context, d models.QueryDescriptor) (*models.RemotePage, error) {
		seen = append(seen, d)
		return &models.RemotePage{Members: makeMembers("r", 2), Page: d.Page, Pages: 5}, nil
	})
	view := NewDirectoryView("v-1", models.DirectoryScope{}, firstPage(2), lister, nil, nil)

	d := firstPage(2)
	d.Search = "ali"
	_, err := view.Fetch(context.Background(), d, models.FetchReplace)
	require.NoError(t, err)
	_, err = view.LoadMore(context.Background())
	require.NoError(t, err)
	_, err = view.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, seen, 3)
	assert.Equal(t, 1, seen[2].Page)
	assert.Equal(t, "ali", seen[2].Search)
	assert.Len(t, view.Members(), 2)
}

func TestDirectoryViewRejectsUnknownMode(t *testing.T) {
	view := NewDirectoryView("v-1", models.DirectoryScope{}, firstPage(2), pagedLister(2, 1), nil, nil)
	_, err := view.Fetch(context.Background(), firstPage(2), models.FetchMode("merge"))
	assert.True(t, errors.Is(err, appErrors.ErrConfiguration))
}

func TestDirectoryViewCloseDropsStateAndRejectsFetch(t *testing.T) {
	view := NewDirectoryView("v-1", models.DirectoryScope{}, firstPage(2), pagedLister(2, 1), nil, nil)
	_, err := view.Fetch(context.Background(), firstPage(2), models.FetchReplace)
	require.NoError(t, err)
	_, err = view.ToggleSelection("p1-1")
	require.NoError(t, err)

	view.Close()
	assert.True(t, view.Closed())
	assert.Empty(t, view.Members())
	assert.Empty(t, view.SelectedIDs())

	_, err = view.Fetch(context.Background(), firstPage(2), models.FetchReplace)
	assert.True(t, errors.Is(err, appErrors.ErrViewClosed))
	_, err = view.ToggleSelection("p1-1")
	assert.True(t, errors.Is(err, appErrors.ErrViewClosed))
}

func TestDirectoryViewSelectionRequiresBufferedMember(t *testing.T) {
	view := NewDirectoryView("v-1", models.DirectoryScope{}, firstPage(3), pagedLister(3, 1), nil, nil)
	_, err := view.Fetch(context.Background(), firstPage(3), models.FetchReplace)
	require.NoError(t, err)

	_, err = view.ToggleSelection("ghost")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	selected, err := view.ToggleSelection("p1-2")
	require.NoError(t, err)
	assert.True(t, selected)

	ids, err := view.SelectAll(nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1-1", "p1-2", "p1-3"}, ids)

	view.ClearSelection()
	assert.Empty(t, view.SelectedIDs())
}

func TestDirectoryViewRowStates(t *testing.T) {
	view := NewDirectoryView("v-1", models.DirectoryScope{}, firstPage(2), pagedLister(2, 1), nil, nil)
	_, err := view.Fetch(context.Background(), firstPage(2), models.FetchReplace)
	require.NoError(t, err)

	require.NoError(t, view.MarkPendingDelete("p1-1"))
	assert.True(t, errors.Is(view.MarkPendingDelete("p1-1"), appErrors.ErrMutationInFlight))
	view.RestoreRow("p1-1")
	assert.Equal(t, models.RowCommitted, view.Snapshot().Rows[0].State)

	require.NoError(t, view.InsertPending(models.Member{ID: "pending-1", FirstName: "New"}))
	assert.Len(t, view.Members(), 2)
	assert.Equal(t, models.RowPendingCreate, view.Snapshot().Rows[0].State)

	assert.True(t, view.CommitCreated("pending-1", models.Member{ID: "m-new", FirstName: "New"}))
	assert.False(t, view.CommitCreated("pending-1", models.Member{ID: "m-new"}))
	snap := view.Snapshot()
	assert.Equal(t, "m-new", snap.Rows[0].Member.ID)
	assert.Equal(t, 3, snap.Total)

	view.RemoveRow("m-new")
	assert.Len(t, view.Members(), 2)
	assert.Equal(t, 2, view.Snapshot().Total)
}

func TestDirectoryViewIdleSinceTracksAccess(t *testing.T) {
	view := NewDirectoryView("v-1", models.DirectoryScope{}, firstPage(2), pagedLister(2, 1), nil, nil)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	view.now = func() time.Time { return base }
	_ = view.Snapshot()

	assert.Equal(t, 10*time.Minute, view.IdleSince(base.Add(10*time.Minute)))
}
