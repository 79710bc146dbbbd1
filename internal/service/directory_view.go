package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/member-console/internal/models"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

// MemberLister fetches one directory page from the member service.
type MemberLister interface {
	List(ctx context.Context, d models.QueryDescriptor) (*models.RemotePage, error)
}

// DirectoryView owns the result buffer, pagination cursor, selection and row
// states of one open directory. Remote calls run outside the lock; a sequence
// number discards responses that were superseded while in flight.
type DirectoryView struct {
	id      string
	scope   models.DirectoryScope
	lister  MemberLister
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time

	mu         sync.Mutex
	seq        uint64
	cancel     context.CancelFunc
	status     models.FetchStatus
	rows       []models.Row
	total      int
	page       int
	pages      int
	hasMore    bool
	lastErr    error
	descriptor models.QueryDescriptor
	selection  *Selection
	closed     bool
	lastAccess time.Time
	updatedAt  time.Time
}

// NewDirectoryView builds an idle view. initial is used by Refresh until the first query.
func NewDirectoryView(id string, scope models.DirectoryScope, initial models.QueryDescriptor, lister MemberLister, metrics *MetricsService, logger *zap.Logger) *DirectoryView {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now().UTC()
	return &DirectoryView{
		id:         id,
		scope:      scope,
		lister:     lister,
		metrics:    metrics,
		logger:     logger.With(zap.String("view_id", id)),
		now:        func() time.Time { return time.Now().UTC() },
		status:     models.FetchIdle,
		descriptor: initial.Clone(),
		selection:  NewSelection(),
		lastAccess: now,
		updatedAt:  now,
	}
}

// ID returns the view identifier.
func (v *DirectoryView) ID() string {
	return v.id
}

// Scope returns the population the view is restricted to.
func (v *DirectoryView) Scope() models.DirectoryScope {
	return v.scope
}

// Fetch loads the page described by d and merges it according to mode. Any
// fetch still in flight is cancelled and its result discarded.
func (v *DirectoryView) Fetch(ctx context.Context, d models.QueryDescriptor, mode models.FetchMode) (*models.FetchResult, error) {
	if !mode.Valid() {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "fetch mode must be replace or append")
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, appErrors.ErrViewClosed
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.seq++
	seq := v.seq
	fetchCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.status = models.FetchFetching
	v.lastAccess = v.now()
	v.mu.Unlock()

	page, err := v.lister.List(fetchCtx, d)

	v.mu.Lock()
	defer v.mu.Unlock()
	cancel()

	if v.closed {
		return nil, appErrors.ErrViewClosed
	}
	if seq < v.seq {
		v.metrics.RecordDirectoryFetch(string(mode), OutcomeStale)
		v.logger.Debug("discarding superseded directory response", zap.Uint64("seq", seq), zap.Uint64("latest", v.seq))
		return nil, appErrors.ErrStaleResponse
	}

	v.cancel = nil
	v.status = models.FetchIdle
	v.updatedAt = v.now()

	if err != nil {
		v.lastErr = err
		v.hasMore = false
		v.metrics.RecordDirectoryFetch(string(mode), OutcomeError)
		v.logger.Warn("directory fetch failed", zap.String("mode", string(mode)), zap.Int("page", d.Page), zap.Error(err))
		return nil, err
	}

	committed := make([]models.Row, 0, len(page.Members))
	for _, m := range page.Members {
		committed = append(committed, models.Row{Member: m, State: models.RowCommitted})
	}
	if mode == models.FetchReplace {
		v.rows = committed
	} else {
		v.rows = append(v.rows, committed...)
	}

	v.total = page.Total
	v.page = page.Page
	v.pages = page.Pages
	v.hasMore = computeHasMore(page, d.Limit)
	v.lastErr = nil
	v.descriptor = d.Clone()
	v.metrics.RecordDirectoryFetch(string(mode), OutcomeSuccess)

	return &models.FetchResult{
		Rows:    append([]models.Member(nil), page.Members...),
		Total:   v.total,
		Page:    v.page,
		Pages:   v.pages,
		HasMore: v.hasMore,
	}, nil
}

// computeHasMore trusts the server page count when present. Without it a full
// page is taken to mean more rows exist.
func computeHasMore(page *models.RemotePage, pageSize int) bool {
	if page.Pages > 0 {
		return page.Page < page.Pages
	}
	return pageSize > 0 && len(page.Members) == pageSize
}

// LoadMore appends the next page of the last query. It returns nil when there is nothing more to load.
func (v *DirectoryView) LoadMore(ctx context.Context) (*models.FetchResult, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, appErrors.ErrViewClosed
	}
	if !v.hasMore {
		v.mu.Unlock()
		return nil, nil
	}
	next := v.descriptor.Clone()
	next.Page = v.page + 1
	v.mu.Unlock()

	return v.Fetch(ctx, next, models.FetchAppend)
}

// Refresh replaces the buffer with the first page of the last query.
func (v *DirectoryView) Refresh(ctx context.Context) (*models.FetchResult, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, appErrors.ErrViewClosed
	}
	d := v.descriptor.Clone()
	v.mu.Unlock()

	d.Page = 1
	return v.Fetch(ctx, d, models.FetchReplace)
}

// Close cancels any fetch in flight, drops the buffer and clears the selection.
func (v *DirectoryView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.status = models.FetchIdle
	v.rows = nil
	v.hasMore = false
	v.selection.Clear()
}

// Closed reports whether Close was called.
func (v *DirectoryView) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// IdleSince returns how long the view has not been used.
func (v *DirectoryView) IdleSince(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.lastAccess)
}

// Snapshot returns a consistent copy of the view state.
func (v *DirectoryView) Snapshot() models.ViewSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastAccess = v.now()

	d := v.descriptor.Clone()
	snap := models.ViewSnapshot{
		ID:         v.id,
		Scope:      v.scope,
		Status:     v.status,
		Rows:       append([]models.Row{}, v.rows...),
		Total:      v.total,
		Page:       v.page,
		Pages:      v.pages,
		HasMore:    v.hasMore,
		Descriptor: &d,
		Selection:  v.selection.IDs(),
		UpdatedAt:  v.updatedAt,
	}
	if v.lastErr != nil {
		snap.LastError = appErrors.FromError(v.lastErr).Message
	}
	return snap
}

// Pagination returns the cursor metadata of the buffer.
func (v *DirectoryView) Pagination() models.Pagination {
	v.mu.Lock()
	defer v.mu.Unlock()
	return models.Pagination{
		Page:     v.page,
		Pages:    v.pages,
		PageSize: v.descriptor.Limit,
		Total:    v.total,
		HasMore:  v.hasMore,
	}
}

// Members returns the committed and pending-delete members of the buffer.
func (v *DirectoryView) Members() []models.Member {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Member, 0, len(v.rows))
	for _, row := range v.rows {
		if row.State == models.RowPendingCreate {
			continue
		}
		out = append(out, row.Member)
	}
	return out
}

// Member returns a buffered member by id.
func (v *DirectoryView) Member(id string) (models.Member, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexOf(id); i >= 0 {
		return v.rows[i].Member, true
	}
	return models.Member{}, false
}

func (v *DirectoryView) indexOf(id string) int {
	for i, row := range v.rows {
		if row.Member.ID == id {
			return i
		}
	}
	return -1
}

// ToggleSelection flips a buffered member in the selection.
func (v *DirectoryView) ToggleSelection(id string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false, appErrors.ErrViewClosed
	}
	if i := v.indexOf(id); i < 0 || v.rows[i].State == models.RowPendingCreate {
		if !v.selection.Contains(id) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "member is not in the current directory page")
		}
	}
	v.lastAccess = v.now()
	return v.selection.Toggle(id), nil
}

// SelectAll selects the given ids, or every committed row when ids is empty.
func (v *DirectoryView) SelectAll(ids []string) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, appErrors.ErrViewClosed
	}
	if len(ids) == 0 {
		for _, row := range v.rows {
			if row.State == models.RowCommitted {
				ids = append(ids, row.Member.ID)
			}
		}
	}
	v.selection.SelectAll(ids)
	v.lastAccess = v.now()
	return v.selection.IDs(), nil
}

// ClearSelection empties the selection.
func (v *DirectoryView) ClearSelection() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.Clear()
}

// SelectedIDs returns the selected ids.
func (v *DirectoryView) SelectedIDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection.IDs()
}

// SelectionWithMembers returns the selection with the buffered members it refers to.
func (v *DirectoryView) SelectionWithMembers() ([]string, map[string]models.Member) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ids := v.selection.IDs()
	members := make(map[string]models.Member, len(ids))
	for _, id := range ids {
		if i := v.indexOf(id); i >= 0 {
			members[id] = v.rows[i].Member
		}
	}
	return ids, members
}

// MarkPendingDelete flags a committed row as being deleted.
func (v *DirectoryView) MarkPendingDelete(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return appErrors.ErrViewClosed
	}
	i := v.indexOf(id)
	if i < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "member is not in the current directory page")
	}
	if v.rows[i].State != models.RowCommitted {
		return appErrors.ErrMutationInFlight
	}
	v.rows[i].State = models.RowPendingDelete
	v.selection.Remove(id)
	return nil
}

// RestoreRow reverts a pending delete.
func (v *DirectoryView) RestoreRow(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexOf(id); i >= 0 && v.rows[i].State == models.RowPendingDelete {
		v.rows[i].State = models.RowCommitted
	}
}

// RemoveRow drops a row after a confirmed delete.
func (v *DirectoryView) RemoveRow(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.indexOf(id)
	if i < 0 {
		return
	}
	v.rows = append(v.rows[:i], v.rows[i+1:]...)
	if v.total > 0 {
		v.total--
	}
	v.selection.Remove(id)
	v.updatedAt = v.now()
}

// InsertPending places a provisional row at the top of the buffer.
func (v *DirectoryView) InsertPending(member models.Member) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return appErrors.ErrViewClosed
	}
	v.rows = append([]models.Row{{Member: member, State: models.RowPendingCreate}}, v.rows...)
	v.updatedAt = v.now()
	return nil
}

// CommitCreated swaps a provisional row for the committed server record.
// It reports false when the provisional row is gone, for example after a refresh.
func (v *DirectoryView) CommitCreated(provisionalID string, member models.Member) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.indexOf(provisionalID)
	if i < 0 || v.rows[i].State != models.RowPendingCreate {
		return false
	}
	v.rows[i] = models.Row{Member: member, State: models.RowCommitted}
	v.total++
	v.updatedAt = v.now()
	return true
}

// DiscardPending removes a provisional row.
func (v *DirectoryView) DiscardPending(provisionalID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexOf(provisionalID); i >= 0 && v.rows[i].State == models.RowPendingCreate {
		v.rows = append(v.rows[:i], v.rows[i+1:]...)
		v.updatedAt = v.now()
	}
}

// ReplaceMember overwrites a committed row with a fresher copy.
func (v *DirectoryView) ReplaceMember(member models.Member) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.indexOf(member.ID)
	if i < 0 || v.rows[i].State != models.RowCommitted {
		return false
	}
	v.rows[i].Member = member
	v.updatedAt = v.now()
	return true
}
