package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/member-console/internal/models"
	"github.com/noah-isme/member-console/pkg/config"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

const (
	auditResourceMember = "member"
	provisionalIDPrefix = "pending-"
)

// MemberDirectoryRepository is the member service surface used by directory views.
type MemberDirectoryRepository interface {
	MemberLister
	Update(ctx context.Context, memberID string, changes models.PartialUpdate) (*models.Member, error)
	Create(ctx context.Context, draft models.MemberDraft) (*models.Member, error)
	Delete(ctx context.Context, memberID string) error
}

// DirectoryService is the registry of open directory views.
type DirectoryService struct {
	repo     MemberDirectoryRepository
	builder  *QueryBuilder
	validate *validator.Validate
	audit    AuditRecorder
	metrics  *MetricsService
	logger   *zap.Logger
	ttl      time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	views map[string]*DirectoryView
}

// NewDirectoryService constructs the registry.
func NewDirectoryService(repo MemberDirectoryRepository, builder *QueryBuilder, audit AuditRecorder, cfg config.DirectoryConfig, metrics *MetricsService, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if builder == nil {
		builder = NewQueryBuilder(cfg)
	}
	ttl := cfg.ViewTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &DirectoryService{
		repo:     repo,
		builder:  builder,
		validate: validator.New(),
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		views:    map[string]*DirectoryView{},
	}
}

// Open registers a new view over the given population.
func (s *DirectoryService) Open(scope models.DirectoryScope) (*DirectoryView, error) {
	initial, err := s.builder.Build(scope, models.DirectoryQuery{})
	if err != nil {
		return nil, err
	}
	view := NewDirectoryView(uuid.NewString(), scope, initial, s.repo, s.metrics, s.logger)

	s.mu.Lock()
	s.views[view.ID()] = view
	count := len(s.views)
	s.mu.Unlock()

	s.metrics.SetOpenViews(count)
	return view, nil
}

// View returns an open view.
func (s *DirectoryService) View(viewID string) (*DirectoryView, error) {
	s.mu.RLock()
	view, ok := s.views[viewID]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "directory view not found")
	}
	return view, nil
}

// Snapshot returns a consistent copy of an open view.
func (s *DirectoryService) Snapshot(viewID string) (*models.ViewSnapshot, error) {
	view, err := s.View(viewID)
	if err != nil {
		return nil, err
	}
	snap := view.Snapshot()
	return &snap, nil
}

// Close unregisters a view and cancels its in-flight fetch.
func (s *DirectoryService) Close(viewID string) error {
	s.mu.Lock()
	view, ok := s.views[viewID]
	delete(s.views, viewID)
	count := len(s.views)
	s.mu.Unlock()
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "directory view not found")
	}
	view.Close()
	s.metrics.SetOpenViews(count)
	return nil
}

// Query builds a descriptor for the view and fetches it.
func (s *DirectoryService) Query(ctx context.Context, viewID string, q models.DirectoryQuery, mode models.FetchMode) (*models.FetchResult, error) {
	view, err := s.View(viewID)
	if err != nil {
		return nil, err
	}
	d, err := s.builder.Build(view.Scope(), q)
	if err != nil {
		s.logger.Error("rejected directory query", zap.String("view_id", viewID), zap.Error(err))
		return nil, err
	}
	return view.Fetch(ctx, d, mode)
}

// LoadMore appends the next page to the view.
func (s *DirectoryService) LoadMore(ctx context.Context, viewID string) (*models.FetchResult, error) {
	view, err := s.View(viewID)
	if err != nil {
		return nil, err
	}
	return view.LoadMore(ctx)
}

// Refresh reloads the first page of the view's last query.
func (s *DirectoryService) Refresh(ctx context.Context, viewID string) (*models.FetchResult, error) {
	view, err := s.View(viewID)
	if err != nil {
		return nil, err
	}
	return view.Refresh(ctx)
}

// UpdateMember sends only the changed profile fields and replaces the row with
// the server copy. An unchanged profile issues no request.
func (s *DirectoryService) UpdateMember(ctx context.Context, viewID, memberID string, updated models.MemberProfile) (*models.Member, error) {
	if err := s.validate.Struct(updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member profile")
	}
	view, err := s.View(viewID)
	if err != nil {
		return nil, err
	}
	original, ok := view.Member(memberID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "member is not in the current directory page")
	}

	changes, err := Diff(models.ProfileOf(original), updated)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "")
	}
	if changes.Empty() {
		return &original, nil
	}

	saved, err := s.repo.Update(ctx, memberID, changes)
	if err != nil {
		return nil, err
	}
	view.ReplaceMember(*saved)
	s.record(ctx, models.AuditActionMemberUpdate, memberID, changes)
	return saved, nil
}

// DeleteMember optimistically hides the row while the delete is in flight. On
// failure the row is restored and the page refetched.
func (s *DirectoryService) DeleteMember(ctx context.Context, viewID, memberID string) error {
	view, err := s.View(viewID)
	if err != nil {
		return err
	}
	if err := view.MarkPendingDelete(memberID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, memberID); err != nil {
		view.RestoreRow(memberID)
		s.reconcile(ctx, view, "delete")
		return err
	}

	view.RemoveRow(memberID)
	s.record(ctx, models.AuditActionMemberDelete, memberID, nil)
	return nil
}

// CreateMember shows a provisional row until the service confirms the create.
func (s *DirectoryService) CreateMember(ctx context.Context, viewID string, draft models.MemberDraft) (*models.Member, error) {
	if err := s.validate.Struct(draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member draft")
	}
	view, err := s.View(viewID)
	if err != nil {
		return nil, err
	}

	provisionalID := provisionalIDPrefix + uuid.NewString()
	pending := models.Member{
		ID:              provisionalID,
		FirstName:       draft.FirstName,
		LastName:        draft.LastName,
		Email:           draft.Email,
		Phone:           draft.Phone,
		IsStudent:       draft.IsStudent,
		Grade:           draft.Grade,
		Section:         draft.Section,
		IsSubprofile:    draft.PrimaryMemberID != nil,
		PrimaryMemberID: draft.PrimaryMemberID,
		CreatedAt:       s.now(),
	}
	if err := view.InsertPending(pending); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, draft)
	if err != nil {
		view.DiscardPending(provisionalID)
		s.reconcile(ctx, view, "create")
		return nil, err
	}

	view.CommitCreated(provisionalID, *created)
	s.record(ctx, models.AuditActionMemberCreate, created.ID, draft)
	return created, nil
}

// Rank fuzzy-orders the buffered rows of a view.
func (s *DirectoryService) Rank(viewID, term string) ([]models.RankedMember, error) {
	view, err := s.View(viewID)
	if err != nil {
		return nil, err
	}
	return Rank(view.Members(), term), nil
}

// EvictIdle closes views unused for longer than the configured TTL.
func (s *DirectoryService) EvictIdle(now time.Time) int {
	s.mu.Lock()
	var expired []*DirectoryView
	for id, view := range s.views {
		if view.IdleSince(now) > s.ttl {
			expired = append(expired, view)
			delete(s.views, id)
		}
	}
	count := len(s.views)
	s.mu.Unlock()

	for _, view := range expired {
		view.Close()
	}
	if len(expired) > 0 {
		s.logger.Info("evicted idle directory views", zap.Int("evicted", len(expired)), zap.Int("open", count))
	}
	s.metrics.SetOpenViews(count)
	return len(expired)
}

// RunJanitor evicts idle views every interval until ctx is done.
func (s *DirectoryService) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(s.now())
		}
	}
}

// OpenViewIDs lists registered view ids in stable order.
func (s *DirectoryService) OpenViewIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.views))
	for id := range s.views {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// reconcile refetches after a failed optimistic mutation so the buffer matches the server.
func (s *DirectoryService) reconcile(ctx context.Context, view *DirectoryView, op string) {
	if _, err := view.Refresh(ctx); err != nil && !errors.Is(err, appErrors.ErrStaleResponse) {
		s.logger.Warn("directory reconcile failed", zap.String("view_id", view.ID()), zap.String("op", op), zap.Error(err))
	}
}

func (s *DirectoryService) record(ctx context.Context, action, memberID string, payload interface{}) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, action, auditResourceMember, memberID, payload)
}
