package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/member-console/internal/models"
	"github.com/noah-isme/member-console/pkg/config"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

type memberRepoStub struct {
	mu        sync.Mutex
	members   []models.Member
	listCalls int
	listErr   error
	updates   []models.PartialUpdate
	updateErr error
	created   *models.Member
	createErr error
	deleted   []string
	deleteErr error
	assigned  [][]string
	assignErr error
}

func (s *memberRepoStub) List(ctx context.Context, d models.QueryDescriptor) (*models.RemotePage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return &models.RemotePage{
		Members: append([]models.Member(nil), s.members...),
		Total:   len(s.members),
		Page:    d.Page,
		Pages:   1,
		Limit:   d.Limit,
	}, nil
}

func (s *memberRepoStub) Update(ctx context.Context, memberID string, changes models.PartialUpdate) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, changes)
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	for _, m := range s.members {
		if m.ID == memberID {
			if v, ok := changes["firstName"].(string); ok {
				m.FirstName = v
			}
			return &m, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (s *memberRepoStub) Create(ctx context.Context, draft models.MemberDraft) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.created, nil
}

func (s *memberRepoStub) Delete(ctx context.Context, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, memberID)
	return s.deleteErr
}

func (s *memberRepoStub) AssignRole(ctx context.Context, kind models.RoleKind, memberIDs []string, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assigned = append(s.assigned, append([]string(nil), memberIDs...))
	return s.assignErr
}

type auditEntry struct {
	action     string
	resource   string
	resourceID string
	payload    interface{}
}

type auditRecorderStub struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *auditRecorderStub) Record(ctx context.Context, action, resource, resourceID string, payload interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{action: action, resource: resource, resourceID: resourceID, payload: payload})
}

func (a *auditRecorderStub) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.action
	}
	return out
}

func (a *auditRecorderStub) resourceIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.resourceID
	}
	return out
}

func newDirectoryFixture(t *testing.T, members []models.Member) (*DirectoryService, *memberRepoStub, *auditRecorderStub, string) {
	t.Helper()
	repo := &memberRepoStub{members: members}
	audit := &auditRecorderStub{}
	svc := NewDirectoryService(repo, nil, audit, config.DirectoryConfig{DefaultPageSize: 20, MaxPageSize: 100, ViewTTL: time.Minute}, NewMetricsService(), nil)
	view, err := svc.Open(models.DirectoryScope{})
	require.NoError(t, err)
	_, err = svc.Query(context.Background(), view.ID(), models.DirectoryQuery{}, models.FetchReplace)
	require.NoError(t, err)
	return svc, repo, audit, view.ID()
}

func TestDirectoryServiceOpenQueryClose(t *testing.T) {
	svc, repo, _, viewID := newDirectoryFixture(t, makeMembers("m", 3))
	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, []string{viewID}, svc.OpenViewIDs())
	assert.Equal(t, 1, svc.metrics.Snapshot().OpenViews)

	_, err := svc.Query(context.Background(), viewID, models.DirectoryQuery{PageSize: 500}, models.FetchReplace)
	assert.True(t, errors.Is(err, appErrors.ErrConfiguration))

	require.NoError(t, svc.Close(viewID))
	assert.True(t, errors.Is(svc.Close(viewID), appErrors.ErrNotFound))
	_, err = svc.View(viewID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, 0, svc.metrics.Snapshot().OpenViews)
}

func TestDirectoryServiceUpdateSendsOnlyChangedFields(t *testing.T) {
	members := makeMembers("m", 2)
	members[0].Email = "m1@example.com"
	svc, repo, audit, viewID := newDirectoryFixture(t, members)

	profile := models.ProfileOf(members[0])
	saved, err := svc.UpdateMember(context.Background(), viewID, "m-1", profile)
	require.NoError(t, err)
	assert.Equal(t, "m-1", saved.ID)
	assert.Empty(t, repo.updates)
	assert.Empty(t, audit.actions())

	profile.FirstName = "Renamed"
	saved, err = svc.UpdateMember(context.Background(), viewID, "m-1", profile)
	require.NoError(t, err)
	require.Len(t, repo.updates, 1)
	assert.Equal(t, models.PartialUpdate{"firstName": "Renamed"}, repo.updates[0])
	assert.Equal(t, "Renamed", saved.FirstName)

	view, err := svc.View(viewID)
	require.NoError(t, err)
	stored, ok := view.Member("m-1")
	require.True(t, ok)
	assert.Equal(t, "Renamed", stored.FirstName)
	assert.Equal(t, []string{models.AuditActionMemberUpdate}, audit.actions())
}

func TestDirectoryServiceUpdateUnknownMember(t *testing.T) {
	svc, _, _, viewID := newDirectoryFixture(t, makeMembers("m", 1))
	_, err := svc.UpdateMember(context.Background(), viewID, "ghost", models.MemberProfile{FirstName: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestDirectoryServiceDeleteCommits(t *testing.T) {
	svc, repo, audit, viewID := newDirectoryFixture(t, makeMembers("m", 2))

	require.NoError(t, svc.DeleteMember(context.Background(), viewID, "m-1"))
	view, _ := svc.View(viewID)
	_, ok := view.Member("m-1")
	assert.False(t, ok)
	assert.Equal(t, []string{"m-1"}, repo.deleted)
	assert.Equal(t, []string{models.AuditActionMemberDelete}, audit.actions())
}

func TestDirectoryServiceDeleteFailureRestoresAndRefetches(t *testing.T) {
	svc, repo, audit, viewID := newDirectoryFixture(t, makeMembers("m", 2))
	repo.deleteErr = appErrors.Clone(appErrors.ErrServer, "member has active packages")

	err := svc.DeleteMember(context.Background(), viewID, "m-1")
	assert.True(t, errors.Is(err, appErrors.ErrServer))
	assert.Equal(t, 2, repo.listCalls)

	view, _ := svc.View(viewID)
	snap := view.Snapshot()
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, models.RowCommitted, snap.Rows[0].State)
	assert.Empty(t, audit.actions())
}

func TestDirectoryServiceCreateSwapsProvisionalRow(t *testing.T) {
	svc, repo, audit, viewID := newDirectoryFixture(t, makeMembers("m", 1))
	repo.created = &models.Member{ID: "m-new", FirstName: "Nadia"}

	created, err := svc.CreateMember(context.Background(), viewID, models.MemberDraft{MemberProfile: models.MemberProfile{FirstName: "Nadia"}})
	require.NoError(t, err)
	assert.Equal(t, "m-new", created.ID)

	view, _ := svc.View(viewID)
	snap := view.Snapshot()
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, "m-new", snap.Rows[0].Member.ID)
	assert.Equal(t, models.RowCommitted, snap.Rows[0].State)
	assert.Equal(t, []string{models.AuditActionMemberCreate}, audit.actions())
}

func TestDirectoryServiceCreateFailureDiscardsProvisionalRow(t *testing.T) {
	svc, repo, _, viewID := newDirectoryFixture(t, makeMembers("m", 1))
	repo.createErr = appErrors.Clone(appErrors.ErrServer, "duplicate email")

	_, err := svc.CreateMember(context.Background(), viewID, models.MemberDraft{MemberProfile: models.MemberProfile{FirstName: "Dup"}})
	assert.True(t, errors.Is(err, appErrors.ErrServer))

	view, _ := svc.View(viewID)
	for _, row := range view.Snapshot().Rows {
		assert.False(t, strings.HasPrefix(row.Member.ID, provisionalIDPrefix))
	}
	assert.Len(t, view.Members(), 1)
}

func TestDirectoryServiceRank(t *testing.T) {
	members := []models.Member{
		{ID: "1", MemberID: "M001", FirstName: "Bob", LastName: "Stone"},
		{ID: "2", MemberID: "M002", FirstName: "Alice", LastName: "Wong"},
	}
	svc, _, _, viewID := newDirectoryFixture(t, members)

	ranked, err := svc.Rank(viewID, "alice")
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "2", ranked[0].Member.ID)
}

func TestDirectoryServiceEvictIdle(t *testing.T) {
	svc, _, _, viewID := newDirectoryFixture(t, makeMembers("m", 1))
	view, _ := svc.View(viewID)

	assert.Equal(t, 0, svc.EvictIdle(time.Now().UTC()))
	assert.Equal(t, 1, svc.EvictIdle(time.Now().UTC().Add(2*time.Minute)))
	assert.True(t, view.Closed())
	assert.Empty(t, svc.OpenViewIDs())
}

func TestDirectoryServiceValidatesProfiles(t *testing.T) {
	svc, repo, _, viewID := newDirectoryFixture(t, makeMembers("m", 1))

	_, err := svc.UpdateMember(context.Background(), viewID, "m-1", models.MemberProfile{FirstName: "Ok", Email: "not-an-email"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	_, err = svc.CreateMember(context.Background(), viewID, models.MemberDraft{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, repo.updates)
	assert.Equal(t, 1, repo.listCalls)
}
