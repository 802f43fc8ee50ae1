package quarantine

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
)

type fakeQuarantineRepo struct {
	items map[string]*domain.QuarantineItem
}

func newFakeQuarantineRepo(items ...*domain.QuarantineItem) *fakeQuarantineRepo {
	r := &fakeQuarantineRepo{items: map[string]*domain.QuarantineItem{}}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return r
}

func (f *fakeQuarantineRepo) Create(ctx context.Context, q *domain.QuarantineItem) (*domain.QuarantineItem, error) {
	f.items[q.ID] = q
	return q, nil
}

func (f *fakeQuarantineRepo) FindActiveByVersion(ctx context.Context, tenantID, versionID string) (*domain.QuarantineItem, error) {
	for _, it := range f.items {
		if it.TenantID == tenantID && it.VersionID == versionID && it.Status == domain.QuarantineStatusQuarantined {
			return it, nil
		}
	}
	return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, "QuarantineItem")
}

func (f *fakeQuarantineRepo) FindByID(ctx context.Context, tenantID, id string) (*domain.QuarantineItem, error) {
	it, ok := f.items[id]
	if !ok || it.TenantID != tenantID {
		return nil, apperrors.ValidateBusinessError(cn.ErrEntityNotFound, "QuarantineItem")
	}
	return it, nil
}

func (f *fakeQuarantineRepo) Resolve(ctx context.Context, id string, status domain.QuarantineStatus, resolvedBy string) error {
	it, ok := f.items[id]
	if !ok {
		return apperrors.ValidateBusinessError(cn.ErrEntityNotFound, "QuarantineItem")
	}
	it.Status = status
	it.ResolvedBy = &resolvedBy
	return nil
}

func (f *fakeQuarantineRepo) ListByRepo(ctx context.Context, tenantID, repoID string, status domain.QuarantineStatus, offset, limit int) ([]*domain.QuarantineItem, error) {
	var out []*domain.QuarantineItem
	for _, it := range f.items {
		if it.TenantID == tenantID && it.RepoID == repoID && it.Status == status {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	created []*domain.AuditLog
}

func (f *fakeAuditRepo) Create(ctx context.Context, tx *sql.Tx, a *domain.AuditLog) error {
	f.created = append(f.created, a)
	return nil
}

func (f *fakeAuditRepo) ListByResource(ctx context.Context, tenantID, resourceType, resourceID string, limit int) ([]*domain.AuditLog, error) {
	return nil, nil
}

func TestReleaseResolvesAndAudits(t *testing.T) {
	item := &domain.QuarantineItem{ID: "q1", TenantID: "t1", RepoID: "r1", VersionID: "v1", Status: domain.QuarantineStatusQuarantined}
	repo := newFakeQuarantineRepo(item)
	audit := &fakeAuditRepo{}
	uc := &UseCase{QuarantineRepo: repo, AuditRepo: audit}

	err := uc.Release(context.Background(), "t1", "q1", "alice")
	require.NoError(t, err)

	assert.Equal(t, domain.QuarantineStatusReleased, item.Status)
	require.Len(t, audit.created, 1)
	assert.Equal(t, domain.AuditQuarantineReleased, audit.created[0].Action)
	assert.Equal(t, "alice", audit.created[0].Actor)
	assert.Equal(t, "q1", audit.created[0].ResourceID)
}

func TestRejectResolvesAndAudits(t *testing.T) {
	item := &domain.QuarantineItem{ID: "q2", TenantID: "t1", RepoID: "r1", VersionID: "v2", Status: domain.QuarantineStatusQuarantined}
	repo := newFakeQuarantineRepo(item)
	audit := &fakeAuditRepo{}
	uc := &UseCase{QuarantineRepo: repo, AuditRepo: audit}

	err := uc.Reject(context.Background(), "t1", "q2", "bob")
	require.NoError(t, err)

	assert.Equal(t, domain.QuarantineStatusRejected, item.Status)
	require.Len(t, audit.created, 1)
	assert.Equal(t, domain.AuditQuarantineRejected, audit.created[0].Action)
}

func TestReleaseUnknownItemReturnsNotFound(t *testing.T) {
	repo := newFakeQuarantineRepo()
	audit := &fakeAuditRepo{}
	uc := &UseCase{QuarantineRepo: repo, AuditRepo: audit}

	err := uc.Release(context.Background(), "t1", "missing", "alice")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, audit.created)
}

func TestGetReturnsItemWithinTenant(t *testing.T) {
	item := &domain.QuarantineItem{ID: "q3", TenantID: "t1", RepoID: "r1", VersionID: "v3", Status: domain.QuarantineStatusQuarantined}
	repo := newFakeQuarantineRepo(item)
	uc := &UseCase{QuarantineRepo: repo, AuditRepo: &fakeAuditRepo{}}

	got, err := uc.Get(context.Background(), "t1", "q3")
	require.NoError(t, err)
	assert.Equal(t, item, got)

	_, err = uc.Get(context.Background(), "other-tenant", "q3")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFindActiveByVersionSkipsReleased(t *testing.T) {
	released := &domain.QuarantineItem{ID: "q4", TenantID: "t1", RepoID: "r1", VersionID: "v4", Status: domain.QuarantineStatusReleased}
	repo := newFakeQuarantineRepo(released)
	uc := &UseCase{QuarantineRepo: repo, AuditRepo: &fakeAuditRepo{}}

	_, err := uc.Find(context.Background(), "t1", "v4")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
