package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/member-console/internal/dto"
	"github.com/noah-isme/member-console/internal/models"
	"github.com/noah-isme/member-console/pkg/config"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

// SubscriptionRepository is the member service surface used by the lifecycle engine.
type SubscriptionRepository interface {
	GetSubscriptions(ctx context.Context, memberID string) (*models.SubscriptionRecord, error)
	ActivatePremium(ctx context.Context, memberID string) (*models.MembershipStatus, error)
	RenewMembership(ctx context.Context, memberID string) (*models.MembershipStatus, error)
	RegisterMembership(ctx context.Context, memberID string, applyDiscount bool) (*models.MembershipStatus, error)
	AddPackage(ctx context.Context, memberID, packageID string) (*models.SubscriptionRecord, error)
}

// PackageFinder resolves catalog packages.
type PackageFinder interface {
	Find(ctx context.Context, packageID string) (*models.Package, error)
}

// SubscriptionService runs membership lifecycle transitions as
// read-modify-write against the member service. Local state only changes after
// the remote call succeeds, and one mutation per member may be in flight.
type SubscriptionService struct {
	repo     SubscriptionRepository
	catalog  PackageFinder
	audit    AuditRecorder
	metrics  *MetricsService
	logger   *zap.Logger
	plan     time.Duration
	now      func() time.Time
	inFlight *inFlightGuard

	mu       sync.Mutex
	sessions map[string]models.SubscriptionRecord
}

// NewSubscriptionService constructs the lifecycle engine.
func NewSubscriptionService(repo SubscriptionRepository, catalog PackageFinder, audit AuditRecorder, cfg config.MembershipConfig, metrics *MetricsService, logger *zap.Logger) *SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{
		repo:     repo,
		catalog:  catalog,
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
		plan:     cfg.PlanDuration(),
		now:      func() time.Time { return time.Now().UTC() },
		inFlight: newInFlightGuard(),
		sessions: map[string]models.SubscriptionRecord{},
	}
}

// Details loads the authoritative record and opens a details session for it.
// With cached set, an open session is served without a remote call.
func (s *SubscriptionService) Details(ctx context.Context, memberID string, cached bool) (*dto.SubscriptionDetails, error) {
	if cached {
		if record, ok := s.session(memberID); ok {
			return s.project(record), nil
		}
	}
	record, err := s.repo.GetSubscriptions(ctx, memberID)
	if err != nil {
		return nil, err
	}
	s.storeSession(*record)
	return s.project(*record), nil
}

// CloseSession drops the details session of a member.
func (s *SubscriptionService) CloseSession(memberID string) {
	s.mu.Lock()
	delete(s.sessions, memberID)
	s.mu.Unlock()
}

// Register registers the member, optionally consuming the one-time discount.
func (s *SubscriptionService) Register(ctx context.Context, memberID string, applyDiscount bool) (*dto.SubscriptionDetails, error) {
	return s.mutate(ctx, memberID, models.AuditActionRegister, func(ctx context.Context, record models.SubscriptionRecord, now time.Time) (models.SubscriptionRecord, interface{}, error) {
		local, err := ApplyRegistration(record.MembershipStatus, applyDiscount, now)
		if err != nil {
			return record, nil, err
		}
		remote, err := s.repo.RegisterMembership(ctx, memberID, applyDiscount)
		if err != nil {
			return record, nil, err
		}
		record.MembershipStatus = preferRemote(remote, local)
		return record, dto.RegisterRequest{ApplyDiscount: applyDiscount}, nil
	})
}

// ActivatePremium starts a premium plan for a member that has none active.
func (s *SubscriptionService) ActivatePremium(ctx context.Context, memberID string) (*dto.SubscriptionDetails, error) {
	return s.mutate(ctx, memberID, models.AuditActionPremiumActivate, func(ctx context.Context, record models.SubscriptionRecord, now time.Time) (models.SubscriptionRecord, interface{}, error) {
		local, err := ApplyActivation(record.MembershipStatus, record.IsSubprofile, now, s.plan)
		if err != nil {
			return record, nil, err
		}
		remote, err := s.repo.ActivatePremium(ctx, memberID)
		if err != nil {
			return record, nil, err
		}
		record.MembershipStatus = preferRemote(remote, local)
		return record, record.MembershipStatus.PremiumMembership, nil
	})
}

// Renew extends an active premium plan by one period.
func (s *SubscriptionService) Renew(ctx context.Context, memberID string) (*dto.SubscriptionDetails, error) {
	return s.mutate(ctx, memberID, models.AuditActionPremiumRenew, func(ctx context.Context, record models.SubscriptionRecord, now time.Time) (models.SubscriptionRecord, interface{}, error) {
		local, err := ApplyRenewal(record.MembershipStatus, now, s.plan)
		if err != nil {
			return record, nil, err
		}
		remote, err := s.repo.RenewMembership(ctx, memberID)
		if err != nil {
			return record, nil, err
		}
		record.MembershipStatus = preferRemote(remote, local)
		return record, record.MembershipStatus.PremiumMembership, nil
	})
}

// AddPackage subscribes the member to a catalog package.
func (s *SubscriptionService) AddPackage(ctx context.Context, memberID, packageID string) (*dto.SubscriptionDetails, error) {
	return s.mutate(ctx, memberID, models.AuditActionPackageAdd, func(ctx context.Context, record models.SubscriptionRecord, now time.Time) (models.SubscriptionRecord, interface{}, error) {
		pkg, err := s.catalog.Find(ctx, packageID)
		if err != nil {
			return record, nil, err
		}
		grant, err := NewPackageSubscription(*pkg, now)
		if err != nil {
			return record, nil, err
		}
		remote, err := s.repo.AddPackage(ctx, memberID, pkg.ID)
		if err != nil {
			return record, nil, err
		}
		if remote != nil {
			record.Packages = remote.Packages
			if len(remote.History) > 0 {
				record.History = remote.History
			}
		} else {
			record.Packages = append(record.Packages, grant)
		}
		return record, grant, nil
	})
}

type transition func(ctx context.Context, record models.SubscriptionRecord, now time.Time) (models.SubscriptionRecord, interface{}, error)

func (s *SubscriptionService) mutate(ctx context.Context, memberID, action string, apply transition) (*dto.SubscriptionDetails, error) {
	release, ok := s.inFlight.acquire(memberID)
	if !ok {
		s.metrics.RecordLifecycleMutation(action, appErrors.ErrMutationInFlight)
		return nil, appErrors.ErrMutationInFlight
	}
	defer release()

	current, err := s.repo.GetSubscriptions(ctx, memberID)
	if err != nil {
		s.metrics.RecordLifecycleMutation(action, err)
		return nil, err
	}

	next, payload, err := apply(ctx, current.Clone(), s.now())
	s.metrics.RecordLifecycleMutation(action, err)
	if err != nil {
		if appErrors.IsContractViolation(err) {
			s.logger.Error("rejected membership transition",
				zap.String("member_id", memberID),
				zap.String("action", action),
				zap.String("state", string(current.MembershipStatus.State())),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.storeSession(next)
	if s.audit != nil {
		s.audit.Record(ctx, action, auditResourceMember, memberID, payload)
	}
	return s.project(next), nil
}

func preferRemote(remote *models.MembershipStatus, local models.MembershipStatus) models.MembershipStatus {
	if remote != nil {
		return *remote
	}
	return local
}

func (s *SubscriptionService) session(memberID string) (models.SubscriptionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[memberID]
	if !ok {
		return models.SubscriptionRecord{}, false
	}
	return record.Clone(), true
}

func (s *SubscriptionService) storeSession(record models.SubscriptionRecord) {
	s.mu.Lock()
	s.sessions[record.MemberID] = record.Clone()
	s.mu.Unlock()
}

// project decorates a record with countdowns. Expired packages move to history.
func (s *SubscriptionService) project(record models.SubscriptionRecord) *dto.SubscriptionDetails {
	now := s.now()
	status := record.MembershipStatus
	active, history := PartitionExpired(record, now)

	premium := dto.PremiumView{PremiumMembership: status.PremiumMembership}
	if premium.IsActive && premium.ExpiryDate != nil {
		premium.DaysRemaining = ComputeDaysRemaining(*premium.ExpiryDate, now)
		premium.Urgency = ClassifyUrgency(premium.DaysRemaining)
	}

	packages := make([]dto.PackageView, 0, len(active))
	for _, pkg := range active {
		days := ComputeDaysRemaining(pkg.ExpiryDate, now)
		packages = append(packages, dto.PackageView{PackageSubscription: pkg, DaysRemaining: days, Urgency: ClassifyUrgency(days)})
	}

	return &dto.SubscriptionDetails{
		MemberID:                       record.MemberID,
		State:                          status.State(),
		IsRegistered:                   status.IsRegistered,
		RegistrationDate:               status.RegistrationDate,
		HasOneTimeRegistrationDiscount: status.HasOneTimeRegistrationDiscount,
		Premium:                        premium,
		Packages:                       packages,
		History:                        history,
		GeneratedAt:                    now,
	}
}
