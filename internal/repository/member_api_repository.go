package repository

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/form/v4"

	"github.com/noah-isme/member-console/internal/dto"
	"github.com/noah-isme/member-console/internal/models"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

var queryEncoder = form.NewEncoder()

// EncodeQuery renders a descriptor as list endpoint query values. Filters are
// flattened as top-level keys and the scope becomes isStudent/excludeType.
func EncodeQuery(d models.QueryDescriptor) (url.Values, error) {
	values := url.Values{}
	for key, value := range d.Filters {
		values.Set(key, value)
	}
	if d.Scope.IsStudent != nil {
		values.Set("isStudent", strconv.FormatBool(*d.Scope.IsStudent))
	}
	if d.Scope.ExcludeType != "" {
		values.Set("excludeType", d.Scope.ExcludeType)
	}

	fixed, err := queryEncoder.Encode(d)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrConfiguration, "encode directory query")
	}
	for key, vals := range fixed {
		values[key] = vals
	}
	return values, nil
}

// MemberAPIRepository talks to the member endpoints of the remote service.
type MemberAPIRepository struct {
	client *APIClient
}

// NewMemberAPIRepository constructs the repository.
func NewMemberAPIRepository(client *APIClient) *MemberAPIRepository {
	return &MemberAPIRepository{client: client}
}

func memberPath(id string, suffix string) string {
	return "/members/" + url.PathEscape(id) + suffix
}

// List fetches one directory page.
func (r *MemberAPIRepository) List(ctx context.Context, d models.QueryDescriptor) (*models.RemotePage, error) {
	query, err := EncodeQuery(d)
	if err != nil {
		return nil, err
	}
	env, err := r.client.do(ctx, call{operation: "members.list", method: http.MethodGet, path: "/members", query: query})
	if err != nil {
		return nil, err
	}

	var payloads []dto.MemberPayload
	if err := decodeData(env, &payloads); err != nil {
		return nil, err
	}

	page := &models.RemotePage{
		Members: dto.NormalizeMembers(payloads),
		Page:    d.Page,
		Limit:   d.Limit,
	}
	if p := env.Pagination; p != nil {
		page.Total = p.Total
		page.Pages = p.Pages
		if p.Page > 0 {
			page.Page = p.Page
		}
		if p.Limit > 0 {
			page.Limit = p.Limit
		}
	} else {
		page.Total = len(page.Members)
	}
	return page, nil
}

// AssignRole assigns a navigator or doctor to every member in one request.
func (r *MemberAPIRepository) AssignRole(ctx context.Context, kind models.RoleKind, memberIDs []string, roleID string) error {
	_, err := r.client.do(ctx, call{
		operation: "members.assign_" + string(kind),
		method:    http.MethodPatch,
		path:      "/members/assign/" + string(kind),
		body:      dto.NewAssignRolePayload(kind, memberIDs, roleID),
	})
	return err
}

// GetSubscriptions fetches the authoritative subscription record of a member.
func (r *MemberAPIRepository) GetSubscriptions(ctx context.Context, memberID string) (*models.SubscriptionRecord, error) {
	env, err := r.client.do(ctx, call{operation: "members.subscriptions", method: http.MethodGet, path: memberPath(memberID, "/subscriptions")})
	if err != nil {
		return nil, err
	}
	var payload dto.SubscriptionPayload
	if err := decodeData(env, &payload); err != nil {
		return nil, err
	}
	record := payload.Normalize(memberID)
	return &record, nil
}

// ActivatePremium starts the premium plan. The returned status is nil when the service omits it.
func (r *MemberAPIRepository) ActivatePremium(ctx context.Context, memberID string) (*models.MembershipStatus, error) {
	return r.patchMembership(ctx, "members.premium", memberPath(memberID, "/membership/premium"), nil)
}

// RenewMembership extends the premium plan.
func (r *MemberAPIRepository) RenewMembership(ctx context.Context, memberID string) (*models.MembershipStatus, error) {
	return r.patchMembership(ctx, "members.renewal", memberPath(memberID, "/membership/renewal"), nil)
}

// RegisterMembership registers the member, optionally consuming the one-time discount.
func (r *MemberAPIRepository) RegisterMembership(ctx context.Context, memberID string, applyDiscount bool) (*models.MembershipStatus, error) {
	return r.patchMembership(ctx, "members.registration", memberPath(memberID, "/membership/registration"), dto.RegisterRequest{ApplyDiscount: applyDiscount})
}

func (r *MemberAPIRepository) patchMembership(ctx context.Context, operation, path string, body interface{}) (*models.MembershipStatus, error) {
	env, err := r.client.do(ctx, call{operation: operation, method: http.MethodPatch, path: path, body: body})
	if err != nil {
		return nil, err
	}
	var data dto.MembershipStatusData
	if err := decodeData(env, &data); err != nil {
		return nil, err
	}
	if data.MembershipStatus == nil {
		return nil, nil
	}
	status := data.MembershipStatus.Normalize()
	return &status, nil
}

// AddPackage subscribes the member to a package. The returned record is nil
// when the service does not echo the package list.
func (r *MemberAPIRepository) AddPackage(ctx context.Context, memberID, packageID string) (*models.SubscriptionRecord, error) {
	env, err := r.client.do(ctx, call{
		operation: "members.add_package",
		method:    http.MethodPatch,
		path:      memberPath(memberID, "/subscriptions"),
		body:      dto.AddPackageRequest{PackageID: packageID},
	})
	if err != nil {
		return nil, err
	}
	var payload dto.SubscriptionPayload
	if err := decodeData(env, &payload); err != nil {
		return nil, err
	}
	if !payload.HasPackages() {
		return nil, nil
	}
	record := payload.Normalize(memberID)
	return &record, nil
}

// Update sends a partial profile update and returns the server copy.
func (r *MemberAPIRepository) Update(ctx context.Context, memberID string, changes models.PartialUpdate) (*models.Member, error) {
	env, err := r.client.do(ctx, call{operation: "members.update", method: http.MethodPatch, path: memberPath(memberID, ""), body: changes})
	if err != nil {
		return nil, err
	}
	return decodeMember(env)
}

// Create registers a new member and returns the committed record.
func (r *MemberAPIRepository) Create(ctx context.Context, draft models.MemberDraft) (*models.Member, error) {
	env, err := r.client.do(ctx, call{operation: "members.create", method: http.MethodPost, path: "/members", body: dto.NewCreateMemberPayload(draft)})
	if err != nil {
		return nil, err
	}
	return decodeMember(env)
}

// Delete removes a member.
func (r *MemberAPIRepository) Delete(ctx context.Context, memberID string) error {
	_, err := r.client.do(ctx, call{operation: "members.delete", method: http.MethodDelete, path: memberPath(memberID, "")})
	return err
}

func decodeMember(env *dto.Envelope) (*models.Member, error) {
	var payload dto.MemberPayload
	if err := decodeData(env, &payload); err != nil {
		return nil, err
	}
	member := payload.Normalize()
	if member.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrServer, "member service returned a member without id")
	}
	return &member, nil
}
