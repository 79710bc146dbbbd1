package models

import (
	"context"
	"time"
)

// AuditAction constants represent console actions written to the audit trail.
const (
	AuditActionBulkAssign      = "BULK_ASSIGN"
	AuditActionRegister        = "MEMBERSHIP_REGISTER"
	AuditActionPremiumActivate = "PREMIUM_ACTIVATE"
	AuditActionPremiumRenew    = "PREMIUM_RENEW"
	AuditActionPackageAdd      = "PACKAGE_ADD"
	AuditActionMemberCreate    = "MEMBER_CREATE"
	AuditActionMemberUpdate    = "MEMBER_UPDATE"
	AuditActionMemberDelete    = "MEMBER_DELETE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actor_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Payload    []byte    `db:"payload" json:"payload,omitempty"`
	RequestID  string    `db:"request_id" json:"request_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type actorKey struct{}

// ContextWithActor stores the acting console user in ctx.
func ContextWithActor(ctx context.Context, actorID string) context.Context {
	if actorID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the acting console user, empty when unknown.
func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}
