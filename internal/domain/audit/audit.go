// Package audit provides the append-only audit trail contract.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"parishdesk/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate           Action = "create"
	ActionUpdate           Action = "update"
	ActionDelete           Action = "delete"
	ActionImpersonateStart Action = "impersonate_start"
	ActionImpersonateStop  Action = "impersonate_stop"
	ActionSignIn           Action = "sign_in"
	ActionSignOut          Action = "sign_out"
)

// Entry represents a single audit log row.
type Entry struct {
	ID             id.ID           `db:"id"`
	OrganizationID id.ID           `db:"organization_id"`
	EntityType     string          `db:"entity_type"`
	EntityID       string          `db:"entity_id"`
	Action         Action          `db:"action"`
	ActorID        string          `db:"actor_id"`
	TargetID       string          `db:"target_id"`
	Changes        json.RawMessage `db:"changes"`
	Metadata       json.RawMessage `db:"metadata"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Logger records audit entries. The postgres implementation compresses
// large change blobs; tests use an in-memory fake.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// Nop is a Logger that discards entries. For tests and tooling.
type Nop struct{}

func (Nop) Log(ctx context.Context, entry Entry) error { return nil }
