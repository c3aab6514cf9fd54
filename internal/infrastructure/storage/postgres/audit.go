package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"parishdesk/internal/core/id"
	"parishdesk/internal/core/security"
	"parishdesk/internal/domain/audit"
)

// Compile-time check that AuditService implements audit.Logger.
var _ audit.Logger = (*AuditService)(nil)

// CompressionAlgo specifies the compression algorithm used for change blobs.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditService persists append-only audit rows. Large change blobs are
// zstd-compressed before insert.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Log records an audit entry.
func (s *AuditService) Log(ctx context.Context, entry audit.Entry) error {
	// The actor from context wins over a blank field so impersonated
	// requests are attributed to the real user.
	if entry.ActorID == "" {
		entry.ActorID = security.GetActorID(ctx)
	}

	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	algo := CompressionNone
	changes := entry.Changes
	var compressed []byte
	if len(changes) > s.compressThreshold {
		compressed = s.encoder.EncodeAll(changes, nil)
		changes = nil
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO audit_log (
			id, organization_id, entity_type, entity_id, action,
			actor_id, target_id, changes, changes_compressed,
			compression_algo, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		entry.ID, nullableID(entry.OrganizationID), entry.EntityType, entry.EntityID,
		entry.Action, entry.ActorID, entry.TargetID,
		changes, compressed, algo, entry.Metadata, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// ListByEntity returns entries for one entity, newest first.
func (s *AuditService) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	sql := `
		SELECT id, organization_id, entity_type, entity_id, action,
		       actor_id, target_id, changes, changes_compressed,
		       compression_algo, metadata, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	querier := s.txManager.GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var orgID *id.ID
		var compressed []byte
		var algo CompressionAlgo
		if err := rows.Scan(
			&e.ID, &orgID, &e.EntityType, &e.EntityID, &e.Action,
			&e.ActorID, &e.TargetID, &e.Changes, &compressed,
			&algo, &e.Metadata, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if orgID != nil {
			e.OrganizationID = *orgID
		}
		if algo == CompressionZstd && len(compressed) > 0 {
			decoded, err := s.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit changes: %w", err)
			}
			e.Changes = json.RawMessage(decoded)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func nullableID(v id.ID) *id.ID {
	if id.IsNil(v) {
		return nil
	}
	return &v
}
