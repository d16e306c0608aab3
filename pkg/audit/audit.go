// Package audit implements a tamper-evident, hash-chained append-only
// log: every entry's hash folds in the previous entry's hash, so
// replaying a tenant's chain in createdAt order must recompute every
// hash exactly or tampering is proven.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// Store appends to and verifies the per-tenant audit chain.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing connection pool (normally database.Store.Pool).
func NewStore(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// RecordInput is the caller-supplied shape of one audit entry.
type RecordInput struct {
	TenantID   string
	UserID     *string
	ActorRole  *string
	Action     string
	EntityType string
	EntityID   *string
	Payload    models.VersionedJSON
	ResultCode string
	IP         *string
	UA         *string
}

// chainedFields is the exact, field-ordered structure hashed at each
// step — field order must never change, since the invariant depends on
// recomputing byte-identical JSON on replay.
type chainedFields struct {
	PrevHash   *string        `json:"prevHash"`
	TenantID   string         `json:"tenantId"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   *string        `json:"entityId"`
	Payload    map[string]any `json:"payload"`
	ResultCode string         `json:"resultCode"`
	Timestamp  string         `json:"timestamp"`
}

func computeHash(prevHash *string, in RecordInput, now time.Time) (string, error) {
	payload := in.Payload.Data
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(chainedFields{
		PrevHash:   prevHash,
		TenantID:   in.TenantID,
		Action:     in.Action,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		Payload:    payload,
		ResultCode: in.ResultCode,
		Timestamp:  now.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Record appends one entry to tenantId's chain. The SELECT of the
// latest entry and the INSERT run inside one serializable-equivalent
// transaction guarded by a tenant-scoped Postgres advisory lock, so
// concurrent Record calls for the same tenant never fork the chain.
func (s *Store) Record(ctx context.Context, in RecordInput) (*models.AuditLog, error) {
	if in.Payload.Data == nil {
		in.Payload = models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{}}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Transient("begin audit transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, in.TenantID); err != nil {
		return nil, apperr.Transient("acquire tenant audit lock", err)
	}

	var prevHash *string
	row := tx.QueryRow(ctx, `
		SELECT hash FROM audit_logs WHERE tenant_id=$1 ORDER BY created_at DESC LIMIT 1`, in.TenantID)
	if err := row.Scan(&prevHash); err != nil && err != pgx.ErrNoRows {
		return nil, apperr.Transient("select latest audit entry", err)
	}

	// Truncated to microseconds: Postgres TIMESTAMPTZ has no finer
	// resolution, so a nanosecond-precision timestamp would hash
	// differently from the value VerifyChain reads back after storage.
	now := time.Now().Truncate(time.Microsecond)
	hash, err := computeHash(prevHash, in, now)
	if err != nil {
		return nil, apperr.Fatal("compute audit hash", err)
	}

	payloadRaw, err := in.Payload.MarshalForStorage()
	if err != nil {
		return nil, apperr.Fatal("encode audit payload", err)
	}

	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		TenantID:   in.TenantID,
		CreatedAt:  now,
		UserID:     in.UserID,
		ActorRole:  in.ActorRole,
		Action:     in.Action,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		Payload:    in.Payload,
		ResultCode: in.ResultCode,
		IP:         in.IP,
		UA:         in.UA,
		PrevHash:   prevHash,
		Hash:       hash,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO audit_logs (id, tenant_id, created_at, user_id, actor_role, action, entity_type,
		                         entity_id, payload, result_code, ip, ua, prev_hash, hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		entry.ID, entry.TenantID, entry.CreatedAt, entry.UserID, entry.ActorRole, entry.Action,
		entry.EntityType, entry.EntityID, payloadRaw, entry.ResultCode, entry.IP, entry.UA,
		entry.PrevHash, entry.Hash)
	if err != nil {
		return nil, apperr.Transient("insert audit entry", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Transient("commit audit entry", err)
	}
	return entry, nil
}

// ListForTenant returns a tenant's chain in createdAt order, the
// sequence VerifyChain and replay-based tooling expect.
func (s *Store) ListForTenant(ctx context.Context, tenantID string, limit int) ([]models.AuditLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, created_at, user_id, actor_role, action, entity_type, entity_id,
		       payload, result_code, ip, ua, prev_hash, hash
		FROM audit_logs WHERE tenant_id=$1 ORDER BY created_at ASC LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, apperr.Transient("list audit entries", err)
	}
	defer rows.Close()

	var out []models.AuditLog
	for rows.Next() {
		var e models.AuditLog
		var payloadRaw []byte
		if err := rows.Scan(&e.ID, &e.TenantID, &e.CreatedAt, &e.UserID, &e.ActorRole, &e.Action,
			&e.EntityType, &e.EntityID, &payloadRaw, &e.ResultCode, &e.IP, &e.UA, &e.PrevHash, &e.Hash); err != nil {
			return nil, apperr.Transient("scan audit entry", err)
		}
		payload, err := models.ParseVersionedJSON(payloadRaw)
		if err != nil {
			return nil, apperr.Fatal("decode audit payload", err)
		}
		e.Payload = payload
		out = append(out, e)
	}
	return out, rows.Err()
}

// VerifyChain replays a tenant's entries in createdAt order and
// recomputes each hash, reporting the first entry (if any) whose stored
// hash does not match.
func VerifyChain(entries []models.AuditLog) (ok bool, brokenAt int) {
	var prevHash *string
	for i, e := range entries {
		in := RecordInput{
			TenantID:   e.TenantID,
			ActorRole:  e.ActorRole,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Payload:    e.Payload,
			ResultCode: e.ResultCode,
		}
		recomputed, err := computeHash(prevHash, in, e.CreatedAt)
		if err != nil || recomputed != e.Hash {
			return false, i
		}
		hash := e.Hash
		prevHash = &hash
	}
	return true, -1
}
