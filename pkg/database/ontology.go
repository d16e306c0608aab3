package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// OntologyRepo persists versioned ontology snapshots, nodes, and aliases.
// Like skills, ontology data is global — it is published once and read
// by every tenant.
type OntologyRepo struct {
	pool *pgxpool.Pool
}

// PublishVersion inserts a new version and, if activate is true, makes
// it the sole active version.
func (r *OntologyRepo) PublishVersion(ctx context.Context, v *models.OntologyVersion, activate bool) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Transient("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if activate {
		if _, err := tx.Exec(ctx, `UPDATE ontology_versions SET is_active=false WHERE is_active`); err != nil {
			return apperr.Transient("deactivate ontology versions", err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ontology_versions (id, version, source, is_active, published_at)
		VALUES ($1,$2,$3,$4, now())`,
		v.ID, v.Version, v.Source, activate); err != nil {
		return apperr.Transient("insert ontology version", err)
	}

	return tx.Commit(ctx)
}

// ActiveVersion returns the currently active ontology version.
func (r *OntologyRepo) ActiveVersion(ctx context.Context) (*models.OntologyVersion, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, version, source, is_active, published_at FROM ontology_versions WHERE is_active LIMIT 1`)
	var v models.OntologyVersion
	err := row.Scan(&v.ID, &v.Version, &v.Source, &v.IsActive, &v.PublishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("no active ontology version")
	}
	if err != nil {
		return nil, apperr.Transient("get active ontology version", err)
	}
	return &v, nil
}

// AddNode inserts a canonical node under a version.
func (r *OntologyRepo) AddNode(ctx context.Context, n *models.OntologyNode) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ontology_nodes (id, version_id, canonical_name, code, category, tags)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		n.ID, n.VersionID, n.CanonicalName, n.Code, n.Category, n.Tags)
	if err != nil {
		return apperr.Transient("insert ontology node", err)
	}
	return nil
}

// AddAlias inserts a surface-form alias mapped to a node.
func (r *OntologyRepo) AddAlias(ctx context.Context, a *models.OntologyAlias) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ontology_aliases (id, node_id, value, locale, match_type, confidence)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.NodeID, a.Value, a.Locale, a.MatchType, a.Confidence)
	if err != nil {
		return apperr.Transient("insert ontology alias", err)
	}
	return nil
}

// NodesForVersion returns every node belonging to a version.
func (r *OntologyRepo) NodesForVersion(ctx context.Context, versionID string) ([]*models.OntologyNode, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, version_id, canonical_name, code, category, tags
		FROM ontology_nodes WHERE version_id=$1`, versionID)
	if err != nil {
		return nil, apperr.Transient("list ontology nodes", err)
	}
	defer rows.Close()

	var out []*models.OntologyNode
	for rows.Next() {
		var n models.OntologyNode
		if err := rows.Scan(&n.ID, &n.VersionID, &n.CanonicalName, &n.Code, &n.Category, &n.Tags); err != nil {
			return nil, apperr.Transient("scan ontology node", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// AliasesForNode returns every alias surface form for a node.
func (r *OntologyRepo) AliasesForNode(ctx context.Context, nodeID string) ([]*models.OntologyAlias, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, node_id, value, locale, match_type, confidence
		FROM ontology_aliases WHERE node_id=$1`, nodeID)
	if err != nil {
		return nil, apperr.Transient("list ontology aliases", err)
	}
	defer rows.Close()

	var out []*models.OntologyAlias
	for rows.Next() {
		var a models.OntologyAlias
		if err := rows.Scan(&a.ID, &a.NodeID, &a.Value, &a.Locale, &a.MatchType, &a.Confidence); err != nil {
			return nil, apperr.Transient("scan ontology alias", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
