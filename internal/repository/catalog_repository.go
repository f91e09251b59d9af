package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gac-api/internal/models"
)

// CatalogRepository provides access to the dimension, activity and proof
// mode reference tables.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListDimensions returns every dimension ordered by name.
func (r *CatalogRepository) ListDimensions(ctx context.Context) ([]models.Dimension, error) {
	const query = `SELECT id, name, hour_cap FROM dimensions ORDER BY name ASC`
	var dims []models.Dimension
	if err := r.db.SelectContext(ctx, &dims, query); err != nil {
		return nil, fmt.Errorf("list dimensions: %w", err)
	}
	return dims, nil
}

// GetDimension returns one dimension row.
func (r *CatalogRepository) GetDimension(ctx context.Context, id string) (*models.Dimension, error) {
	const query = `SELECT id, name, hour_cap FROM dimensions WHERE id = $1`
	var dim models.Dimension
	if err := r.db.GetContext(ctx, &dim, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get dimension: %w", err)
	}
	return &dim, nil
}

// CreateDimension inserts a dimension.
func (r *CatalogRepository) CreateDimension(ctx context.Context, dim *models.Dimension) error {
	if dim.ID == "" {
		dim.ID = uuid.NewString()
	}
	const query = `INSERT INTO dimensions (id, name, hour_cap) VALUES (:id, :name, :hour_cap)`
	if _, err := r.db.NamedExecContext(ctx, query, dim); err != nil {
		return fmt.Errorf("create dimension: %w", err)
	}
	return nil
}

// ListActivities returns activities, optionally restricted to one dimension.
func (r *CatalogRepository) ListActivities(ctx context.Context, dimensionID string) ([]models.Activity, error) {
	query := `SELECT id, name, dimension_id, hour_cap FROM activities`
	var args []interface{}
	if dimensionID != "" {
		query += ` WHERE dimension_id = $1`
		args = append(args, dimensionID)
	}
	query += ` ORDER BY name ASC`
	var acts []models.Activity
	if err := r.db.SelectContext(ctx, &acts, query, args...); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return acts, nil
}

// GetActivity returns one activity row.
func (r *CatalogRepository) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	const query = `SELECT id, name, dimension_id, hour_cap FROM activities WHERE id = $1`
	var act models.Activity
	if err := r.db.GetContext(ctx, &act, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return &act, nil
}

// CreateActivity inserts an activity.
func (r *CatalogRepository) CreateActivity(ctx context.Context, act *models.Activity) error {
	if act.ID == "" {
		act.ID = uuid.NewString()
	}
	const query = `INSERT INTO activities (id, name, dimension_id, hour_cap) VALUES (:id, :name, :dimension_id, :hour_cap)`
	if _, err := r.db.NamedExecContext(ctx, query, act); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// ListProofModes returns every proof mode ordered by name.
func (r *CatalogRepository) ListProofModes(ctx context.Context) ([]models.ProofMode, error) {
	const query = `SELECT id, name FROM proof_modes ORDER BY name ASC`
	var modes []models.ProofMode
	if err := r.db.SelectContext(ctx, &modes, query); err != nil {
		return nil, fmt.Errorf("list proof modes: %w", err)
	}
	return modes, nil
}

// GetProofMode returns one proof mode row.
func (r *CatalogRepository) GetProofMode(ctx context.Context, id string) (*models.ProofMode, error) {
	const query = `SELECT id, name FROM proof_modes WHERE id = $1`
	var mode models.ProofMode
	if err := r.db.GetContext(ctx, &mode, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get proof mode: %w", err)
	}
	return &mode, nil
}
