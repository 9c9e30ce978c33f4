package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nexcharge/apiserver/types"
)

const chargerColumns = `id, name, latitude, longitude, status, connector_type, power_output, created_by, created_at, updated_at`

// ChargerRepository handles persistence for chargers.
type ChargerRepository struct {
	db *sql.DB
}

func NewChargerRepository(db *sql.DB) *ChargerRepository {
	return &ChargerRepository{db: db}
}

// List returns chargers matching filter ordered by id.
func (r *ChargerRepository) List(ctx context.Context, filter types.ChargerFilter) ([]types.Charger, error) {
	query := `
		SELECT ` + chargerColumns + `
		FROM chargers
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR name ILIKE $2 ESCAPE '\' OR connector_type ILIKE $2 ESCAPE '\')
		ORDER BY id`

	pattern := ""
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern = "%" + escapeLike(q) + "%"
	}

	rows, err := r.db.QueryContext(ctx, query, string(filter.Status), pattern)
	if err != nil {
		return nil, fmt.Errorf("list chargers: %w", err)
	}
	defer rows.Close()

	chargers := make([]types.Charger, 0)
	for rows.Next() {
		charger, err := scanCharger(rows)
		if err != nil {
			return nil, err
		}
		chargers = append(chargers, charger)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chargers, nil
}

func (r *ChargerRepository) Get(ctx context.Context, id int) (types.Charger, error) {
	query := `SELECT ` + chargerColumns + ` FROM chargers WHERE id = $1`
	charger, err := scanCharger(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Charger{}, ErrNotFound
		}
		return types.Charger{}, err
	}
	return charger, nil
}

func (r *ChargerRepository) Create(ctx context.Context, charger types.Charger) (types.Charger, error) {
	now := time.Now().UTC()
	charger.CreatedAt = now
	charger.UpdatedAt = now

	const query = `
		INSERT INTO chargers (name, latitude, longitude, status, connector_type, power_output, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		charger.Name,
		charger.Location.Latitude,
		charger.Location.Longitude,
		string(charger.Status),
		charger.ConnectorType,
		charger.PowerOutput,
		charger.CreatedBy,
		charger.CreatedAt,
		charger.UpdatedAt,
	).Scan(&charger.ID); err != nil {
		return types.Charger{}, fmt.Errorf("insert charger: %w", err)
	}
	return charger, nil
}

// Update applies the change and returns the stored charger.
func (r *ChargerRepository) Update(ctx context.Context, update types.ChargerUpdate) (types.Charger, error) {
	query := `
		UPDATE chargers
		SET name = $1,
			latitude = $2,
			longitude = $3,
			status = $4,
			connector_type = COALESCE($5, connector_type),
			power_output = COALESCE($6, power_output),
			updated_at = $7
		WHERE id = $8
		RETURNING ` + chargerColumns
	charger, err := scanCharger(r.db.QueryRowContext(
		ctx,
		query,
		update.Name,
		update.Location.Latitude,
		update.Location.Longitude,
		string(update.Status),
		update.ConnectorType,
		update.PowerOutput,
		time.Now().UTC(),
		update.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Charger{}, ErrNotFound
		}
		return types.Charger{}, fmt.Errorf("update charger: %w", err)
	}
	return charger, nil
}

func (r *ChargerRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM chargers WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharger(row rowScanner) (types.Charger, error) {
	var (
		charger   types.Charger
		status    string
		createdBy sql.NullInt64
	)
	if err := row.Scan(
		&charger.ID,
		&charger.Name,
		&charger.Location.Latitude,
		&charger.Location.Longitude,
		&status,
		&charger.ConnectorType,
		&charger.PowerOutput,
		&createdBy,
		&charger.CreatedAt,
		&charger.UpdatedAt,
	); err != nil {
		return types.Charger{}, err
	}
	charger.Status = types.ChargerStatus(status)
	if createdBy.Valid {
		id := int(createdBy.Int64)
		charger.CreatedBy = &id
	}
	return charger, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
