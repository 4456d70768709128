package repository

import (
	"context"
	"errors"
	"fmt"

	"propelize/internal/apperr"
	"propelize/internal/model"

	"github.com/jackc/pgx/v5"
)

// VehicleRepository defines operations for vehicle data
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	FindByID(ctx context.Context, id int) (*model.Vehicle, error)
	FindByRegistration(ctx context.Context, registrationNumber string) (*model.Vehicle, error)
	FindByPriceRange(ctx context.Context, priceRange model.PriceRange) ([]model.Vehicle, error)
	FindAll(ctx context.Context) ([]model.Vehicle, error)
	Update(ctx context.Context, vehicle *model.Vehicle) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
}

const vehicleColumns = `id, registration_number, make, model, year, rent_price, created_at, updated_at`

type vehicleRepository struct {
	db DBTX
}

// NewVehicleRepository creates a new VehicleRepository
func NewVehicleRepository(db DBTX) VehicleRepository {
	return &vehicleRepository{db: db}
}

func scanVehicle(row pgx.Row, v *model.Vehicle) error {
	return row.Scan(&v.ID, &v.RegistrationNumber, &v.Make, &v.Model, &v.Year, &v.RentPrice, &v.CreatedAt, &v.UpdatedAt)
}

// Create inserts a new vehicle
func (r *vehicleRepository) Create(ctx context.Context, v *model.Vehicle) error {
	sql := `INSERT INTO vehicles (registration_number, make, model, year, rent_price)
            VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, v.RegistrationNumber, v.Make, v.Model, v.Year, v.RentPrice).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", apperr.MapDBError(err))
	}
	return nil
}

// FindByID retrieves a vehicle by its ID
func (r *vehicleRepository) FindByID(ctx context.Context, id int) (*model.Vehicle, error) {
	v := &model.Vehicle{}
	sql := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	if err := scanVehicle(r.db.QueryRow(ctx, sql, id), v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find vehicle by ID: %w", err)
	}
	return v, nil
}

// FindByRegistration retrieves a vehicle by its registration number
func (r *vehicleRepository) FindByRegistration(ctx context.Context, registrationNumber string) (*model.Vehicle, error) {
	v := &model.Vehicle{}
	sql := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE registration_number = $1`
	if err := scanVehicle(r.db.QueryRow(ctx, sql, registrationNumber), v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find vehicle by registration: %w", err)
	}
	return v, nil
}

// FindByPriceRange lists vehicles whose rent price lies within the inclusive range
func (r *vehicleRepository) FindByPriceRange(ctx context.Context, pr model.PriceRange) ([]model.Vehicle, error) {
	sql := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE rent_price BETWEEN $1 AND $2 ORDER BY rent_price, id`
	return r.list(ctx, sql, pr.Min, pr.Max)
}

// FindAll lists every vehicle ordered by ID
func (r *vehicleRepository) FindAll(ctx context.Context) ([]model.Vehicle, error) {
	return r.list(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY id`)
}

func (r *vehicleRepository) list(ctx context.Context, sql string, args ...any) ([]model.Vehicle, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []model.Vehicle{}
	for rows.Next() {
		var v model.Vehicle
		if err := scanVehicle(rows, &v); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle row: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vehicle rows: %w", err)
	}
	return vehicles, nil
}

// Update replaces every mutable field of the vehicle. It reports false when no row matched.
func (r *vehicleRepository) Update(ctx context.Context, v *model.Vehicle) (bool, error) {
	sql := `UPDATE vehicles
            SET registration_number = $1, make = $2, model = $3, year = $4, rent_price = $5, updated_at = NOW()
            WHERE id = $6 RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, v.RegistrationNumber, v.Make, v.Model, v.Year, v.RentPrice, v.ID).
		Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update vehicle: %w", apperr.MapDBError(err))
	}
	return true, nil
}

// Delete removes a vehicle. It reports false when no row matched.
func (r *vehicleRepository) Delete(ctx context.Context, id int) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete vehicle: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}
