package service

import (
	"context"
	"fmt"
	"strings"

	"propelize/internal/apperr"
	"propelize/internal/model"
	"propelize/internal/repository"
)

const MsgVehicleNotFound = "vehicle not found"

// VehicleService defines operations for vehicles
type VehicleService interface {
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
	GetVehicle(ctx context.Context, id int) (*model.Vehicle, error)
	GetVehicleByRegistration(ctx context.Context, registrationNumber string) (*model.Vehicle, error)
	SearchByPrice(ctx context.Context, priceRange model.PriceRange) ([]model.Vehicle, error)
	CreateVehicle(ctx context.Context, req model.VehicleRequest) (*model.Vehicle, error)
	UpdateVehicle(ctx context.Context, id int, req model.VehicleRequest) (*model.Vehicle, error)
	DeleteVehicle(ctx context.Context, id int) error
}

type vehicleService struct {
	repo repository.VehicleRepository
}

// NewVehicleService creates a new VehicleService
func NewVehicleService(repo repository.VehicleRepository) VehicleService {
	return &vehicleService{repo: repo}
}

func vehicleFromRequest(req model.VehicleRequest) *model.Vehicle {
	return &model.Vehicle{
		RegistrationNumber: strings.ToUpper(strings.TrimSpace(req.RegistrationNumber)),
		Make:               strings.TrimSpace(req.Make),
		Model:              strings.TrimSpace(req.Model),
		Year:               req.Year,
		RentPrice:          req.RentPrice,
	}
}

func (s *vehicleService) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	vehicles, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return vehicles, nil
}

func (s *vehicleService) GetVehicle(ctx context.Context, id int) (*model.Vehicle, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	if v == nil {
		return nil, apperr.NotFound(MsgVehicleNotFound)
	}
	return v, nil
}

func (s *vehicleService) GetVehicleByRegistration(ctx context.Context, registrationNumber string) (*model.Vehicle, error) {
	v, err := s.repo.FindByRegistration(ctx, strings.ToUpper(strings.TrimSpace(registrationNumber)))
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicle by registration: %w", err)
	}
	if v == nil {
		return nil, apperr.NotFound(MsgVehicleNotFound)
	}
	return v, nil
}

func (s *vehicleService) SearchByPrice(ctx context.Context, pr model.PriceRange) ([]model.Vehicle, error) {
	if pr.Min > pr.Max {
		return nil, apperr.Validation("invalid request data", "min must not exceed max")
	}
	vehicles, err := s.repo.FindByPriceRange(ctx, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to search vehicles by price: %w", err)
	}
	return vehicles, nil
}

func (s *vehicleService) CreateVehicle(ctx context.Context, req model.VehicleRequest) (*model.Vehicle, error) {
	v := vehicleFromRequest(req)
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *vehicleService) UpdateVehicle(ctx context.Context, id int, req model.VehicleRequest) (*model.Vehicle, error) {
	v := vehicleFromRequest(req)
	v.ID = id
	ok, err := s.repo.Update(ctx, v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound(MsgVehicleNotFound)
	}
	return v, nil
}

func (s *vehicleService) DeleteVehicle(ctx context.Context, id int) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	if !deleted {
		return apperr.NotFound(MsgVehicleNotFound)
	}
	return nil
}
