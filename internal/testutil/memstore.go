// Package testutil provides in-memory stores that honor the same uniqueness
// rules as the PostgreSQL schema, for service and HTTP tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"propelize/internal/apperr"
	"propelize/internal/model"
	"propelize/internal/repository"
)

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[int]model.User
	// Err, when set, is returned by every method.
	Err error
}

var _ repository.UserRepository = (*UserStore)(nil)

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{nextID: 1, users: map[int]model.User{}}
}

func (s *UserStore) emailTaken(email string, exceptID int) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (s *UserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.emailTaken(user.Email, 0) {
		return apperr.Conflict("a user with this email already exists")
	}
	now := time.Now()
	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.nextID++
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (s *UserStore) FindByID(_ context.Context, id int) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	u.PasswordHash = ""
	return &u, nil
}

func (s *UserStore) FindAll(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		u.PasswordHash = ""
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *UserStore) Update(_ context.Context, id int, fields model.UserUpdate) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	if fields.Email != nil && s.emailTaken(*fields.Email, id) {
		return nil, apperr.Conflict("a user with this email already exists")
	}
	if fields.Name != nil {
		u.Name = *fields.Name
	}
	if fields.Email != nil {
		u.Email = *fields.Email
	}
	if fields.PasswordHash != nil {
		u.PasswordHash = *fields.PasswordHash
	}
	if fields.Role != nil {
		u.Role = *fields.Role
	}
	u.UpdatedAt = time.Now()
	s.users[id] = u
	u.PasswordHash = ""
	return &u, nil
}

func (s *UserStore) Delete(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	delete(s.users, id)
	return true, nil
}

// PasswordHash returns the stored digest for id, for assertions.
func (s *UserStore) PasswordHash(id int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].PasswordHash
}

// VehicleStore is an in-memory repository.VehicleRepository.
type VehicleStore struct {
	mu       sync.Mutex
	nextID   int
	vehicles map[int]model.Vehicle
}

var _ repository.VehicleRepository = (*VehicleStore)(nil)

// NewVehicleStore creates an empty VehicleStore.
func NewVehicleStore() *VehicleStore {
	return &VehicleStore{nextID: 1, vehicles: map[int]model.Vehicle{}}
}

func (s *VehicleStore) registrationTaken(reg string, exceptID int) bool {
	for id, v := range s.vehicles {
		if id != exceptID && v.RegistrationNumber == reg {
			return true
		}
	}
	return false
}

func (s *VehicleStore) Create(_ context.Context, v *model.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registrationTaken(v.RegistrationNumber, 0) {
		return apperr.Conflict("a vehicle with this registration number already exists")
	}
	now := time.Now()
	v.ID = s.nextID
	v.CreatedAt = now
	v.UpdatedAt = now
	s.nextID++
	s.vehicles[v.ID] = *v
	return nil
}

func (s *VehicleStore) FindByID(_ context.Context, id int) (*model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s *VehicleStore) FindByRegistration(_ context.Context, reg string) (*model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vehicles {
		if v.RegistrationNumber == reg {
			found := v
			return &found, nil
		}
	}
	return nil, nil
}

func (s *VehicleStore) FindByPriceRange(_ context.Context, pr model.PriceRange) ([]model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicles := []model.Vehicle{}
	for _, v := range s.vehicles {
		if v.RentPrice >= pr.Min && v.RentPrice <= pr.Max {
			vehicles = append(vehicles, v)
		}
	}
	sort.Slice(vehicles, func(i, j int) bool {
		if vehicles[i].RentPrice != vehicles[j].RentPrice {
			return vehicles[i].RentPrice < vehicles[j].RentPrice
		}
		return vehicles[i].ID < vehicles[j].ID
	})
	return vehicles, nil
}

func (s *VehicleStore) FindAll(_ context.Context) ([]model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicles := make([]model.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		vehicles = append(vehicles, v)
	}
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].ID < vehicles[j].ID })
	return vehicles, nil
}

func (s *VehicleStore) Update(_ context.Context, v *model.Vehicle) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.vehicles[v.ID]
	if !ok {
		return false, nil
	}
	if s.registrationTaken(v.RegistrationNumber, v.ID) {
		return false, apperr.Conflict("a vehicle with this registration number already exists")
	}
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now()
	s.vehicles[v.ID] = *v
	return true, nil
}

func (s *VehicleStore) Delete(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[id]; !ok {
		return false, nil
	}
	delete(s.vehicles, id)
	return true, nil
}
