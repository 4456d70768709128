package model

import "time"

// Vehicle represents a rentable vehicle
type Vehicle struct {
	ID                 int       `json:"id"`
	RegistrationNumber string    `json:"registrationNumber"`
	Make               string    `json:"make"`
	Model              string    `json:"model"`
	Year               int       `json:"year"`
	RentPrice          float64   `json:"rentPrice"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// VehicleRequest is used for both creating and replacing a vehicle
type VehicleRequest struct {
	RegistrationNumber string  `json:"registrationNumber" binding:"required,regnum"`
	Make               string  `json:"make" binding:"required,min=2,max=50"`
	Model              string  `json:"model" binding:"required,min=2,max=50"`
	Year               int     `json:"year" binding:"required,min=1900,maxyear"`
	RentPrice          float64 `json:"rentPrice" binding:"required,gt=0,lte=99999999.99,price2"`
}

// PriceRange bounds a rent price search; both ends are inclusive.
type PriceRange struct {
	Min float64
	Max float64
}
