package handler

import (
	"math"
	"net/http"
	"strconv"

	"propelize/internal/apperr"
	"propelize/internal/middleware"
	"propelize/internal/model"
	"propelize/internal/service"

	"github.com/gin-gonic/gin"
)

// VehicleHandler handles vehicle related requests
type VehicleHandler struct {
	service service.VehicleService
}

// NewVehicleHandler creates a new VehicleHandler
func NewVehicleHandler(s service.VehicleService) *VehicleHandler {
	return &VehicleHandler{service: s}
}

// parsePrice reads an optional non-negative price query parameter.
func parsePrice(c *gin.Context, name string, fallback float64) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || v < 0 {
		return 0, apperr.Validation(MsgInvalidRequest, name+" must be a non-negative number")
	}
	return v, nil
}

func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.service.ListVehicles(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	vehicle, err := h.service.GetVehicle(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (h *VehicleHandler) GetVehicleByRegistration(c *gin.Context) {
	vehicle, err := h.service.GetVehicleByRegistration(c.Request.Context(), c.Param("number"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (h *VehicleHandler) SearchByPrice(c *gin.Context) {
	minPrice, err := parsePrice(c, "min", 0)
	if err != nil {
		_ = c.Error(err)
		return
	}
	maxPrice, err := parsePrice(c, "max", math.MaxFloat64)
	if err != nil {
		_ = c.Error(err)
		return
	}

	vehicles, err := h.service.SearchByPrice(c.Request.Context(), model.PriceRange{Min: minPrice, Max: maxPrice})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req model.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}
	vehicle, err := h.service.CreateVehicle(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req model.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}
	vehicle, err := h.service.UpdateVehicle(c.Request.Context(), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.service.DeleteVehicle(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterVehicleRoutes registers vehicle routes. Every route requires an authenticated user.
func (h *VehicleHandler) RegisterVehicleRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	vehicles := rg.Group("/vehicles")
	vehicles.Use(authMW, middleware.AnyRole())
	{
		vehicles.GET("", h.ListVehicles)
		vehicles.GET("/registration/:number", h.GetVehicleByRegistration)
		vehicles.GET("/price/range", h.SearchByPrice)
		vehicles.GET("/:id", h.GetVehicle)
		vehicles.POST("", h.CreateVehicle)
		vehicles.PUT("/:id", h.UpdateVehicle)
		vehicles.DELETE("/:id", h.DeleteVehicle)
	}
}
