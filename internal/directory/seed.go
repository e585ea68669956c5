package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"wasteroutes/internal/model"
)

// seedFile is the on-disk fixture format. Field names mirror the wire
// names so the same records can be pasted between fixtures and API output.
type seedFile struct {
	Points []struct {
		ID              int64   `yaml:"id"`
		Name            string  `yaml:"name"`
		Address         string  `yaml:"address"`
		Latitude        float64 `yaml:"latitude"`
		Longitude       float64 `yaml:"longitude"`
		Status          string  `yaml:"status"`
		RegularDemandKg float64 `yaml:"regular_capacity"`
		RecycleDemandKg float64 `yaml:"recycle_capacity"`
	} `yaml:"points"`
	Vehicles []struct {
		ID                  int64   `yaml:"id"`
		RegistrationNumber  string  `yaml:"registration_number"`
		VehicleType         string  `yaml:"vehicle_type"`
		FuelType            string  `yaml:"fuel_type"`
		RegularCapacityKg   float64 `yaml:"regular_waste_capacity_kg"`
		RecycleCapacityKg   float64 `yaml:"recyclable_waste_capacity_kg"`
		DepreciationPerYear float64 `yaml:"depreciation_value_per_year"`
		Status              string  `yaml:"status"`
		CurrentDriverID     *int64  `yaml:"current_driver_id"`
	} `yaml:"vehicles"`
	Staff []struct {
		ID        int64  `yaml:"id"`
		FirstName string `yaml:"first_name"`
		LastName  string `yaml:"last_name"`
		Role      string `yaml:"role"`
		Status    string `yaml:"status"`
	} `yaml:"staff"`
}

// LoadSeed reads a YAML fixture and installs it into m. Records default to
// the active/available state so small fixtures stay small.
func LoadSeed(m *Memory, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse seed %s: %w", path, err)
	}

	points := make([]model.CollectionPoint, 0, len(f.Points))
	for _, p := range f.Points {
		if p.Status == "" {
			p.Status = model.PointActive
		}
		points = append(points, model.CollectionPoint{
			ID: p.ID, Name: p.Name, Address: p.Address,
			Latitude: p.Latitude, Longitude: p.Longitude, Status: p.Status,
			RegularDemandKg: p.RegularDemandKg, RecycleDemandKg: p.RecycleDemandKg,
		})
	}
	vehicles := make([]model.Vehicle, 0, len(f.Vehicles))
	for _, v := range f.Vehicles {
		if v.Status == "" {
			v.Status = model.VehicleAvailable
		}
		if v.FuelType == "" {
			v.FuelType = model.FuelDiesel
		}
		vehicles = append(vehicles, model.Vehicle{
			ID: v.ID, RegistrationNumber: v.RegistrationNumber, VehicleType: v.VehicleType,
			FuelType: v.FuelType, RegularCapacityKg: v.RegularCapacityKg,
			RecycleCapacityKg: v.RecycleCapacityKg, DepreciationPerYear: v.DepreciationPerYear,
			Status: v.Status, CurrentDriverID: v.CurrentDriverID,
		})
	}
	staff := make([]model.Staff, 0, len(f.Staff))
	for _, s := range f.Staff {
		if s.Status == "" {
			s.Status = model.StaffActive
		}
		if s.Role == "" {
			s.Role = model.RoleDriver
		}
		staff = append(staff, model.Staff{
			ID: s.ID, FirstName: s.FirstName, LastName: s.LastName,
			Role: s.Role, Status: s.Status,
		})
	}

	m.Replace(points, vehicles, staff)
	return nil
}
