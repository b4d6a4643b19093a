// Package catalog manages the hardware component catalog shown in the
// admin console.
package catalog

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrComponentNotFound = errors.New("component not found")
)

// ComponentType is the hardware category of a component.
type ComponentType string

// Component types.
const (
	TypeCPU         ComponentType = "CPU"
	TypeGPU         ComponentType = "GPU"
	TypeRAM         ComponentType = "RAM"
	TypeMotherboard ComponentType = "Motherboard"
	TypeStorage     ComponentType = "Storage"
	TypePSU         ComponentType = "PSU"
	TypeCase        ComponentType = "Case"
	TypeCooler      ComponentType = "Cooler"
)

// Types lists every component type in display order.
var Types = []ComponentType{
	TypeCPU,
	TypeGPU,
	TypeRAM,
	TypeMotherboard,
	TypeStorage,
	TypePSU,
	TypeCase,
	TypeCooler,
}

// FilterAll selects every component type.
const FilterAll = "All"

// IsValid reports whether t is one of the known component types.
func (t ComponentType) IsValid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Component is a hardware component record.
type Component struct {
	ID          int64
	Name        string
	Type        ComponentType
	Price       float64
	ImageURL    string
	Description string
	Specs       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
