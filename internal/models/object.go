package models

import "time"

// InspectionObject is one physical item within an inspection. Exactly one of the
// variant pointers is set, chosen by the owning inspection's PropertyType
// (none for PropertyOther).
type InspectionObject struct {
	ID           int               `json:"id"`
	InspectionID int               `json:"inspection_id"`
	Name         string            `json:"name"`
	Vehicle      *VehicleAttrs     `json:"vehicle,omitempty"`
	RealEstate   *RealEstateAttrs  `json:"real_estate,omitempty"`
	Equipment    *EquipmentAttrs   `json:"equipment,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

type VehicleAttrs struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	VIN   string `json:"vin,omitempty"`
	Plate string `json:"plate,omitempty"`
	Year  int    `json:"year,omitempty"`
	Color string `json:"color,omitempty"`
}

type RealEstateAttrs struct {
	CadastralNumber string  `json:"cadastral_number"`
	Area            float64 `json:"area,omitempty"`
	Floor           int     `json:"floor,omitempty"`
}

type EquipmentAttrs struct {
	SerialNumber string `json:"serial_number"`
	Manufacturer string `json:"manufacturer,omitempty"`
}

// ObjectAttributes is the JSON document persisted in inspection_objects.attributes.
type ObjectAttributes struct {
	Vehicle    *VehicleAttrs     `json:"vehicle,omitempty"`
	RealEstate *RealEstateAttrs  `json:"real_estate,omitempty"`
	Equipment  *EquipmentAttrs   `json:"equipment,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Attributes returns the persisted attribute document for o.
func (o InspectionObject) Attributes() ObjectAttributes {
	return ObjectAttributes{Vehicle: o.Vehicle, RealEstate: o.RealEstate, Equipment: o.Equipment, Extra: o.Extra}
}

// SetAttributes copies a persisted attribute document onto o.
func (o *InspectionObject) SetAttributes(a ObjectAttributes) {
	o.Vehicle = a.Vehicle
	o.RealEstate = a.RealEstate
	o.Equipment = a.Equipment
	o.Extra = a.Extra
}
