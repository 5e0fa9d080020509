package models

import "time"

// Status is the lifecycle state of an inspection.
type Status string

const (
	StatusCreated     Status = "Created"
	StatusInProgress  Status = "InProgress"
	StatusUnderReview Status = "UnderReview"
	StatusReady       Status = "Ready"
	StatusRevision    Status = "Revision"
	StatusCancelled   Status = "Cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusCreated,
	StatusInProgress,
	StatusUnderReview,
	StatusReady,
	StatusRevision,
	StatusCancelled,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// PropertyType selects which attribute variant the objects of an inspection carry.
type PropertyType string

const (
	PropertyVehicle    PropertyType = "vehicle"
	PropertyRealEstate PropertyType = "real_estate"
	PropertyEquipment  PropertyType = "equipment"
	PropertyOther      PropertyType = "other"
)

var PropertyTypes = []PropertyType{PropertyVehicle, PropertyRealEstate, PropertyEquipment, PropertyOther}

func (p PropertyType) Valid() bool {
	for _, v := range PropertyTypes {
		if p == v {
			return true
		}
	}
	return false
}

// Inspection is one unit of remote inspection work.
type Inspection struct {
	ID             int          `json:"id"`
	InternalNumber string       `json:"internal_number"`
	Status         Status       `json:"status"`
	PropertyType   PropertyType `json:"property_type"`
	Address        string       `json:"address"`
	Latitude       *float64     `json:"latitude,omitempty"`
	Longitude      *float64     `json:"longitude,omitempty"`
	InspectorName  string       `json:"inspector_name"`
	InspectorPhone string       `json:"inspector_phone"`
	InspectorEmail string       `json:"inspector_email"`
	Comment        string       `json:"comment,omitempty"`
	CreatedBy      int          `json:"created_by"`
	Version        int          `json:"version"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// StatusHistoryEntry is one immutable row of the status audit trail.
// OldStatus is empty for the entry written at creation.
type StatusHistoryEntry struct {
	ID           int       `json:"id"`
	InspectionID int       `json:"inspection_id"`
	OldStatus    Status    `json:"old_status"`
	NewStatus    Status    `json:"new_status"`
	ChangedBy    int       `json:"changed_by"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
