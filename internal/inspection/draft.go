package inspection

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/crucial707/remote-inspect/internal/models"
	"github.com/go-playground/validator/v10"
)

// Draft is the client-supplied content of a new or edited inspection.
type Draft struct {
	PropertyType   models.PropertyType `json:"property_type"`
	Address        string              `json:"address" validate:"required,max=500"`
	Latitude       *float64            `json:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64            `json:"longitude" validate:"omitempty,longitude"`
	InspectorName  string              `json:"inspector_name" validate:"required,max=200"`
	InspectorPhone string              `json:"inspector_phone" validate:"required,max=50"`
	InspectorEmail string              `json:"inspector_email" validate:"required,email"`
	Comment        string              `json:"comment" validate:"max=2000"`
	// Draft keeps the inspection in Created instead of dispatching it immediately.
	Draft   bool          `json:"draft"`
	Objects []ObjectDraft `json:"objects"`
}

// ObjectDraft is a flat object descriptor; the owning inspection's property type
// decides which fields are meaningful.
type ObjectDraft struct {
	Name string `json:"name"`

	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
	VIN   string `json:"vin,omitempty"`
	Plate string `json:"plate,omitempty"`
	Year  int    `json:"year,omitempty"`
	Color string `json:"color,omitempty"`

	CadastralNumber string  `json:"cadastral_number,omitempty"`
	Area            float64 `json:"area,omitempty"`
	Floor           int     `json:"floor,omitempty"`

	SerialNumber string `json:"serial_number,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`

	Attributes map[string]string `json:"attributes,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (d *Draft) normalize() {
	d.PropertyType = models.PropertyType(strings.ToLower(strings.TrimSpace(string(d.PropertyType))))
	d.Address = strings.TrimSpace(d.Address)
	d.InspectorName = strings.TrimSpace(d.InspectorName)
	d.InspectorPhone = strings.TrimSpace(d.InspectorPhone)
	d.InspectorEmail = strings.TrimSpace(d.InspectorEmail)
	d.Comment = strings.TrimSpace(d.Comment)
	for i := range d.Objects {
		o := &d.Objects[i]
		o.Name = strings.TrimSpace(o.Name)
		o.Make = strings.TrimSpace(o.Make)
		o.Model = strings.TrimSpace(o.Model)
		o.VIN = strings.ToUpper(strings.TrimSpace(o.VIN))
		o.Plate = strings.ToUpper(strings.TrimSpace(o.Plate))
		o.CadastralNumber = strings.TrimSpace(o.CadastralNumber)
		o.SerialNumber = strings.TrimSpace(o.SerialNumber)
		o.Manufacturer = strings.TrimSpace(o.Manufacturer)
	}
}

// validateContent checks the inspection-level fields and returns every problem found.
func (s *Service) validateContent(d Draft) map[string]string {
	fields := make(map[string]string)
	if err := s.validate.Struct(d); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[fe.Field()] = fieldMessage(fe)
			}
		} else {
			fields["_"] = err.Error()
		}
	}
	if !d.PropertyType.Valid() {
		fields["property_type"] = fmt.Sprintf("must be one of %v", models.PropertyTypes)
	}
	return fields
}

// validateObjects applies the per-property-type object rules.
func (s *Service) validateObjects(pt models.PropertyType, objects []ObjectDraft, fields map[string]string) {
	switch {
	case len(objects) == 0:
		fields["objects"] = "at least one object is required"
		return
	case len(objects) > s.maxObjects:
		fields["objects"] = fmt.Sprintf("at most %d objects are allowed", s.maxObjects)
		return
	}
	if !pt.Valid() {
		return
	}
	for i, o := range objects {
		prefix := fmt.Sprintf("objects[%d].", i)
		for k, msg := range objectProblems(pt, o) {
			fields[prefix+k] = msg
		}
	}
}

func objectProblems(pt models.PropertyType, o ObjectDraft) map[string]string {
	p := make(map[string]string)
	switch pt {
	case models.PropertyVehicle:
		if o.Make == "" {
			p["make"] = "required"
		}
		if o.Model == "" {
			p["model"] = "required"
		}
		if o.VIN == "" && o.Plate == "" {
			p["vin"] = "vin or plate is required"
		}
		if o.VIN != "" && !validVIN(o.VIN) {
			p["vin"] = "must be 17 characters without I, O or Q"
		}
		if o.Year != 0 && (o.Year < 1886 || o.Year > 2100) {
			p["year"] = "out of range"
		}
	case models.PropertyRealEstate:
		if o.Name == "" {
			p["name"] = "required"
		}
		if o.CadastralNumber == "" {
			p["cadastral_number"] = "required"
		}
		if o.Area < 0 {
			p["area"] = "must not be negative"
		}
	case models.PropertyEquipment:
		if o.Name == "" {
			p["name"] = "required"
		}
		if o.SerialNumber == "" {
			p["serial_number"] = "required"
		}
	case models.PropertyOther:
		if o.Name == "" {
			p["name"] = "required"
		}
	}
	return p
}

func validVIN(vin string) bool {
	if len(vin) != 17 {
		return false
	}
	for _, r := range vin {
		switch {
		case r == 'I' || r == 'O' || r == 'Q':
			return false
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	case "latitude":
		return "must be between -90 and 90"
	case "longitude":
		return "must be between -180 and 180"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "invalid"
}

// toObject converts a validated draft into the tagged variant for pt.
func toObject(pt models.PropertyType, o ObjectDraft) models.InspectionObject {
	obj := models.InspectionObject{Name: o.Name}
	if len(o.Attributes) > 0 {
		obj.Extra = make(map[string]string, len(o.Attributes))
		for k, v := range o.Attributes {
			obj.Extra[k] = v
		}
	}
	switch pt {
	case models.PropertyVehicle:
		if obj.Name == "" {
			obj.Name = strings.TrimSpace(o.Make + " " + o.Model)
		}
		obj.Vehicle = &models.VehicleAttrs{
			Make: o.Make, Model: o.Model, VIN: o.VIN, Plate: o.Plate, Year: o.Year, Color: o.Color,
		}
	case models.PropertyRealEstate:
		obj.RealEstate = &models.RealEstateAttrs{CadastralNumber: o.CadastralNumber, Area: o.Area, Floor: o.Floor}
	case models.PropertyEquipment:
		obj.Equipment = &models.EquipmentAttrs{SerialNumber: o.SerialNumber, Manufacturer: o.Manufacturer}
	case models.PropertyOther:
	}
	return obj
}

// cloneObject copies an existing object for a duplicated inspection.
func cloneObject(o models.InspectionObject) models.InspectionObject {
	c := models.InspectionObject{Name: o.Name}
	if o.Vehicle != nil {
		v := *o.Vehicle
		c.Vehicle = &v
	}
	if o.RealEstate != nil {
		r := *o.RealEstate
		c.RealEstate = &r
	}
	if o.Equipment != nil {
		e := *o.Equipment
		c.Equipment = &e
	}
	if len(o.Extra) > 0 {
		c.Extra = make(map[string]string, len(o.Extra))
		for k, v := range o.Extra {
			c.Extra[k] = v
		}
	}
	return c
}
