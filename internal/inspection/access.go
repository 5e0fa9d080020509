package inspection

import "github.com/crucial707/remote-inspect/internal/models"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID int
	Role   string
}

// Unrestricted reports whether the actor may see every inspection. Inspectors
// only see the inspections they created.
func (a Actor) Unrestricted() bool {
	return a.Role == models.RoleAdmin
}

// CanAccess reports whether ins is visible to the actor.
func (a Actor) CanAccess(ins *models.Inspection) bool {
	return a.Unrestricted() || ins.CreatedBy == a.UserID
}
