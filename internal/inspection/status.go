package inspection

import "github.com/crucial707/remote-inspect/internal/models"

// transitions is the allowed-next-state table. Terminal states map to nothing.
var transitions = map[models.Status][]models.Status{
	models.StatusCreated:     {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress:  {models.StatusUnderReview, models.StatusCancelled},
	models.StatusUnderReview: {models.StatusReady, models.StatusRevision, models.StatusCancelled},
	models.StatusRevision:    {models.StatusInProgress, models.StatusUnderReview, models.StatusCancelled},
	models.StatusReady:       nil,
	models.StatusCancelled:   nil,
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to models.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s models.Status) []models.Status {
	next := transitions[s]
	out := make([]models.Status, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.Status) bool {
	return len(transitions[s]) == 0
}

// StatusInfo describes one status for clients rendering a status picker.
type StatusInfo struct {
	Status   models.Status   `json:"status"`
	Terminal bool            `json:"terminal"`
	Next     []models.Status `json:"next"`
}

// StatusTable returns the full transition table in lifecycle order.
func StatusTable() []StatusInfo {
	out := make([]StatusInfo, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		out = append(out, StatusInfo{Status: s, Terminal: IsTerminal(s), Next: NextStatuses(s)})
	}
	return out
}
