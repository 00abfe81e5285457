package appointment

import (
	"github.com/carelink/portal-api/internal/model"
	apperrors "github.com/carelink/portal-api/pkg/errors"
)

// transitions is the complete lifecycle. Anything absent here is rejected,
// which keeps cancelled and completed terminal.
var transitions = map[model.AppointmentStatus]map[model.AppointmentStatus][]model.Role{
	model.AppointmentStatusPending: {
		model.AppointmentStatusConfirmed: {model.RoleDoctor},
		model.AppointmentStatusCancelled: {model.RoleDoctor, model.RolePatient},
	},
	model.AppointmentStatusConfirmed: {
		model.AppointmentStatusCompleted: {model.RoleDoctor},
		model.AppointmentStatusCancelled: {model.RoleDoctor, model.RolePatient},
	},
}

// CanTransition reports whether the actor's role may move an appointment
// from one status to another.
func CanTransition(from, to model.AppointmentStatus, actor model.Role) bool {
	roles, ok := transitions[from][to]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == actor {
			return true
		}
	}
	return false
}

// checkTransition returns the error surfaced to callers when a transition
// is not permitted, distinguishing a bad state from a bad actor.
func checkTransition(from, to model.AppointmentStatus, actor model.Role) error {
	if _, ok := transitions[from][to]; !ok {
		return apperrors.InvalidTransition(string(from), string(to))
	}
	if !CanTransition(from, to, actor) {
		return apperrors.Forbidden("role not permitted to perform this transition")
	}
	return nil
}
