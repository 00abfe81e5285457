package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carelink/portal-api/internal/model"
	apperrors "github.com/carelink/portal-api/pkg/errors"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  model.AppointmentStatus
		to    model.AppointmentStatus
		actor model.Role
		want  bool
	}{
		{"doctor confirms pending", model.AppointmentStatusPending, model.AppointmentStatusConfirmed, model.RoleDoctor, true},
		{"patient cannot confirm", model.AppointmentStatusPending, model.AppointmentStatusConfirmed, model.RolePatient, false},
		{"patient cancels pending", model.AppointmentStatusPending, model.AppointmentStatusCancelled, model.RolePatient, true},
		{"doctor cancels pending", model.AppointmentStatusPending, model.AppointmentStatusCancelled, model.RoleDoctor, true},
		{"patient cancels confirmed", model.AppointmentStatusConfirmed, model.AppointmentStatusCancelled, model.RolePatient, true},
		{"doctor completes confirmed", model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted, model.RoleDoctor, true},
		{"patient cannot complete", model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted, model.RolePatient, false},
		{"pending cannot complete", model.AppointmentStatusPending, model.AppointmentStatusCompleted, model.RoleDoctor, false},
		{"cancelled is terminal", model.AppointmentStatusCancelled, model.AppointmentStatusConfirmed, model.RoleDoctor, false},
		{"completed is terminal", model.AppointmentStatusCompleted, model.AppointmentStatusCancelled, model.RoleDoctor, false},
		{"no self transition", model.AppointmentStatusConfirmed, model.AppointmentStatusConfirmed, model.RoleDoctor, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to, tt.actor))
		})
	}
}

func TestCheckTransition(t *testing.T) {
	t.Run("impossible transition reports state error", func(t *testing.T) {
		err := checkTransition(model.AppointmentStatusCompleted, model.AppointmentStatusCancelled, model.RoleDoctor)
		appErr, ok := apperrors.As(err)
		assert.True(t, ok)
		assert.Equal(t, apperrors.ErrInvalidTransition, appErr.Code)
	})

	t.Run("wrong actor reports forbidden", func(t *testing.T) {
		err := checkTransition(model.AppointmentStatusPending, model.AppointmentStatusConfirmed, model.RolePatient)
		appErr, ok := apperrors.As(err)
		assert.True(t, ok)
		assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
	})

	t.Run("allowed transition passes", func(t *testing.T) {
		assert.NoError(t, checkTransition(model.AppointmentStatusPending, model.AppointmentStatusConfirmed, model.RoleDoctor))
	})
}
