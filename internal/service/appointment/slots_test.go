package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkingSlots(t *testing.T) {
	t.Run("default hours", func(t *testing.T) {
		slots := WorkingSlots("", "")
		assert.Len(t, slots, 8)
		assert.Equal(t, "09:00", slots[0])
		assert.Equal(t, "16:00", slots[len(slots)-1])
		assert.NotContains(t, slots, "17:00")
	})

	t.Run("custom hours", func(t *testing.T) {
		slots := WorkingSlots("08:00", "12:00")
		assert.Equal(t, []string{"08:00", "09:00", "10:00", "11:00"}, slots)
	})

	t.Run("inverted hours yield nothing", func(t *testing.T) {
		assert.Empty(t, WorkingSlots("17:00", "09:00"))
	})

	t.Run("equal hours yield nothing", func(t *testing.T) {
		assert.Empty(t, WorkingSlots("09:00", "09:00"))
	})

	t.Run("unparseable hours yield nothing", func(t *testing.T) {
		assert.Empty(t, WorkingSlots("morning", "evening"))
	})
}

func TestAvailableSlots(t *testing.T) {
	t.Run("booked times removed", func(t *testing.T) {
		free := AvailableSlots("09:00", "13:00", []string{"10:00", "12:00"})
		assert.Equal(t, []string{"09:00", "11:00"}, free)
	})

	t.Run("nothing booked", func(t *testing.T) {
		free := AvailableSlots("09:00", "12:00", nil)
		assert.Equal(t, []string{"09:00", "10:00", "11:00"}, free)
	})

	t.Run("unpadded booked time still collides", func(t *testing.T) {
		free := AvailableSlots("09:00", "11:00", []string{"9:00"})
		assert.Equal(t, []string{"10:00"}, free)
	})

	t.Run("fully booked", func(t *testing.T) {
		free := AvailableSlots("09:00", "11:00", []string{"09:00", "10:00"})
		assert.Empty(t, free)
	})
}

func TestSlotInWorkingHours(t *testing.T) {
	assert.True(t, SlotInWorkingHours("09:00", "17:00", "09:00"))
	assert.True(t, SlotInWorkingHours("09:00", "17:00", "16:00"))
	assert.False(t, SlotInWorkingHours("09:00", "17:00", "17:00"))
	assert.False(t, SlotInWorkingHours("09:00", "17:00", "08:00"))
	assert.False(t, SlotInWorkingHours("09:00", "17:00", "09:30"))
}
