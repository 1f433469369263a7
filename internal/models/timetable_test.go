package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeekdayIndex(t *testing.T) {
	assert.Equal(t, 0, WeekdayIndex(Monday))
	assert.Equal(t, 4, WeekdayIndex(Friday))
	assert.Equal(t, -1, WeekdayIndex("Sunday"))
}

func TestTimeRangeIndex(t *testing.T) {
	assert.Equal(t, 0, TimeRangeIndex("09:00-09:50"))
	assert.Equal(t, len(TimeRanges)-1, TimeRangeIndex("03:05-04:00"))
	assert.Equal(t, -1, TimeRangeIndex("08:00-08:50"))
}

func TestValidDivision(t *testing.T) {
	assert.True(t, ValidDivision(3, "A"))
	assert.True(t, ValidDivision(3, "B"))
	assert.False(t, ValidDivision(3, "C"))

	// Semester 5 is the only three-division semester.
	assert.True(t, ValidDivision(5, "C"))
	assert.False(t, ValidDivision(4, "B"))
	assert.False(t, ValidDivision(1, "A"))
}

func TestSlotKey(t *testing.T) {
	slot := &TimetableSlot{Semester: 3, Day: Monday, TimeSlot: "09:00-09:50", Division: "A"}
	key := slot.Key()
	assert.Equal(t, 3, key.Semester)
	assert.Equal(t, Monday, key.Day)
}
