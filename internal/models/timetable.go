package models

import "time"

// Weekday is a teaching day. The timetable only covers Monday through Friday.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
)

// Weekdays lists teaching days in canonical display order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// TimeRange identifies one of the fixed teaching periods of the academic day.
type TimeRange string

// TimeRanges lists the teaching periods in chronological order.
var TimeRanges = []TimeRange{
	"09:00-09:50",
	"09:50-10:40",
	"10:50-11:40",
	"11:40-12:30",
	"01:15-02:05",
	"02:05-02:55",
	"03:05-04:00",
}

// Division is the letter code partitioning a semester into parallel sections.
type Division string

// SemesterDivisions maps each semester to the divisions it runs. The table is
// fixed configuration; mutating it at runtime is not supported.
var SemesterDivisions = map[int][]Division{
	3: {"A", "B"},
	4: {"A"},
	5: {"A", "B", "C"},
	6: {"A", "B"},
	7: {"A"},
	8: {"A", "B"},
}

// WeekdayIndex returns the canonical position of a weekday, or -1 when it is
// not a teaching day.
func WeekdayIndex(day Weekday) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return -1
}

// TimeRangeIndex returns the chronological position of a time range, or -1
// when it is not a known teaching period.
func TimeRangeIndex(tr TimeRange) int {
	for i, t := range TimeRanges {
		if t == tr {
			return i
		}
	}
	return -1
}

// ValidDivision reports whether the division is listed for the semester.
func ValidDivision(semester int, division Division) bool {
	for _, d := range SemesterDivisions[semester] {
		if d == division {
			return true
		}
	}
	return false
}

// SlotKey uniquely identifies a timetable slot.
type SlotKey struct {
	Semester int       `json:"semester"`
	Day      Weekday   `json:"day"`
	TimeSlot TimeRange `json:"time_slot"`
	Division Division  `json:"division"`
}

// TimetableSlot is one cell of a semester's timetable. Subject and teacher are
// independently nullable; a slot with both null is empty.
type TimetableSlot struct {
	ID        string    `db:"id" json:"id"`
	Semester  int       `db:"semester" json:"semester"`
	Day       Weekday   `db:"day" json:"day"`
	TimeSlot  TimeRange `db:"time_slot" json:"time_slot"`
	Division  Division  `db:"division" json:"division"`
	SubjectID *string   `db:"subject_id" json:"subject_id,omitempty"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Key returns the slot's identifying 4-tuple.
func (s *TimetableSlot) Key() SlotKey {
	return SlotKey{Semester: s.Semester, Day: s.Day, TimeSlot: s.TimeSlot, Division: s.Division}
}

// TimetableEntry is a slot denormalized for display with resolved names.
type TimetableEntry struct {
	ID          string    `db:"id" json:"id"`
	Semester    int       `db:"semester" json:"semester"`
	Day         Weekday   `db:"day" json:"day"`
	TimeSlot    TimeRange `db:"time_slot" json:"time_slot"`
	Division    Division  `db:"division" json:"division"`
	SubjectID   *string   `db:"subject_id" json:"subject_id,omitempty"`
	SubjectName *string   `db:"subject_name" json:"subject_name,omitempty"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	TeacherName *string   `db:"teacher_name" json:"teacher_name,omitempty"`
}
