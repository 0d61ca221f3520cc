package school

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// Class levels, in ascending order.
const (
	LevelJSS1 ClassLevel = "JSS1"
	LevelJSS2 ClassLevel = "JSS2"
	LevelJSS3 ClassLevel = "JSS3"
	LevelSS1  ClassLevel = "SS1"
	LevelSS2  ClassLevel = "SS2"
	LevelSS3  ClassLevel = "SS3"
)

var (
	ClassLevels = []ClassLevel{LevelJSS1, LevelJSS2, LevelJSS3, LevelSS1, LevelSS2, LevelSS3}

	// SeniorLevels are the class levels that require a subject stream.
	SeniorLevels = []ClassLevel{LevelSS1, LevelSS2, LevelSS3}
)

type ClassLevel string

func (l ClassLevel) Valid() bool {
	for _, lvl := range ClassLevels {
		if l == lvl {
			return true
		}
	}
	return false
}

// IsSenior reports whether the level requires a subject stream.
func (l ClassLevel) IsSenior() bool {
	for _, lvl := range SeniorLevels {
		if l == lvl {
			return true
		}
	}
	return false
}

// Streams (senior-secondary subject tracks).
const (
	StreamScience    StreamName = "science"
	StreamCommercial StreamName = "commercial"
	StreamArts       StreamName = "arts"
)

var StreamNames = []StreamName{StreamScience, StreamCommercial, StreamArts}

type StreamName string

func (s StreamName) Valid() bool {
	for _, name := range StreamNames {
		if s == name {
			return true
		}
	}
	return false
}

// Title returns the display form of the stream name ("science" -> "Science").
func (s StreamName) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[0])) + string(s[1:])
}

type Stream struct {
	ID        string     `json:"id"`
	Name      StreamName `json:"name"`
	CreatedAt time.Time  `json:"created_at"` // UTC
}

type Student struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	AdmissionNo string      `json:"admission_no"`
	ClassLevel  ClassLevel  `json:"class_level"`
	ClassroomID null.String `json:"classroom_id"`
	Stream      null.String `json:"stream"` // a StreamName; set only at senior levels
	IsActive    bool        `json:"is_active"`
	GraduatedOn null.Time   `json:"graduated_on"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

// Classroom is a physical section of a class level ("SS1 Science A").
// Capacity is fixed at creation; EnrolledCount is derived from assigned
// students and populated by repository queries.
type Classroom struct {
	ID            string      `json:"id"`
	ClassLevel    ClassLevel  `json:"class_level"`
	StreamID      null.String `json:"stream_id"`
	Stream        null.String `json:"stream"` // denormalized StreamName, populated on query
	Section       string      `json:"section"`
	Capacity      int         `json:"capacity"`
	TeacherID     null.String `json:"teacher_id"`
	EnrolledCount int         `json:"enrolled_count"`
	CreatedAt     time.Time   `json:"created_at"` // UTC
}

func (c Classroom) OpenSeats() int {
	return c.Capacity - c.EnrolledCount
}

func (c Classroom) Name() string {
	parts := make([]string, 0, 3)
	parts = append(parts, string(c.ClassLevel))
	if c.Stream.Valid {
		parts = append(parts, StreamName(c.Stream.String).Title())
	}
	parts = append(parts, c.Section)
	return strings.Join(parts, " ")
}

// EnrollmentRecord links a student to a classroom for an academic year.
// Append-only; one row is written per advancement and rows are never deleted.
type EnrollmentRecord struct {
	ID              string      `json:"id"`
	StudentID       string      `json:"student_id"`
	ClassroomID     string      `json:"classroom_id"`
	AcademicYear    string      `json:"academic_year"`
	PrevClassroomID null.String `json:"prev_classroom_id"`
	IsRepeat        bool        `json:"is_repeat"`
	CreatedAt       time.Time   `json:"created_at"` // UTC
}
