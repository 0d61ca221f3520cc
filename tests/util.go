package testutil

import (
	"testing"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/academics"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

// PrepareDB opens a fresh in-memory database for one test.
func PrepareDB(t *testing.T) *inmemdb.DB {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	return db
}

func CreateStudent(
	t *testing.T,
	db *inmemdb.DB,
	name, admissionNo string,
	level school.ClassLevel,
	classroomID, stream null.String,
) school.Student {
	t.Helper()
	tstamp := time.Now().UTC()
	return db.AddStudent(school.Student{
		Name:        name,
		AdmissionNo: admissionNo,
		ClassLevel:  level,
		ClassroomID: classroomID,
		Stream:      stream,
		IsActive:    true,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
}

func CreateClassroom(
	t *testing.T,
	db *inmemdb.DB,
	level school.ClassLevel,
	stream null.String,
	section string,
	capacity int,
) school.Classroom {
	t.Helper()
	room := school.Classroom{
		ClassLevel: level,
		Section:    section,
		Capacity:   capacity,
		CreatedAt:  time.Now().UTC(),
	}
	if stream.Valid {
		st := db.AddStream(school.Stream{Name: school.StreamName(stream.String), CreatedAt: time.Now().UTC()})
		room.StreamID = null.StringFrom(st.ID)
		room.Stream = stream
	}
	return db.AddClassroom(room)
}

func CreateRule(t *testing.T, db *inmemdb.DB, rule promotion.Rule) promotion.Rule {
	t.Helper()
	if err := rule.Validate(); err != nil {
		t.Fatalf("CreateRule() failed: %v", err)
	}
	rule.IsActive = true
	return db.AddRule(rule)
}

func AddTermResult(t *testing.T, db *inmemdb.DB, studentID, year string, term int, avg float64, position int) academics.TermResult {
	t.Helper()
	return db.AddTermResult(academics.TermResult{
		StudentID:    studentID,
		AcademicYear: year,
		Term:         term,
		AveragePct:   avg,
		Position:     position,
	})
}

func AddSubjectResult(t *testing.T, db *inmemdb.DB, studentID, year string, term int, subject string, pct float64) academics.SubjectResult {
	t.Helper()
	return db.AddSubjectResult(academics.SubjectResult{
		StudentID:    studentID,
		AcademicYear: year,
		Term:         term,
		SubjectID:    subject,
		SubjectName:  subject,
		Pct:          pct,
	})
}

// AddAttendance marks `present` out of `total` school days for a student,
// starting from the academic year's first day.
func AddAttendance(t *testing.T, db *inmemdb.DB, studentID, year string, present, total int) {
	t.Helper()
	from, _, err := academics.YearDateRange(year)
	if err != nil {
		t.Fatalf("AddAttendance() failed: %v", err)
	}
	for i := 0; i < total; i++ {
		db.AddAttendanceRecord(academics.AttendanceRecord{
			StudentID: studentID,
			Day:       from.AddDate(0, 0, i),
			Present:   i < present,
		})
	}
}

// Diff returns a unified diff of two multi-line strings, for readable
// failure output when comparing reports.
func Diff(t *testing.T, want, got string) string {
	t.Helper()
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	if err != nil {
		t.Fatalf("Diff() failed: %v", err)
	}
	return diff
}
