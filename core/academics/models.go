package academics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/shule/core"
)

// Terms in an academic year.
const (
	Term1 = 1
	Term2 = 2
	Term3 = 3
)

// TermResult is a student's aggregate result for one term,
// produced by the grading subsystem. Read-only here.
type TermResult struct {
	ID           string  `json:"id"`
	StudentID    string  `json:"student_id"`
	AcademicYear string  `json:"academic_year"`
	Term         int     `json:"term"`
	AveragePct   float64 `json:"average_pct"`
	Position     int     `json:"position"`
}

// SubjectResult is a student's result in one subject for one term. Read-only here.
type SubjectResult struct {
	ID           string  `json:"id"`
	StudentID    string  `json:"student_id"`
	AcademicYear string  `json:"academic_year"`
	Term         int     `json:"term"`
	SubjectID    string  `json:"subject_id"`
	SubjectName  string  `json:"subject_name"`
	Pct          float64 `json:"pct"`
}

// AttendanceRecord is a single day's attendance mark for a student. Read-only here.
type AttendanceRecord struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Day       time.Time `json:"day"`
	Present   bool      `json:"present"`
}

type (
	ResultRepository interface {
		// QueryTermResults returns the (at most 3) term results of a student
		// for an academic year, ordered by term.
		QueryTermResults(ctx context.Context, studentID, academicYear string, exec ...core.DBExecutor) ([]TermResult, error)
		QuerySubjectResults(ctx context.Context, studentID, academicYear string, exec ...core.DBExecutor) ([]SubjectResult, error)
	}

	AttendanceRepository interface {
		QueryAttendance(ctx context.Context, studentID string, from, to time.Time, exec ...core.DBExecutor) ([]AttendanceRecord, error)
	}
)

// YearDateRange maps an academic year ("2025/2026") to its calendar window:
// 1 September of the first year through 31 August of the second.
func YearDateRange(academicYear string) (from, to time.Time, err error) {
	start, _, err := splitYear(academicYear)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from = time.Date(start, time.September, 1, 0, 0, 0, 0, time.UTC)
	to = time.Date(start+1, time.August, 31, 0, 0, 0, 0, time.UTC)
	return from, to, nil
}

// NextYear returns the academic year following the given one.
func NextYear(academicYear string) (string, error) {
	start, end, err := splitYear(academicYear)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d/%d", start+1, end+1), nil
}

func splitYear(academicYear string) (start, end int, err error) {
	parts := strings.SplitN(academicYear, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid academic year %q", academicYear)
	}
	if start, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid academic year %q", academicYear)
	}
	if end, err = strconv.Atoi(parts[1]); err != nil || end != start+1 {
		return 0, 0, fmt.Errorf("invalid academic year %q", academicYear)
	}
	return start, end, nil
}
