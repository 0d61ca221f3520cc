package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academics"
)

type resultRepository struct {
	exec core.DBExecutor
}

var _ academics.ResultRepository = (*resultRepository)(nil) // interface compliance check

func NewResultRepository(exec core.DBExecutor) *resultRepository {
	return &resultRepository{exec: exec}
}

type termResultRow struct {
	ID           string  `db:"id"`
	StudentID    string  `db:"student_id"`
	AcademicYear string  `db:"academic_year"`
	Term         int     `db:"term"`
	AveragePct   float64 `db:"average_pct"`
	Position     int     `db:"position"`
}

func (repo resultRepository) QueryTermResults(ctx context.Context, studentID, academicYear string, exec ...core.DBExecutor) ([]academics.TermResult, error) {
	var rows []termResultRow
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		`SELECT id, student_id, academic_year, term, average_pct, position
		 FROM term_result WHERE student_id = $1 AND academic_year = $2 ORDER BY term`,
		studentID, academicYear)
	if err != nil {
		return nil, errors.Wrap(err, "querying term results")
	}
	results := make([]academics.TermResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, academics.TermResult{
			ID:           row.ID,
			StudentID:    row.StudentID,
			AcademicYear: row.AcademicYear,
			Term:         row.Term,
			AveragePct:   row.AveragePct,
			Position:     row.Position,
		})
	}
	return results, nil
}

type subjectResultRow struct {
	ID           string  `db:"id"`
	StudentID    string  `db:"student_id"`
	AcademicYear string  `db:"academic_year"`
	Term         int     `db:"term"`
	SubjectID    string  `db:"subject_id"`
	SubjectName  string  `db:"subject_name"`
	Pct          float64 `db:"pct"`
}

func (repo resultRepository) QuerySubjectResults(ctx context.Context, studentID, academicYear string, exec ...core.DBExecutor) ([]academics.SubjectResult, error) {
	var rows []subjectResultRow
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		`SELECT id, student_id, academic_year, term, subject_id, subject_name, pct
		 FROM subject_result WHERE student_id = $1 AND academic_year = $2 ORDER BY term, subject_name`,
		studentID, academicYear)
	if err != nil {
		return nil, errors.Wrap(err, "querying subject results")
	}
	results := make([]academics.SubjectResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, academics.SubjectResult{
			ID:           row.ID,
			StudentID:    row.StudentID,
			AcademicYear: row.AcademicYear,
			Term:         row.Term,
			SubjectID:    row.SubjectID,
			SubjectName:  row.SubjectName,
			Pct:          row.Pct,
		})
	}
	return results, nil
}

type attendanceRepository struct {
	exec core.DBExecutor
}

var _ academics.AttendanceRepository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{exec: exec}
}

type attendanceRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	Day       time.Time `db:"day"`
	Present   bool      `db:"present"`
}

func (repo attendanceRepository) QueryAttendance(ctx context.Context, studentID string, from, to time.Time, exec ...core.DBExecutor) ([]academics.AttendanceRecord, error) {
	var rows []attendanceRow
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		`SELECT id, student_id, day, present
		 FROM attendance_record WHERE student_id = $1 AND day BETWEEN $2 AND $3 ORDER BY day`,
		studentID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	recs := make([]academics.AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, academics.AttendanceRecord{
			ID:        row.ID,
			StudentID: row.StudentID,
			Day:       row.Day,
			Present:   row.Present,
		})
	}
	return recs, nil
}
