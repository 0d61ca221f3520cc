package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type enrollmentRepository struct {
	exec core.DBExecutor
}

var _ school.EnrollmentRepository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(exec core.DBExecutor) *enrollmentRepository {
	return &enrollmentRepository{exec: exec}
}

type enrollmentRow struct {
	ID              string      `db:"id"`
	StudentID       string      `db:"student_id"`
	ClassroomID     string      `db:"classroom_id"`
	AcademicYear    string      `db:"academic_year"`
	PrevClassroomID null.String `db:"prev_classroom_id"`
	IsRepeat        bool        `db:"is_repeat"`
	CreatedAt       time.Time   `db:"created_at"`
}

func (r enrollmentRow) record() school.EnrollmentRecord {
	return school.EnrollmentRecord{
		ID:              r.ID,
		StudentID:       r.StudentID,
		ClassroomID:     r.ClassroomID,
		AcademicYear:    r.AcademicYear,
		PrevClassroomID: r.PrevClassroomID,
		IsRepeat:        r.IsRepeat,
		CreatedAt:       r.CreatedAt,
	}
}

func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, rec school.EnrollmentRecord, exec ...core.DBExecutor) (school.EnrollmentRecord, error) {
	rec.ID = uuid.New().String()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := getExec(repo.exec, exec).ExecContext(ctx,
		`INSERT INTO enrollment_record (id, student_id, classroom_id, academic_year, prev_classroom_id, is_repeat, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.StudentID, rec.ClassroomID, rec.AcademicYear, rec.PrevClassroomID, rec.IsRepeat, rec.CreatedAt)
	if err != nil {
		return school.EnrollmentRecord{}, errors.Wrap(err, "inserting enrollment record")
	}
	return rec, nil
}

func (repo enrollmentRepository) QueryEnrollmentsByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]school.EnrollmentRecord, error) {
	ordering := core.DBOrdering{Field: "created_at"} // most recent first
	var rows []enrollmentRow
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		`SELECT id, student_id, classroom_id, academic_year, prev_classroom_id, is_repeat, created_at
		 FROM enrollment_record WHERE student_id = $1 ORDER BY `+ordering.String(), studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollment records")
	}
	recs := make([]school.EnrollmentRecord, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}
