package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type studentRepository struct {
	exec core.DBExecutor
}

var _ school.StudentRepository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{exec: exec}
}

type studentRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	AdmissionNo string      `db:"admission_no"`
	ClassLevel  string      `db:"class_level"`
	ClassroomID null.String `db:"classroom_id"`
	Stream      null.String `db:"stream"`
	IsActive    bool        `db:"is_active"`
	GraduatedOn null.Time   `db:"graduated_on"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r studentRow) student() school.Student {
	return school.Student{
		ID:          r.ID,
		Name:        r.Name,
		AdmissionNo: r.AdmissionNo,
		ClassLevel:  school.ClassLevel(r.ClassLevel),
		ClassroomID: r.ClassroomID,
		Stream:      r.Stream,
		IsActive:    r.IsActive,
		GraduatedOn: r.GraduatedOn,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const studentSelect = `
SELECT id, name, admission_no, class_level, classroom_id, stream, is_active, graduated_on, created_at, updated_at
FROM student`

func (repo studentRepository) GetStudentByID(ctx context.Context, id string, exec ...core.DBExecutor) (school.Student, error) {
	var row studentRow
	err := getExec(repo.exec, exec).GetContext(ctx, &row, studentSelect+` WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return school.Student{}, school.ErrStudentNotFound
	}
	if err != nil {
		return school.Student{}, errors.Wrap(err, "getting student")
	}
	return row.student(), nil
}

func (repo studentRepository) QueryStudentsByClassroom(ctx context.Context, classroomID string, exec ...core.DBExecutor) ([]school.Student, error) {
	var rows []studentRow
	err := getExec(repo.exec, exec).SelectContext(
		ctx, &rows, studentSelect+` WHERE classroom_id = $1 AND is_active ORDER BY admission_no`, classroomID)
	if err != nil {
		return nil, errors.Wrap(err, "querying classroom students")
	}
	students := make([]school.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (repo studentRepository) UpdateStudentPlacement(ctx context.Context, id, classroomID string, level school.ClassLevel, stream null.String, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(
		ctx, `UPDATE student SET classroom_id = $2, class_level = $3, stream = $4, updated_at = now() WHERE id = $1`,
		id, classroomID, string(level), stream)
	return errors.Wrap(err, "updating student placement")
}

func (repo studentRepository) UpdateStudentStream(ctx context.Context, id string, stream school.StreamName, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(
		ctx, `UPDATE student SET stream = $2, updated_at = now() WHERE id = $1`, id, string(stream))
	return errors.Wrap(err, "updating student stream")
}

func (repo studentRepository) DeactivateStudent(ctx context.Context, id string, graduatedOn time.Time, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(
		ctx, `UPDATE student SET is_active = false, graduated_on = $2, updated_at = now() WHERE id = $1`,
		id, graduatedOn)
	return errors.Wrap(err, "deactivating student")
}
