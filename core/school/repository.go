package school

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrStudentNotFound   = errors.New("student not found")
	ErrClassroomNotFound = errors.New("classroom not found")
	ErrStreamNotFound    = errors.New("stream not found")
)

type (
	StudentRepository interface {
		GetStudentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		// QueryStudentsByClassroom returns the active students of a classroom,
		// ordered by admission number.
		QueryStudentsByClassroom(ctx context.Context, classroomID string, exec ...core.DBExecutor) ([]Student, error)
		// UpdateStudentPlacement moves a student to a classroom, updating the
		// class level and stream fields along with it.
		UpdateStudentPlacement(ctx context.Context, id, classroomID string, level ClassLevel, stream null.String, exec ...core.DBExecutor) error
		UpdateStudentStream(ctx context.Context, id string, stream StreamName, exec ...core.DBExecutor) error
		// DeactivateStudent marks a student inactive with a graduation date.
		DeactivateStudent(ctx context.Context, id string, graduatedOn time.Time, exec ...core.DBExecutor) error
	}

	ClassroomRepository interface {
		GetClassroomByID(ctx context.Context, id string, exec ...core.DBExecutor) (Classroom, error)
		// QueryClassrooms returns the classrooms of a class level (narrowed to a
		// stream when set), with EnrolledCount populated, ordered by section then id.
		QueryClassrooms(ctx context.Context, level ClassLevel, stream null.String, exec ...core.DBExecutor) ([]Classroom, error)
		// QueryClassroomsForUpdate is QueryClassrooms with the classroom rows
		// locked for the duration of the enclosing transaction, serializing
		// capacity check-and-increment across concurrent batches.
		QueryClassroomsForUpdate(ctx context.Context, level ClassLevel, stream null.String, exec ...core.DBExecutor) ([]Classroom, error)
		CreateClassroom(ctx context.Context, room Classroom, exec ...core.DBExecutor) (Classroom, error)
	}

	StreamRepository interface {
		GetOrCreateStream(ctx context.Context, name StreamName, exec ...core.DBExecutor) (Stream, error)
	}

	EnrollmentRepository interface {
		CreateEnrollment(ctx context.Context, rec EnrollmentRecord, exec ...core.DBExecutor) (EnrollmentRecord, error)
		// QueryEnrollmentsByStudent returns a student's class-history ledger,
		// most recent first.
		QueryEnrollmentsByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]EnrollmentRecord, error)
	}
)
