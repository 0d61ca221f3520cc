package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type classroomRepository struct {
	exec core.DBExecutor
}

var _ school.ClassroomRepository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(exec core.DBExecutor) *classroomRepository {
	return &classroomRepository{exec: exec}
}

type classroomRow struct {
	ID            string      `db:"id"`
	ClassLevel    string      `db:"class_level"`
	StreamID      null.String `db:"stream_id"`
	Stream        null.String `db:"stream"`
	Section       string      `db:"section"`
	Capacity      int         `db:"capacity"`
	TeacherID     null.String `db:"teacher_id"`
	EnrolledCount int         `db:"enrolled_count"`
	CreatedAt     time.Time   `db:"created_at"`
}

func (r classroomRow) classroom() school.Classroom {
	return school.Classroom{
		ID:            r.ID,
		ClassLevel:    school.ClassLevel(r.ClassLevel),
		StreamID:      r.StreamID,
		Stream:        r.Stream,
		Section:       r.Section,
		Capacity:      r.Capacity,
		TeacherID:     r.TeacherID,
		EnrolledCount: r.EnrolledCount,
		CreatedAt:     r.CreatedAt,
	}
}

const classroomSelect = `
SELECT c.id, c.class_level, c.stream_id, s.name AS stream, c.section, c.capacity, c.teacher_id, c.created_at,
       (SELECT count(*) FROM student st WHERE st.classroom_id = c.id AND st.is_active) AS enrolled_count
FROM classroom c
LEFT JOIN stream s ON s.id = c.stream_id`

func (repo classroomRepository) GetClassroomByID(ctx context.Context, id string, exec ...core.DBExecutor) (school.Classroom, error) {
	var row classroomRow
	err := getExec(repo.exec, exec).GetContext(ctx, &row, classroomSelect+` WHERE c.id = $1`, id)
	if err == sql.ErrNoRows {
		return school.Classroom{}, school.ErrClassroomNotFound
	}
	if err != nil {
		return school.Classroom{}, errors.Wrap(err, "getting classroom")
	}
	return row.classroom(), nil
}

func (repo classroomRepository) QueryClassrooms(ctx context.Context, level school.ClassLevel, stream null.String, exec ...core.DBExecutor) ([]school.Classroom, error) {
	return repo.queryClassrooms(ctx, level, stream, false, exec)
}

func (repo classroomRepository) QueryClassroomsForUpdate(ctx context.Context, level school.ClassLevel, stream null.String, exec ...core.DBExecutor) ([]school.Classroom, error) {
	return repo.queryClassrooms(ctx, level, stream, true, exec)
}

func (repo classroomRepository) queryClassrooms(ctx context.Context, level school.ClassLevel, stream null.String, lock bool, exec []core.DBExecutor) ([]school.Classroom, error) {
	q := classroomSelect + ` WHERE c.class_level = $1`
	args := []interface{}{string(level)}
	if stream.Valid {
		q += ` AND s.name = $2`
		args = append(args, stream.String)
	} else {
		q += ` AND c.stream_id IS NULL`
	}
	q += ` ORDER BY c.section, c.id`
	if lock {
		// serializes capacity check-and-increment across concurrent batches
		q += ` FOR UPDATE OF c`
	}

	var rows []classroomRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}
	rooms := make([]school.Classroom, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.classroom())
	}
	return rooms, nil
}

func (repo classroomRepository) CreateClassroom(ctx context.Context, room school.Classroom, exec ...core.DBExecutor) (school.Classroom, error) {
	room.ID = uuid.New().String()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	_, err := getExec(repo.exec, exec).ExecContext(ctx,
		`INSERT INTO classroom (id, class_level, stream_id, section, capacity, teacher_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		room.ID, string(room.ClassLevel), room.StreamID, room.Section, room.Capacity, room.TeacherID, room.CreatedAt)
	if err != nil {
		return school.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	return room, nil
}
