package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type studentRepository struct {
	db *DB
}

var _ school.StudentRepository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string, _ ...core.DBExecutor) (school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *studentRepository) QueryStudentsByClassroom(_ context.Context, classroomID string, _ ...core.DBExecutor) ([]school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var students []school.Student
	for _, s := range repo.db.students {
		if s.IsActive && s.ClassroomID.Valid && s.ClassroomID.String == classroomID {
			students = append(students, *s)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].AdmissionNo < students[j].AdmissionNo })
	return students, nil
}

func (repo *studentRepository) UpdateStudentPlacement(_ context.Context, id, classroomID string, level school.ClassLevel, stream null.String, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.students[id]
	if !ok {
		return school.ErrStudentNotFound
	}
	s.ClassroomID = null.StringFrom(classroomID)
	s.ClassLevel = level
	s.Stream = stream
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *studentRepository) UpdateStudentStream(_ context.Context, id string, stream school.StreamName, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.students[id]
	if !ok {
		return school.ErrStudentNotFound
	}
	s.Stream = null.StringFrom(string(stream))
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *studentRepository) DeactivateStudent(_ context.Context, id string, graduatedOn time.Time, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.students[id]
	if !ok {
		return school.ErrStudentNotFound
	}
	s.IsActive = false
	s.GraduatedOn = null.TimeFrom(graduatedOn)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

type classroomRepository struct {
	db *DB
}

var _ school.ClassroomRepository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *DB) *classroomRepository {
	return &classroomRepository{db: db}
}

// enrolledCount derives the active head count of a classroom.
// Callers must hold the mutex.
func (repo *classroomRepository) enrolledCount(classroomID string) int {
	var n int
	for _, s := range repo.db.students {
		if s.IsActive && s.ClassroomID.Valid && s.ClassroomID.String == classroomID {
			n++
		}
	}
	return n
}

func (repo *classroomRepository) GetClassroomByID(_ context.Context, id string, _ ...core.DBExecutor) (school.Classroom, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	c, ok := repo.db.classrooms[id]
	if !ok {
		return school.Classroom{}, school.ErrClassroomNotFound
	}
	room := *c
	room.EnrolledCount = repo.enrolledCount(room.ID)
	return room, nil
}

func (repo *classroomRepository) QueryClassrooms(_ context.Context, level school.ClassLevel, stream null.String, _ ...core.DBExecutor) ([]school.Classroom, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var rooms []school.Classroom
	for _, c := range repo.db.classrooms {
		if c.ClassLevel != level {
			continue
		}
		if stream.Valid {
			if !c.Stream.Valid || c.Stream.String != stream.String {
				continue
			}
		} else if c.StreamID.Valid {
			continue
		}
		room := *c
		room.EnrolledCount = repo.enrolledCount(room.ID)
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Section != rooms[j].Section {
			return rooms[i].Section < rooms[j].Section
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms, nil
}

// QueryClassroomsForUpdate does not lock rows; the single map mutex already
// serializes all access to this backend.
func (repo *classroomRepository) QueryClassroomsForUpdate(ctx context.Context, level school.ClassLevel, stream null.String, exec ...core.DBExecutor) ([]school.Classroom, error) {
	return repo.QueryClassrooms(ctx, level, stream, exec...)
}

func (repo *classroomRepository) CreateClassroom(_ context.Context, room school.Classroom, _ ...core.DBExecutor) (school.Classroom, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	room.ID = uuid.New().String()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	stored := room
	stored.EnrolledCount = 0
	repo.db.classrooms[room.ID] = &stored
	return room, nil
}

type streamRepository struct {
	db *DB
}

var _ school.StreamRepository = (*streamRepository)(nil) // interface compliance check

func NewStreamRepository(db *DB) *streamRepository {
	return &streamRepository{db: db}
}

func (repo *streamRepository) GetOrCreateStream(_ context.Context, name school.StreamName, _ ...core.DBExecutor) (school.Stream, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, st := range repo.db.streams {
		if st.Name == name {
			return *st, nil
		}
	}
	st := school.Stream{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	repo.db.streams[st.ID] = &st
	return st, nil
}

type enrollmentRepository struct {
	db *DB
}

var _ school.EnrollmentRepository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, rec school.EnrollmentRecord, _ ...core.DBExecutor) (school.EnrollmentRecord, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec.ID = uuid.New().String()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	repo.db.enrollments[rec.ID] = &rec
	return rec, nil
}

func (repo *enrollmentRepository) QueryEnrollmentsByStudent(_ context.Context, studentID string, _ ...core.DBExecutor) ([]school.EnrollmentRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var recs []school.EnrollmentRecord
	for _, rec := range repo.db.enrollments {
		if rec.StudentID == studentID {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	return recs, nil
}
