// Package inmemdb is an in-memory storage backend. It backs the service and
// engine tests; it is not meant for production use.
package inmemdb

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academics"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
)

var errRawSQL = errors.New("inmemdb: raw SQL not supported")

type DB struct {
	mutex sync.RWMutex

	students    map[string]*school.Student
	classrooms  map[string]*school.Classroom
	streams     map[string]*school.Stream
	enrollments map[string]*school.EnrollmentRecord
	rules       map[string]*promotion.Rule
	decisions   map[string]*promotion.Decision

	termResults    map[string]*academics.TermResult
	subjectResults map[string]*academics.SubjectResult
	attendance     map[string]*academics.AttendanceRecord
}

var _ core.DB = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	db := &DB{
		students:       make(map[string]*school.Student),
		classrooms:     make(map[string]*school.Classroom),
		streams:        make(map[string]*school.Stream),
		enrollments:    make(map[string]*school.EnrollmentRecord),
		rules:          make(map[string]*promotion.Rule),
		decisions:      make(map[string]*promotion.Decision),
		termResults:    make(map[string]*academics.TermResult),
		subjectResults: make(map[string]*academics.SubjectResult),
		attendance:     make(map[string]*academics.AttendanceRecord),
	}
	return db, nil
}

// BeginTx returns a no-op transaction. Repositories in this package ignore
// the executor argument and work on the shared maps directly, so commit and
// rollback have nothing to do.
func (db *DB) BeginTx(context.Context, *sql.TxOptions) (core.DBTransactor, error) {
	return noopTx{}, nil
}

func (db *DB) Exec(string, ...interface{}) (sql.Result, error) { return nil, errRawSQL }
func (db *DB) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errRawSQL
}
func (db *DB) QueryxContext(context.Context, string, ...interface{}) (*sqlx.Rows, error) {
	return nil, errRawSQL
}
func (db *DB) QueryRowxContext(context.Context, string, ...interface{}) *sqlx.Row { return nil }
func (db *DB) GetContext(context.Context, interface{}, string, ...interface{}) error {
	return errRawSQL
}
func (db *DB) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	return errRawSQL
}

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

func (noopTx) Exec(string, ...interface{}) (sql.Result, error) { return nil, errRawSQL }
func (noopTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errRawSQL
}
func (noopTx) QueryxContext(context.Context, string, ...interface{}) (*sqlx.Rows, error) {
	return nil, errRawSQL
}
func (noopTx) QueryRowxContext(context.Context, string, ...interface{}) *sqlx.Row { return nil }
func (noopTx) GetContext(context.Context, interface{}, string, ...interface{}) error {
	return errRawSQL
}
func (noopTx) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	return errRawSQL
}

// ---------------------------------------------------------------------------
// seed helpers

func (db *DB) AddStudent(s school.Student) school.Student {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
		s.UpdatedAt = s.CreatedAt
	}
	db.students[s.ID] = &s
	return s
}

func (db *DB) AddClassroom(c school.Classroom) school.Classroom {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	db.classrooms[c.ID] = &c
	return c
}

func (db *DB) AddStream(s school.Stream) school.Stream {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	db.streams[s.ID] = &s
	return s
}

func (db *DB) AddRule(r promotion.Rule) promotion.Rule {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	db.rules[r.ID] = &r
	return r
}

func (db *DB) AddTermResult(tr academics.TermResult) academics.TermResult {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if tr.ID == "" {
		tr.ID = uuid.New().String()
	}
	db.termResults[tr.ID] = &tr
	return tr
}

func (db *DB) AddSubjectResult(sr academics.SubjectResult) academics.SubjectResult {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if sr.ID == "" {
		sr.ID = uuid.New().String()
	}
	db.subjectResults[sr.ID] = &sr
	return sr
}

func (db *DB) AddAttendanceRecord(ar academics.AttendanceRecord) academics.AttendanceRecord {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if ar.ID == "" {
		ar.ID = uuid.New().String()
	}
	db.attendance[ar.ID] = &ar
	return ar
}
