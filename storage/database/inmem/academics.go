package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academics"
)

type resultRepository struct {
	db *DB
}

var _ academics.ResultRepository = (*resultRepository)(nil) // interface compliance check

func NewResultRepository(db *DB) *resultRepository {
	return &resultRepository{db: db}
}

func (repo *resultRepository) QueryTermResults(_ context.Context, studentID, academicYear string, _ ...core.DBExecutor) ([]academics.TermResult, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var results []academics.TermResult
	for _, tr := range repo.db.termResults {
		if tr.StudentID == studentID && tr.AcademicYear == academicYear {
			results = append(results, *tr)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Term < results[j].Term })
	return results, nil
}

func (repo *resultRepository) QuerySubjectResults(_ context.Context, studentID, academicYear string, _ ...core.DBExecutor) ([]academics.SubjectResult, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var results []academics.SubjectResult
	for _, sr := range repo.db.subjectResults {
		if sr.StudentID == studentID && sr.AcademicYear == academicYear {
			results = append(results, *sr)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Term != results[j].Term {
			return results[i].Term < results[j].Term
		}
		return results[i].SubjectName < results[j].SubjectName
	})
	return results, nil
}

type attendanceRepository struct {
	db *DB
}

var _ academics.AttendanceRepository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) QueryAttendance(_ context.Context, studentID string, from, to time.Time, _ ...core.DBExecutor) ([]academics.AttendanceRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var recs []academics.AttendanceRecord
	for _, ar := range repo.db.attendance {
		if ar.StudentID != studentID || ar.Day.Before(from) || ar.Day.After(to) {
			continue
		}
		recs = append(recs, *ar)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Day.Before(recs[j].Day) })
	return recs, nil
}
