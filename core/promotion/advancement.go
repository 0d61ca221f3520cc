package promotion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academics"
	"github.com/trezcool/shule/core/school"
)

type (
	// BatchOptions configures one advancement cycle.
	BatchOptions struct {
		// AcademicYear is the year whose results are being evaluated;
		// enrollment records are written against the following year.
		AcademicYear     string
		Actor            core.Actor
		AutoCreate       bool
		DefaultCapacity  int
		DefaultTeacherID null.String
		// Overrides maps student IDs to administrative status overrides.
		Overrides map[string]Override
	}

	// Report aggregates the outcome of one advancement batch. Per-student
	// placement failures land in Errors/NeedsStream; they never abort the batch.
	Report struct {
		Promoted          int
		Conditional       int
		Repeated          int
		Graduated         int
		Errors            []string
		ClassroomsCreated []school.Classroom
		NeedsStream       []string
	}

	// Advancer executes a batch of promotion decisions as one unit of work:
	// each student is moved, classroom occupancy is updated and an enrollment
	// record written, inside a single database transaction.
	Advancer struct {
		db          core.DB
		svc         *Service
		resolver    *school.Resolver
		studentRepo school.StudentRepository
		classRepo   school.ClassroomRepository
		enrollRepo  school.EnrollmentRepository
		decRepo     DecisionRepository
		log         core.Logger
	}
)

func (rep Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "promoted: %d\n", rep.Promoted)
	fmt.Fprintf(&b, "conditional: %d\n", rep.Conditional)
	fmt.Fprintf(&b, "repeated: %d\n", rep.Repeated)
	fmt.Fprintf(&b, "graduated: %d\n", rep.Graduated)
	fmt.Fprintf(&b, "classrooms created: %d\n", len(rep.ClassroomsCreated))
	for _, room := range rep.ClassroomsCreated {
		fmt.Fprintf(&b, "  %s\n", room.Name())
	}
	fmt.Fprintf(&b, "needs stream: %d\n", len(rep.NeedsStream))
	for _, id := range rep.NeedsStream {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	fmt.Fprintf(&b, "errors: %d\n", len(rep.Errors))
	for _, msg := range rep.Errors {
		fmt.Fprintf(&b, "  %s\n", msg)
	}
	return b.String()
}

func NewAdvancer(
	db core.DB,
	svc *Service,
	resolver *school.Resolver,
	studentRepo school.StudentRepository,
	classRepo school.ClassroomRepository,
	enrollRepo school.EnrollmentRepository,
	decRepo DecisionRepository,
	log core.Logger,
) *Advancer {
	return &Advancer{
		db:          db,
		svc:         svc,
		resolver:    resolver,
		studentRepo: studentRepo,
		classRepo:   classRepo,
		enrollRepo:  enrollRepo,
		decRepo:     decRepo,
		log:         log,
	}
}

// AdvanceClassroom evaluates every active student of a classroom against the
// active rule for its class level and executes the resulting decisions.
// A missing rule aborts the whole call before anything is written.
func (adv *Advancer) AdvanceClassroom(ctx context.Context, classroomID string, opt BatchOptions) (Report, error) {
	room, err := adv.classRepo.GetClassroomByID(ctx, classroomID)
	if err != nil {
		return Report{}, err
	}
	students, err := adv.studentRepo.QueryStudentsByClassroom(ctx, classroomID)
	if err != nil {
		return Report{}, err
	}
	evals, rule, err := adv.svc.EvaluateStudents(ctx, students, room.ClassLevel, opt.AcademicYear)
	if err != nil {
		return Report{}, err
	}
	return adv.Execute(ctx, rule, evals, opt)
}

// VerifyClassroom is the read-only pre-flight check for a classroom's
// advancement: it evaluates the cohort and reports capacity shortfalls and
// missing stream assignments without mutating any state.
func (adv *Advancer) VerifyClassroom(ctx context.Context, classroomID string, opt BatchOptions) (school.CapacityReport, error) {
	room, err := adv.classRepo.GetClassroomByID(ctx, classroomID)
	if err != nil {
		return school.CapacityReport{}, err
	}
	students, err := adv.studentRepo.QueryStudentsByClassroom(ctx, classroomID)
	if err != nil {
		return school.CapacityReport{}, err
	}
	evals, rule, err := adv.svc.EvaluateStudents(ctx, students, room.ClassLevel, opt.AcademicYear)
	if err != nil {
		return school.CapacityReport{}, err
	}

	reqs := make([]school.PlacementRequest, 0, len(evals))
	for _, se := range evals {
		if se.Recommended != StatusPromoted && se.Recommended != StatusConditional {
			continue
		}
		reqs = append(reqs, school.PlacementRequest{
			StudentID:  se.Student.ID,
			ClassLevel: school.ClassLevel(rule.ToClassLevel.String),
			Stream:     se.Student.Stream,
		})
	}
	return adv.resolver.VerifyCapacity(ctx, reqs, opt.DefaultCapacity)
}

// Execute runs a batch of evaluated students through decision persistence and
// placement inside one transaction. Infrastructure failures roll the whole
// batch back; per-student placement problems are collected into the report
// and leave that student's records untouched.
func (adv *Advancer) Execute(ctx context.Context, rule Rule, evals []StudentEvaluation, opt BatchOptions) (Report, error) {
	rep := Report{}

	nextYear, err := academics.NextYear(opt.AcademicYear)
	if err != nil {
		return Report{}, err
	}

	tx, err := adv.db.BeginTx(ctx, nil)
	if err != nil {
		return Report{}, errors.Wrap(err, "beginning advancement transaction")
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, se := range evals {
		student := se.Student

		var override *Override
		if o, ok := opt.Overrides[student.ID]; ok {
			override = &o
		}
		dec, err := adv.svc.NewDecision(student, rule, se.Evaluation, opt.AcademicYear, opt.Actor, override)
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("student %s: %v", student.ID, err))
			continue
		}
		dec, err = adv.decRepo.CreateDecision(ctx, dec, tx)
		if err != nil {
			return Report{}, errors.Wrapf(err, "recording decision for student %s", student.ID)
		}

		switch dec.Status {
		case StatusPromoted, StatusConditional:
			if err := adv.place(ctx, tx, student, dec, nextYear, opt, &rep); err != nil {
				return Report{}, err
			}
		case StatusRepeated:
			if !student.ClassroomID.Valid {
				rep.Errors = append(rep.Errors, fmt.Sprintf("student %s: repeating but has no classroom", student.ID))
				continue
			}
			// the student stays put; the enrollment ledger still records the repeat
			_, err := adv.enrollRepo.CreateEnrollment(ctx, school.EnrollmentRecord{
				StudentID:       student.ID,
				ClassroomID:     student.ClassroomID.String,
				AcademicYear:    nextYear,
				PrevClassroomID: student.ClassroomID,
				IsRepeat:        true,
			}, tx)
			if err != nil {
				return Report{}, errors.Wrapf(err, "recording repeat enrollment for student %s", student.ID)
			}
			rep.Repeated++
		case StatusGraduated:
			if err := adv.studentRepo.DeactivateStudent(ctx, student.ID, now, tx); err != nil {
				return Report{}, errors.Wrapf(err, "graduating student %s", student.ID)
			}
			rep.Graduated++
		}
	}

	if err := tx.Commit(); err != nil {
		return Report{}, errors.Wrap(err, "committing advancement transaction")
	}
	if adv.log != nil {
		adv.log.Info(fmt.Sprintf("advancement batch done: %d promoted, %d conditional, %d repeated, %d graduated, %d errors",
			rep.Promoted, rep.Conditional, rep.Repeated, rep.Graduated, len(rep.Errors)))
	}
	return rep, nil
}

// place moves one promoted/conditional student into a resolved classroom.
// Placement problems (missing stream, no seats, bad data) are soft: they are
// recorded on the report and the student is left untouched. Returns an error
// only for infrastructure failures, which abort the batch.
func (adv *Advancer) place(ctx context.Context, tx core.DBTransactor, student school.Student, dec Decision, nextYear string, opt BatchOptions, rep *Report) error {
	if !dec.ToClassLevel.Valid {
		rep.Errors = append(rep.Errors, fmt.Sprintf("student %s: decision %s has no target class level", student.ID, dec.Status))
		return nil
	}
	target := school.ClassLevel(dec.ToClassLevel.String)

	room, created, err := adv.resolver.Resolve(ctx, target, student.Stream, school.PlacementOptions{
		AutoCreate:       opt.AutoCreate,
		DefaultCapacity:  opt.DefaultCapacity,
		DefaultTeacherID: opt.DefaultTeacherID,
	}, tx)
	switch {
	case err == nil:
	case errors.Cause(err) == school.ErrStreamRequired:
		rep.NeedsStream = append(rep.NeedsStream, student.ID)
		return nil
	case errors.Cause(err) == school.ErrNoClassroomAvailable:
		rep.Errors = append(rep.Errors, fmt.Sprintf("student %s: no classroom available for %s", student.ID, target))
		return nil
	default:
		var vErr *core.ValidationError
		if errors.As(err, &vErr) {
			rep.Errors = append(rep.Errors, fmt.Sprintf("student %s: %v", student.ID, err))
			return nil
		}
		return errors.Wrapf(err, "placing student %s", student.ID)
	}
	if created {
		rep.ClassroomsCreated = append(rep.ClassroomsCreated, room)
	}

	if err := adv.studentRepo.UpdateStudentPlacement(ctx, student.ID, room.ID, target, room.Stream, tx); err != nil {
		return errors.Wrapf(err, "moving student %s", student.ID)
	}
	_, err = adv.enrollRepo.CreateEnrollment(ctx, school.EnrollmentRecord{
		StudentID:       student.ID,
		ClassroomID:     room.ID,
		AcademicYear:    nextYear,
		PrevClassroomID: student.ClassroomID,
		IsRepeat:        false,
	}, tx)
	if err != nil {
		return errors.Wrapf(err, "recording enrollment for student %s", student.ID)
	}

	if dec.Status == StatusPromoted {
		rep.Promoted++
	} else {
		rep.Conditional++
	}
	return nil
}
