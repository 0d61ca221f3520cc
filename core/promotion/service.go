package promotion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academics"
	"github.com/trezcool/shule/core/school"
)

var (
	// errors
	ErrNoActiveRule     = errors.New("no active promotion rule for class level")
	ErrDecisionNotFound = errors.New("promotion decision not found")
)

type (
	RuleRepository interface {
		// GetActiveRuleByClassLevel returns the single active rule for a class
		// level, or ErrNoActiveRule when none exists.
		GetActiveRuleByClassLevel(ctx context.Context, level school.ClassLevel, exec ...core.DBExecutor) (Rule, error)
		CreateRule(ctx context.Context, rule Rule, exec ...core.DBExecutor) (Rule, error)
	}

	DecisionRepository interface {
		CreateDecision(ctx context.Context, dec Decision, exec ...core.DBExecutor) (Decision, error)
		// QueryDecisionsByStudent returns a student's decision history,
		// most recent first.
		QueryDecisionsByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]Decision, error)
	}

	Service struct {
		ruleRepo    RuleRepository
		resultRepo  academics.ResultRepository
		attRepo     academics.AttendanceRepository
		studentRepo school.StudentRepository
		log         core.Logger
	}

	// StudentEvaluation pairs a student with their evaluation and the
	// engine's recommended outcome.
	StudentEvaluation struct {
		Student     school.Student
		Evaluation  Evaluation
		Recommended Status
	}
)

func NewService(
	ruleRepo RuleRepository,
	resultRepo academics.ResultRepository,
	attRepo academics.AttendanceRepository,
	studentRepo school.StudentRepository,
	log core.Logger,
) *Service {
	return &Service{
		ruleRepo:    ruleRepo,
		resultRepo:  resultRepo,
		attRepo:     attRepo,
		studentRepo: studentRepo,
		log:         log,
	}
}

func (svc *Service) ActiveRule(ctx context.Context, level school.ClassLevel) (Rule, error) {
	return svc.ruleRepo.GetActiveRuleByClassLevel(ctx, level)
}

// EvaluateStudent checks one student against the active rule for their class
// level. A missing rule is a hard error.
func (svc *Service) EvaluateStudent(ctx context.Context, student school.Student, academicYear string) (StudentEvaluation, Rule, error) {
	rule, err := svc.ruleRepo.GetActiveRuleByClassLevel(ctx, student.ClassLevel)
	if err != nil {
		return StudentEvaluation{}, Rule{}, err
	}
	se, err := svc.evaluate(ctx, student, rule, academicYear)
	return se, rule, err
}

// EvaluateStudents checks a cohort of students sharing one class level.
// The rule is resolved once; if no active rule exists for the level, the
// whole call aborts rather than skip students.
func (svc *Service) EvaluateStudents(ctx context.Context, students []school.Student, level school.ClassLevel, academicYear string) ([]StudentEvaluation, Rule, error) {
	rule, err := svc.ruleRepo.GetActiveRuleByClassLevel(ctx, level)
	if err != nil {
		return nil, Rule{}, err
	}
	evals := make([]StudentEvaluation, 0, len(students))
	for _, student := range students {
		se, err := svc.evaluate(ctx, student, rule, academicYear)
		if err != nil {
			return nil, Rule{}, err
		}
		evals = append(evals, se)
	}
	return evals, rule, nil
}

func (svc *Service) evaluate(ctx context.Context, student school.Student, rule Rule, academicYear string) (StudentEvaluation, error) {
	terms, err := svc.resultRepo.QueryTermResults(ctx, student.ID, academicYear)
	if err != nil {
		return StudentEvaluation{}, err
	}
	subjects, err := svc.resultRepo.QuerySubjectResults(ctx, student.ID, academicYear)
	if err != nil {
		return StudentEvaluation{}, err
	}
	from, to, err := academics.YearDateRange(academicYear)
	if err != nil {
		return StudentEvaluation{}, err
	}
	attendance, err := svc.attRepo.QueryAttendance(ctx, student.ID, from, to)
	if err != nil {
		return StudentEvaluation{}, err
	}

	ev := Evaluate(rule, terms, subjects, attendance)
	return StudentEvaluation{
		Student:     student,
		Evaluation:  ev,
		Recommended: ev.Recommend(rule),
	}, nil
}

// NewDecision builds the auditable decision record for one evaluated student.
// The record is persisted later by the advancement batch, in its transaction.
// An override replaces the final status but the recommendation is retained.
func (svc *Service) NewDecision(student school.Student, rule Rule, ev Evaluation, academicYear string, actor core.Actor, override *Override) (Decision, error) {
	status := ev.Recommend(rule)
	dec := Decision{
		StudentID:         student.ID,
		RuleID:            rule.ID,
		AcademicYear:      academicYear,
		Status:            status,
		RecommendedStatus: status,
		AnnualAverage:     ev.AnnualAverage,
		AttendancePct:     ev.AttendancePct,
		SubjectsPassed:    ev.SubjectsPassed,
		SubjectsTotal:     ev.SubjectsTotal,
		ClassPosition:     ev.ClassPosition,
		CriteriaMet:       ev.CriteriaMet,
		CriteriaFailed:    ev.CriteriaFailed,
		FromClassroomID:   student.ClassroomID,
		ToClassLevel:      rule.ToClassLevel,
		CreatedAt:         time.Now().UTC(),
	}
	if actor.ID != "" {
		dec.ApprovedBy = null.StringFrom(actor.ID)
	} else if rule.RequiresApproval {
		return Decision{}, core.NewValidationError(
			fmt.Errorf("rule for %s requires an approver", rule.ClassLevel),
			core.FieldError{Field: "approved_by", Error: "this rule requires an approver"},
		)
	}
	if override != nil {
		if err := override.Validate(); err != nil {
			return Decision{}, err
		}
		dec.Status = override.Status
		dec.OverrideReason = null.StringFrom(override.Reason)
		if override.ApprovedBy.ID != "" {
			dec.ApprovedBy = null.StringFrom(override.ApprovedBy.ID)
		}
	}
	return dec, nil
}
