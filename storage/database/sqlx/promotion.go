package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
)

type ruleRepository struct {
	exec core.DBExecutor
}

var _ promotion.RuleRepository = (*ruleRepository)(nil) // interface compliance check

func NewRuleRepository(exec core.DBExecutor) *ruleRepository {
	return &ruleRepository{exec: exec}
}

type ruleRow struct {
	ID                 string      `db:"id"`
	ClassLevel         string      `db:"class_level"`
	ToClassLevel       null.String `db:"to_class_level"`
	UseWeightedTerms   bool        `db:"use_weighted_terms"`
	Term1Weight        float64     `db:"term1_weight"`
	Term2Weight        float64     `db:"term2_weight"`
	Term3Weight        float64     `db:"term3_weight"`
	MinAnnualAverage   float64     `db:"minimum_annual_average"`
	MinSubjectPassPct  float64     `db:"minimum_subject_pass_pct"`
	RequireEnglishPass bool        `db:"require_english_pass"`
	RequireMathsPass   bool        `db:"require_mathematics_pass"`
	MinPassedSubjects  int         `db:"minimum_passed_subjects"`
	MinAttendancePct   float64     `db:"minimum_attendance_percentage"`
	RequiresApproval   bool        `db:"requires_approval"`
	IsActive           bool        `db:"is_active"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
}

func (r ruleRow) rule() promotion.Rule {
	return promotion.Rule{
		ID:                 r.ID,
		ClassLevel:         school.ClassLevel(r.ClassLevel),
		ToClassLevel:       r.ToClassLevel,
		UseWeightedTerms:   r.UseWeightedTerms,
		Term1Weight:        r.Term1Weight,
		Term2Weight:        r.Term2Weight,
		Term3Weight:        r.Term3Weight,
		MinAnnualAverage:   r.MinAnnualAverage,
		MinSubjectPassPct:  r.MinSubjectPassPct,
		RequireEnglishPass: r.RequireEnglishPass,
		RequireMathsPass:   r.RequireMathsPass,
		MinPassedSubjects:  r.MinPassedSubjects,
		MinAttendancePct:   r.MinAttendancePct,
		RequiresApproval:   r.RequiresApproval,
		IsActive:           r.IsActive,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

const ruleSelect = `
SELECT id, class_level, to_class_level, use_weighted_terms, term1_weight, term2_weight, term3_weight,
       minimum_annual_average, minimum_subject_pass_pct, require_english_pass, require_mathematics_pass,
       minimum_passed_subjects, minimum_attendance_percentage, requires_approval, is_active, created_at, updated_at
FROM promotion_rule`

func (repo ruleRepository) GetActiveRuleByClassLevel(ctx context.Context, level school.ClassLevel, exec ...core.DBExecutor) (promotion.Rule, error) {
	var row ruleRow
	err := getExec(repo.exec, exec).GetContext(
		ctx, &row, ruleSelect+` WHERE class_level = $1 AND is_active`, string(level))
	if err == sql.ErrNoRows {
		return promotion.Rule{}, promotion.ErrNoActiveRule
	}
	if err != nil {
		return promotion.Rule{}, errors.Wrap(err, "getting promotion rule")
	}
	return row.rule(), nil
}

func (repo ruleRepository) CreateRule(ctx context.Context, rule promotion.Rule, exec ...core.DBExecutor) (promotion.Rule, error) {
	if err := rule.Validate(); err != nil {
		return promotion.Rule{}, err
	}
	rule.ID = uuid.New().String()
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	_, err := getExec(repo.exec, exec).ExecContext(ctx,
		`INSERT INTO promotion_rule (id, class_level, to_class_level, use_weighted_terms, term1_weight, term2_weight, term3_weight,
		   minimum_annual_average, minimum_subject_pass_pct, require_english_pass, require_mathematics_pass,
		   minimum_passed_subjects, minimum_attendance_percentage, requires_approval, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		rule.ID, string(rule.ClassLevel), rule.ToClassLevel, rule.UseWeightedTerms,
		rule.Term1Weight, rule.Term2Weight, rule.Term3Weight,
		rule.MinAnnualAverage, rule.MinSubjectPassPct, rule.RequireEnglishPass, rule.RequireMathsPass,
		rule.MinPassedSubjects, rule.MinAttendancePct, rule.RequiresApproval, rule.IsActive,
		rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return promotion.Rule{}, errors.Wrap(err, "inserting promotion rule")
	}
	return rule, nil
}

type decisionRepository struct {
	exec core.DBExecutor
}

var _ promotion.DecisionRepository = (*decisionRepository)(nil) // interface compliance check

func NewDecisionRepository(exec core.DBExecutor) *decisionRepository {
	return &decisionRepository{exec: exec}
}

type decisionRow struct {
	ID                string         `db:"id"`
	StudentID         string         `db:"student_id"`
	RuleID            string         `db:"rule_id"`
	AcademicYear      string         `db:"academic_year"`
	Status            string         `db:"status"`
	RecommendedStatus string         `db:"recommended_status"`
	OverrideReason    null.String    `db:"override_reason"`
	AnnualAverage     null.Float64   `db:"annual_average"`
	AttendancePct     null.Float64   `db:"attendance_pct"`
	SubjectsPassed    int            `db:"subjects_passed"`
	SubjectsTotal     int            `db:"subjects_total"`
	ClassPosition     null.Int       `db:"class_position"`
	CriteriaMet       pq.StringArray `db:"criteria_met"`
	CriteriaFailed    pq.StringArray `db:"criteria_failed"`
	FromClassroomID   null.String    `db:"from_classroom_id"`
	ToClassLevel      null.String    `db:"to_class_level"`
	ApprovedBy        null.String    `db:"approved_by"`
	CreatedAt         time.Time      `db:"created_at"`
}

func (r decisionRow) decision() promotion.Decision {
	return promotion.Decision{
		ID:                r.ID,
		StudentID:         r.StudentID,
		RuleID:            r.RuleID,
		AcademicYear:      r.AcademicYear,
		Status:            promotion.Status(r.Status),
		RecommendedStatus: promotion.Status(r.RecommendedStatus),
		OverrideReason:    r.OverrideReason,
		AnnualAverage:     r.AnnualAverage,
		AttendancePct:     r.AttendancePct,
		SubjectsPassed:    r.SubjectsPassed,
		SubjectsTotal:     r.SubjectsTotal,
		ClassPosition:     r.ClassPosition,
		CriteriaMet:       r.CriteriaMet,
		CriteriaFailed:    r.CriteriaFailed,
		FromClassroomID:   r.FromClassroomID,
		ToClassLevel:      r.ToClassLevel,
		ApprovedBy:        r.ApprovedBy,
		CreatedAt:         r.CreatedAt,
	}
}

func (repo decisionRepository) CreateDecision(ctx context.Context, dec promotion.Decision, exec ...core.DBExecutor) (promotion.Decision, error) {
	dec.ID = uuid.New().String()
	if dec.CreatedAt.IsZero() {
		dec.CreatedAt = time.Now().UTC()
	}
	_, err := getExec(repo.exec, exec).ExecContext(ctx,
		`INSERT INTO promotion_decision (id, student_id, rule_id, academic_year, status, recommended_status,
		   override_reason, annual_average, attendance_pct, subjects_passed, subjects_total, class_position,
		   criteria_met, criteria_failed, from_classroom_id, to_class_level, approved_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		dec.ID, dec.StudentID, dec.RuleID, dec.AcademicYear, string(dec.Status), string(dec.RecommendedStatus),
		dec.OverrideReason, dec.AnnualAverage, dec.AttendancePct, dec.SubjectsPassed, dec.SubjectsTotal, dec.ClassPosition,
		pq.StringArray(dec.CriteriaMet), pq.StringArray(dec.CriteriaFailed),
		dec.FromClassroomID, dec.ToClassLevel, dec.ApprovedBy, dec.CreatedAt)
	if err != nil {
		return promotion.Decision{}, errors.Wrap(err, "inserting promotion decision")
	}
	return dec, nil
}

func (repo decisionRepository) QueryDecisionsByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]promotion.Decision, error) {
	ordering := core.DBOrdering{Field: "created_at"}
	var rows []decisionRow
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		`SELECT id, student_id, rule_id, academic_year, status, recommended_status, override_reason,
		   annual_average, attendance_pct, subjects_passed, subjects_total, class_position,
		   criteria_met, criteria_failed, from_classroom_id, to_class_level, approved_by, created_at
		 FROM promotion_decision WHERE student_id = $1 ORDER BY `+ordering.String(), studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying promotion decisions")
	}
	decs := make([]promotion.Decision, 0, len(rows))
	for _, row := range rows {
		decs = append(decs, row.decision())
	}
	return decs, nil
}
