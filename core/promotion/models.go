package promotion

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

// Promotion outcomes. Evaluation always terminates in exactly one of these;
// there is no pending or error status.
const (
	StatusPromoted    Status = "promoted"
	StatusConditional Status = "conditional"
	StatusRepeated    Status = "repeated"
	StatusGraduated   Status = "graduated"
)

var Statuses = []Status{StatusPromoted, StatusConditional, StatusRepeated, StatusGraduated}

type Status string

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Rule is the promotion policy for one class level. At most one active Rule
// exists per class level. A null ToClassLevel marks a graduating level.
type Rule struct {
	ID                 string            `json:"id"`
	ClassLevel         school.ClassLevel `json:"class_level" validate:"required,classlevel"`
	ToClassLevel       null.String       `json:"to_class_level"`
	UseWeightedTerms   bool              `json:"use_weighted_terms"`
	Term1Weight        float64           `json:"term1_weight" validate:"gte=0"`
	Term2Weight        float64           `json:"term2_weight" validate:"gte=0"`
	Term3Weight        float64           `json:"term3_weight" validate:"gte=0"`
	MinAnnualAverage   float64           `json:"minimum_annual_average" validate:"gte=0,lte=100"`
	MinSubjectPassPct  float64           `json:"minimum_subject_pass_pct" validate:"gte=0,lte=100"`
	RequireEnglishPass bool              `json:"require_english_pass"`
	RequireMathsPass   bool              `json:"require_mathematics_pass"`
	MinPassedSubjects  int               `json:"minimum_passed_subjects" validate:"gte=0"`
	MinAttendancePct   float64           `json:"minimum_attendance_percentage" validate:"gte=0,lte=100"`
	RequiresApproval   bool              `json:"requires_approval"`
	IsActive           bool              `json:"is_active"`
	CreatedAt          time.Time         `json:"created_at"` // UTC
	UpdatedAt          time.Time         `json:"updated_at"` // UTC
}

func (r Rule) Validate() error {
	return core.TranslateError(core.Validate.Struct(r))
}

// termWeight returns the weight of a term under this rule; 1 for every term
// when simple averaging is in use.
func (r Rule) termWeight(term int) float64 {
	if !r.UseWeightedTerms {
		return 1
	}
	switch term {
	case 1:
		return r.Term1Weight
	case 2:
		return r.Term2Weight
	case 3:
		return r.Term3Weight
	}
	return 0
}

// Decision is the persisted, auditable outcome of evaluating one student in
// one advancement cycle. It snapshots the evaluator's inputs and outputs and
// is never recomputed in place; a new cycle produces new decisions. When an
// administrator overrides the engine, both the recommendation and the final
// status are retained.
type Decision struct {
	ID                string       `json:"id"`
	StudentID         string       `json:"student_id"`
	RuleID            string       `json:"rule_id"`
	AcademicYear      string       `json:"academic_year"`
	Status            Status       `json:"status"`
	RecommendedStatus Status       `json:"recommended_status"`
	OverrideReason    null.String  `json:"override_reason"`
	AnnualAverage     null.Float64 `json:"annual_average"`
	AttendancePct     null.Float64 `json:"attendance_pct"`
	SubjectsPassed    int          `json:"subjects_passed"`
	SubjectsTotal     int          `json:"subjects_total"`
	ClassPosition     null.Int     `json:"class_position"`
	CriteriaMet       []string     `json:"criteria_met"`
	CriteriaFailed    []string     `json:"criteria_failed"`
	FromClassroomID   null.String  `json:"from_classroom_id"`
	ToClassLevel      null.String  `json:"to_class_level"`
	ApprovedBy        null.String  `json:"approved_by"`
	CreatedAt         time.Time    `json:"created_at"` // UTC
}

// Override is an administrative correction applied when a decision record is
// created, with an explicit reason for the audit trail.
type Override struct {
	Status     Status     `json:"status" validate:"required,promostatus"`
	Reason     string     `json:"reason" validate:"required"`
	ApprovedBy core.Actor `json:"approved_by"`
}

func (o *Override) Validate() error {
	o.Reason = core.CleanString(o.Reason)
	return core.TranslateError(core.Validate.Struct(o))
}
