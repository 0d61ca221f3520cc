package promotion

import (
	"fmt"
	"math"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/academics"
)

// Subject-name synonym sets for the required-pass subjects, matched
// case-sensitively against the grading feed's subject names.
var (
	EnglishSubjects = []string{"English", "English Language", "English Studies"}
	MathsSubjects   = []string{"Mathematics", "Maths", "Math"}
)

// Conditional-promotion tolerance: a student failing at most this many
// criteria, with a numeric annual average within this many percentage points
// of the minimum, is promoted conditionally instead of repeating.
const (
	conditionalMaxFailed = 2
	conditionalTolerance = 5.0
)

// Evaluation is the outcome of checking one student against a Rule.
// Numeric results that could not be computed (no term results, no attendance
// records) are null rather than zero, and count as failed criteria.
type Evaluation struct {
	AnnualAverage  null.Float64 `json:"annual_average"`
	TermsAvailable int          `json:"terms_available"`
	EnglishPassed  bool         `json:"english_passed"`
	MathsPassed    bool         `json:"maths_passed"`
	SubjectsPassed int          `json:"subjects_passed"`
	SubjectsTotal  int          `json:"subjects_total"`
	AttendancePct  null.Float64 `json:"attendance_pct"`
	ClassPosition  null.Int     `json:"class_position"`
	CriteriaMet    []string     `json:"criteria_met"`
	CriteriaFailed []string     `json:"criteria_failed"`
}

func (ev Evaluation) MeetsCriteria() bool {
	return len(ev.CriteriaFailed) == 0
}

// Recommend converts an evaluation into the engine's recommended status.
// Graduating levels (null target) never yield a conditional promotion: a
// failing student repeats.
func (ev Evaluation) Recommend(rule Rule) Status {
	if ev.MeetsCriteria() {
		if rule.ToClassLevel.Valid {
			return StatusPromoted
		}
		return StatusGraduated
	}
	if rule.ToClassLevel.Valid &&
		len(ev.CriteriaFailed) <= conditionalMaxFailed &&
		ev.AnnualAverage.Valid &&
		ev.AnnualAverage.Float64 >= rule.MinAnnualAverage-conditionalTolerance {
		return StatusConditional
	}
	return StatusRepeated
}

// Evaluate checks a student's results for one academic year against a rule.
// All five criteria (annual average, English, Mathematics, subjects passed,
// attendance) are checked independently; each lands in CriteriaMet or
// CriteriaFailed with a textual reason. The English/Mathematics criteria only
// apply when the rule requires them.
func Evaluate(rule Rule, terms []academics.TermResult, subjects []academics.SubjectResult, attendance []academics.AttendanceRecord) Evaluation {
	ev := Evaluation{TermsAvailable: len(terms)}
	met := func(format string, args ...interface{}) {
		ev.CriteriaMet = append(ev.CriteriaMet, fmt.Sprintf(format, args...))
	}
	failed := func(format string, args ...interface{}) {
		ev.CriteriaFailed = append(ev.CriteriaFailed, fmt.Sprintf(format, args...))
	}

	// annual average
	ev.AnnualAverage = annualAverage(rule, terms)
	switch {
	case !ev.AnnualAverage.Valid:
		failed("annual average unavailable: no term results")
	case ev.AnnualAverage.Float64 >= rule.MinAnnualAverage:
		met("annual average %.2f meets minimum %.2f", ev.AnnualAverage.Float64, rule.MinAnnualAverage)
	default:
		failed("annual average %.2f below minimum %.2f", ev.AnnualAverage.Float64, rule.MinAnnualAverage)
	}

	// subject passes, deduplicated by subject identity: a subject is passed
	// if it meets the minimum in any available term
	passedBySubject := make(map[string]bool)
	for _, sr := range subjects {
		if sr.Pct >= rule.MinSubjectPassPct {
			passedBySubject[sr.SubjectID] = true
		} else if _, seen := passedBySubject[sr.SubjectID]; !seen {
			passedBySubject[sr.SubjectID] = false
		}
	}
	ev.SubjectsTotal = len(passedBySubject)
	for _, passed := range passedBySubject {
		if passed {
			ev.SubjectsPassed++
		}
	}

	ev.EnglishPassed = subjectPassed(subjects, EnglishSubjects, rule.MinSubjectPassPct)
	ev.MathsPassed = subjectPassed(subjects, MathsSubjects, rule.MinSubjectPassPct)
	if rule.RequireEnglishPass {
		if ev.EnglishPassed {
			met("English passed")
		} else {
			failed("English not passed")
		}
	}
	if rule.RequireMathsPass {
		if ev.MathsPassed {
			met("Mathematics passed")
		} else {
			failed("Mathematics not passed")
		}
	}

	// minimum subjects passed
	if ev.SubjectsPassed >= rule.MinPassedSubjects {
		met("passed %d of %d subjects (minimum %d)", ev.SubjectsPassed, ev.SubjectsTotal, rule.MinPassedSubjects)
	} else {
		failed("passed %d of %d subjects (minimum %d)", ev.SubjectsPassed, ev.SubjectsTotal, rule.MinPassedSubjects)
	}

	// attendance
	ev.AttendancePct = attendancePct(attendance)
	switch {
	case !ev.AttendancePct.Valid:
		failed("attendance unavailable: no records in period")
	case ev.AttendancePct.Float64 >= rule.MinAttendancePct:
		met("attendance %.2f%% meets minimum %.2f%%", ev.AttendancePct.Float64, rule.MinAttendancePct)
	default:
		failed("attendance %.2f%% below minimum %.2f%%", ev.AttendancePct.Float64, rule.MinAttendancePct)
	}

	// class position comes from the most recent available term; it is
	// informational, not a criterion
	ev.ClassPosition = latestPosition(terms)

	return ev
}

// annualAverage computes the year average over the available terms: the
// arithmetic mean in simple mode, or the weighted sum renormalized by the sum
// of the weights of the terms actually present, so that missing terms do not
// deflate the average. Null when no terms are available.
func annualAverage(rule Rule, terms []academics.TermResult) null.Float64 {
	if len(terms) == 0 {
		return null.Float64{}
	}
	var sum, weightSum float64
	for _, t := range terms {
		w := rule.termWeight(t.Term)
		sum += t.AveragePct * w
		weightSum += w
	}
	if weightSum <= 0 {
		return null.Float64{}
	}
	return null.Float64From(round2(sum / weightSum))
}

// subjectPassed reports whether any subject named in the synonym set met the
// minimum in any available term.
func subjectPassed(subjects []academics.SubjectResult, names []string, minPct float64) bool {
	for _, sr := range subjects {
		if sr.Pct < minPct {
			continue
		}
		for _, name := range names {
			if sr.SubjectName == name {
				return true
			}
		}
	}
	return false
}

// attendancePct is present days over recorded days; null when no days were
// recorded, not a divide-by-zero fallback to 0%.
func attendancePct(records []academics.AttendanceRecord) null.Float64 {
	if len(records) == 0 {
		return null.Float64{}
	}
	var present int
	for _, rec := range records {
		if rec.Present {
			present++
		}
	}
	return null.Float64From(round2(float64(present) / float64(len(records)) * 100))
}

// latestPosition takes the class position from the most recent available term
// (term 3 preferred, then 2, then 1); it is never recomputed.
func latestPosition(terms []academics.TermResult) null.Int {
	var latest *academics.TermResult
	for i := range terms {
		if latest == nil || terms[i].Term > latest.Term {
			latest = &terms[i]
		}
	}
	if latest == nil {
		return null.Int{}
	}
	return null.IntFrom(latest.Position)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
