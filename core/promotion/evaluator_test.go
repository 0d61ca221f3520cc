package promotion

import (
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/academics"
	"github.com/trezcool/shule/core/school"
)

func term(n int, avg float64, position int) academics.TermResult {
	return academics.TermResult{StudentID: "s1", AcademicYear: "2025/2026", Term: n, AveragePct: avg, Position: position}
}

func subject(termN int, name string, pct float64) academics.SubjectResult {
	return academics.SubjectResult{
		StudentID:    "s1",
		AcademicYear: "2025/2026",
		Term:         termN,
		SubjectID:    name,
		SubjectName:  name,
		Pct:          pct,
	}
}

func attendance(present, total int) []academics.AttendanceRecord {
	recs := make([]academics.AttendanceRecord, 0, total)
	for i := 0; i < total; i++ {
		recs = append(recs, academics.AttendanceRecord{StudentID: "s1", Present: i < present})
	}
	return recs
}

func Test_annualAverage(t *testing.T) {
	simple := Rule{MinAnnualAverage: 50}
	weighted := Rule{UseWeightedTerms: true, Term1Weight: 0.33, Term2Weight: 0.33, Term3Weight: 0.34}

	tests := []struct {
		name  string
		rule  Rule
		terms []academics.TermResult
		want  null.Float64
	}{
		{name: "no terms", rule: simple, want: null.Float64{}},
		{name: "simple mean", rule: simple, terms: []academics.TermResult{term(1, 60, 5), term(2, 70, 4), term(3, 80, 3)}, want: null.Float64From(70)},
		{name: "simple mean, missing term", rule: simple, terms: []academics.TermResult{term(1, 60, 5), term(3, 80, 3)}, want: null.Float64From(70)},
		{name: "weighted", rule: weighted, terms: []academics.TermResult{term(1, 60, 5), term(2, 70, 4), term(3, 80, 3)}, want: null.Float64From(70.1)},
		{
			// the missing term's weight must not deflate the average:
			// (70*0.33 + 80*0.33) / 0.66 = 75, not 49.5
			name:  "weighted, missing term renormalizes",
			rule:  weighted,
			terms: []academics.TermResult{term(1, 70, 5), term(2, 80, 4)},
			want:  null.Float64From(75),
		},
		{
			name:  "weighted, zero weights",
			rule:  Rule{UseWeightedTerms: true},
			terms: []academics.TermResult{term(1, 70, 5)},
			want:  null.Float64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := annualAverage(tt.rule, tt.terms); got != tt.want {
				t.Errorf("annualAverage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	rule := Rule{
		ClassLevel:         school.LevelJSS1,
		ToClassLevel:       null.StringFrom(string(school.LevelJSS2)),
		MinAnnualAverage:   50,
		MinSubjectPassPct:  40,
		RequireEnglishPass: true,
		RequireMathsPass:   true,
		MinPassedSubjects:  4,
		MinAttendancePct:   75,
	}

	passingSubjects := []academics.SubjectResult{
		subject(3, "English Language", 55),
		subject(3, "Mathematics", 48),
		subject(3, "Basic Science", 62),
		subject(3, "Social Studies", 70),
	}

	t.Run("all criteria met", func(t *testing.T) {
		ev := Evaluate(rule,
			[]academics.TermResult{term(1, 55, 8), term(2, 60, 6), term(3, 65, 4)},
			passingSubjects,
			attendance(18, 20),
		)
		if !ev.MeetsCriteria() {
			t.Fatalf("MeetsCriteria() = false, failed: %v", ev.CriteriaFailed)
		}
		if got, want := ev.AnnualAverage, null.Float64From(60.0); got != want {
			t.Errorf("AnnualAverage = %v, want %v", got, want)
		}
		if got, want := ev.AttendancePct, null.Float64From(90.0); got != want {
			t.Errorf("AttendancePct = %v, want %v", got, want)
		}
		if got, want := ev.ClassPosition, null.IntFrom(4); got != want {
			t.Errorf("ClassPosition = %v, want %v", got, want)
		}
		if ev.SubjectsPassed != 4 || ev.SubjectsTotal != 4 {
			t.Errorf("SubjectsPassed/Total = %d/%d, want 4/4", ev.SubjectsPassed, ev.SubjectsTotal)
		}
	})

	t.Run("subject passed in any term counts", func(t *testing.T) {
		subjects := []academics.SubjectResult{
			subject(1, "Mathematics", 45), // passed term 1
			subject(2, "Mathematics", 30), // failed later terms
			subject(3, "Mathematics", 35),
		}
		ev := Evaluate(Rule{MinSubjectPassPct: 40, RequireMathsPass: true}, nil, subjects, nil)
		if !ev.MathsPassed {
			t.Error("MathsPassed = false, want true")
		}
		if ev.SubjectsPassed != 1 || ev.SubjectsTotal != 1 {
			t.Errorf("SubjectsPassed/Total = %d/%d, want 1/1", ev.SubjectsPassed, ev.SubjectsTotal)
		}
	})

	t.Run("synonyms are matched case-sensitively", func(t *testing.T) {
		subjects := []academics.SubjectResult{subject(1, "mathematics", 80)}
		ev := Evaluate(Rule{MinSubjectPassPct: 40, RequireMathsPass: true}, nil, subjects, nil)
		if ev.MathsPassed {
			t.Error("MathsPassed = true for lowercase subject name, want false")
		}
	})

	t.Run("missing data fails, not zeroes", func(t *testing.T) {
		ev := Evaluate(rule, nil, passingSubjects, nil)
		if ev.AnnualAverage.Valid {
			t.Errorf("AnnualAverage = %v, want null", ev.AnnualAverage)
		}
		if ev.AttendancePct.Valid {
			t.Errorf("AttendancePct = %v, want null", ev.AttendancePct)
		}
		wantFailed := []string{
			"annual average unavailable: no term results",
			"attendance unavailable: no records in period",
		}
		for _, want := range wantFailed {
			var found bool
			for _, got := range ev.CriteriaFailed {
				if got == want {
					found = true
				}
			}
			if !found {
				t.Errorf("CriteriaFailed missing %q; got %v", want, ev.CriteriaFailed)
			}
		}
	})

	t.Run("optional criteria are skipped", func(t *testing.T) {
		bare := Rule{MinAnnualAverage: 50, MinSubjectPassPct: 40}
		ev := Evaluate(bare,
			[]academics.TermResult{term(1, 60, 1)},
			[]academics.SubjectResult{subject(1, "Basic Science", 30)},
			attendance(1, 2),
		)
		// English/Maths not required; MinPassedSubjects and MinAttendancePct
		// are 0 so they always pass
		if !ev.MeetsCriteria() {
			t.Errorf("MeetsCriteria() = false, failed: %v", ev.CriteriaFailed)
		}
	})
}

func TestEvaluation_Recommend(t *testing.T) {
	target := null.StringFrom(string(school.LevelJSS2))

	tests := []struct {
		name string
		ev   Evaluation
		rule Rule
		want Status
	}{
		{
			name: "meets criteria, has target",
			ev:   Evaluation{AnnualAverage: null.Float64From(60)},
			rule: Rule{ToClassLevel: target, MinAnnualAverage: 50},
			want: StatusPromoted,
		},
		{
			name: "meets criteria, graduating level",
			ev:   Evaluation{AnnualAverage: null.Float64From(60)},
			rule: Rule{MinAnnualAverage: 50},
			want: StatusGraduated,
		},
		{
			name: "one failure within tolerance",
			ev:   Evaluation{AnnualAverage: null.Float64From(47), CriteriaFailed: []string{"annual average 47.00 below minimum 50.00"}},
			rule: Rule{ToClassLevel: target, MinAnnualAverage: 50},
			want: StatusConditional,
		},
		{
			name: "two failures within tolerance",
			ev:   Evaluation{AnnualAverage: null.Float64From(46), CriteriaFailed: []string{"a", "b"}},
			rule: Rule{ToClassLevel: target, MinAnnualAverage: 50},
			want: StatusConditional,
		},
		{
			name: "too many failures",
			ev:   Evaluation{AnnualAverage: null.Float64From(47), CriteriaFailed: []string{"a", "b", "c"}},
			rule: Rule{ToClassLevel: target, MinAnnualAverage: 50},
			want: StatusRepeated,
		},
		{
			name: "average below tolerance",
			ev:   Evaluation{AnnualAverage: null.Float64From(40), CriteriaFailed: []string{"a", "b"}},
			rule: Rule{ToClassLevel: target, MinAnnualAverage: 50},
			want: StatusRepeated,
		},
		{
			name: "no average, no conditional",
			ev:   Evaluation{CriteriaFailed: []string{"annual average unavailable: no term results"}},
			rule: Rule{ToClassLevel: target, MinAnnualAverage: 50},
			want: StatusRepeated,
		},
		{
			name: "graduating level never conditional",
			ev:   Evaluation{AnnualAverage: null.Float64From(47), CriteriaFailed: []string{"a"}},
			rule: Rule{MinAnnualAverage: 50},
			want: StatusRepeated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.Recommend(tt.rule); got != tt.want {
				t.Errorf("Recommend() = %v, want %v", got, tt.want)
			}
		})
	}
}
