package promotion

import (
	"errors"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *core.ValidationError, got %T: %v", err, err)
	}
	flds := make(map[string]string, len(vErr.Fields))
	for _, fe := range vErr.Fields {
		flds[fe.Field] = fe.Error
	}
	return flds
}

func TestRule_Validate(t *testing.T) {
	valid := Rule{
		ClassLevel:        school.LevelJSS1,
		ToClassLevel:      null.StringFrom(string(school.LevelJSS2)),
		MinAnnualAverage:  50,
		MinSubjectPassPct: 40,
	}

	tests := []struct {
		name      string
		mutate    func(r Rule) Rule
		wantField string
	}{
		{name: "valid", mutate: func(r Rule) Rule { return r }},
		{name: "missing class level", mutate: func(r Rule) Rule { r.ClassLevel = ""; return r }, wantField: "class_level"},
		{name: "unknown class level", mutate: func(r Rule) Rule { r.ClassLevel = "SS4"; return r }, wantField: "class_level"},
		{name: "unknown target level", mutate: func(r Rule) Rule { r.ToClassLevel = null.StringFrom("SS4"); return r }, wantField: "to_class_level"},
		{name: "average over 100", mutate: func(r Rule) Rule { r.MinAnnualAverage = 101; return r }, wantField: "minimum_annual_average"},
		{name: "negative weight", mutate: func(r Rule) Rule { r.Term1Weight = -0.1; return r }, wantField: "term1_weight"},
		{
			name:      "weighted mode with zero weights",
			mutate:    func(r Rule) Rule { r.UseWeightedTerms = true; return r },
			wantField: "term1_weight",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(valid).Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if _, ok := fieldErrors(t, err)[tt.wantField]; !ok {
				t.Errorf("Validate() error does not mention %q: %v", tt.wantField, err)
			}
		})
	}
}

func TestOverride_Validate(t *testing.T) {
	tests := []struct {
		name     string
		override Override
		wantErr  bool
	}{
		{name: "valid", override: Override{Status: StatusPromoted, Reason: "appeal upheld"}},
		{name: "reason is trimmed", override: Override{Status: StatusRepeated, Reason: "  board decision  "}},
		{name: "unknown status", override: Override{Status: "expelled", Reason: "x"}, wantErr: true},
		{name: "missing reason", override: Override{Status: StatusPromoted}, wantErr: true},
		{name: "blank reason", override: Override{Status: StatusPromoted, Reason: "   "}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.override.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
