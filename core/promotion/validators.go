package promotion

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

var (
	statusTag  = "promostatus"
	statusText = "invalid promotion status"

	termWeightsTag  = "termweights"
	termWeightsText = "term weights must sum to a positive total"

	classLevelTag = "classlevel" // registered by the school package
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(statusTag, statusText)

	core.Validate.RegisterStructValidation(ruleStructValidation, Rule{})
	core.RegisterCustomTranslation(termWeightsTag, termWeightsText)
}

// Custom Validators

// statusValidation checks that the provided value is a known promotion status.
func statusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}

// ruleStructValidation does struct level validation on Rule.
func ruleStructValidation(sl validator.StructLevel) {
	rule := sl.Current().Interface().(Rule)

	// weights must sum to a positive total when weighted mode is active
	if rule.UseWeightedTerms {
		if rule.Term1Weight+rule.Term2Weight+rule.Term3Weight <= 0 {
			sl.ReportError(rule.Term1Weight, "term1_weight", "Term1Weight", termWeightsTag, "")
		}
	}

	if rule.ToClassLevel.Valid && !school.ClassLevel(rule.ToClassLevel.String).Valid() {
		sl.ReportError(rule.ToClassLevel, "to_class_level", "ToClassLevel", classLevelTag, "")
	}
}
