package school

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	streamTag  = "stream"
	streamText = "invalid stream"

	classLevelTag  = "classlevel"
	classLevelText = "invalid class level"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(streamTag, streamValidation)
	core.RegisterCustomTranslation(streamTag, streamText)

	_ = core.Validate.RegisterValidation(classLevelTag, classLevelValidation)
	core.RegisterCustomTranslation(classLevelTag, classLevelText)
}

// Custom Validators

// streamValidation checks that the provided value is a known stream name.
func streamValidation(fl validator.FieldLevel) bool {
	return StreamName(fl.Field().String()).Valid()
}

// classLevelValidation checks that the provided value is a known class level.
func classLevelValidation(fl validator.FieldLevel) bool {
	return ClassLevel(fl.Field().String()).Valid()
}
