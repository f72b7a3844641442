package schedule

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ekklesia/core"
)

var (
	scheduleSizeTag  = "schedulesize"
	scheduleSizeText = "must be one of 1, 2, 3, 4, 5, 6, 8 or 10"

	errSongsNotAllowed     = "songs are only allowed on worship schedules"
	errClassroomNotAllowed = "a classroom is only allowed on bible school schedules"
	errUnknownMembers      = "unknown members: not in this department's roster"
	errUnknownSongs        = "unknown songs"
)

// RegisterValidators registers the schedule validations & translations.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(scheduleSizeTag, scheduleSizeValidation)
	core.RegisterCustomTranslation(validate, translator, scheduleSizeTag, scheduleSizeText)
}

func scheduleSizeValidation(fl validator.FieldLevel) bool {
	size := int(fl.Field().Int())
	for _, s := range Sizes {
		if size == s {
			return true
		}
	}
	return false
}

func checkDepartmentRules(dept core.Department, songIDs []string, classroomID string) error {
	var flds []core.FieldError
	if len(songIDs) > 0 && dept != core.DepartmentWorship {
		flds = append(flds, core.FieldError{Field: "song_ids", Error: errSongsNotAllowed})
	}
	if classroomID != "" && dept != core.DepartmentBibleSchool {
		flds = append(flds, core.FieldError{Field: "classroom_id", Error: errClassroomNotAllowed})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}
