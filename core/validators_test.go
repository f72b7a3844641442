package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidator(t *testing.T) {
	validate, translator := NewValidator()

	type payload struct {
		Title      string     `json:"title" validate:"notblank"`
		Department Department `json:"department" validate:"required,department"`
		Date       Date       `json:"date" validate:"required"`
	}

	err := validate.Struct(payload{Title: "   ", Department: "choir"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	got := verrs.Translate(translator)
	assert.Equal(t, map[string]string{
		"payload.title":      "this field cannot be blank",
		"payload.department": "unknown department",
		"payload.date":       "this field is required",
	}, got)

	assert.NoError(t, validate.Struct(payload{Title: "Culto", Department: DepartmentSound, Date: NewDate(2024, 3, 10)}))
}
