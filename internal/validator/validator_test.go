package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memberForm struct {
	FirstName   string `json:"first_name" validate:"required,max=5"`
	Email       string `json:"email" validate:"required,email"`
	YearOfStudy int    `json:"year_of_study" validate:"gte=1,lte=8"`
	Program     string `form:"program" validate:"omitempty,oneof=cs math"`
}

func TestValidatorStruct(t *testing.T) {
	v := New()

	require.Nil(t, v.Struct(memberForm{FirstName: "Ada", Email: "ada@example.edu", YearOfStudy: 2, Program: "cs"}))

	errs := v.Struct(memberForm{FirstName: "Adelaide", Email: "nope", YearOfStudy: 9, Program: "art"})
	require.NotNil(t, errs)

	assert.Equal(t, FieldErrors{
		"first_name":    "first_name must be at most 5 characters long",
		"email":         "email must be a valid email address",
		"year_of_study": "year_of_study must be 8 or less",
		"program":       "program must be one of [cs math]",
	}, errs.FieldErrors())
	assert.Contains(t, errs.Error(), "first_name")
}

func TestValidatorStructRequired(t *testing.T) {
	errs := New().Struct(memberForm{YearOfStudy: 1})
	require.NotNil(t, errs)
	assert.Equal(t, "first_name is a required field", errs.FieldErrors()["first_name"])
}

func TestValidationErrorsKeepsFirstMessage(t *testing.T) {
	var errs ValidationErrors
	errs.AddFieldError("file", "file is required")
	errs.AddFieldError("file", "second")
	assert.Equal(t, FieldErrors{"file": "file is required"}, errs.FieldErrors())
	assert.Equal(t, "{}", (&ValidationErrors{}).Error())
}
