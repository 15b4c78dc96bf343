package serrors

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `validate:"required"`
	Email string `validate:"omitempty,email"`
	Score int    `validate:"gte=0,lte=100"`
}

func TestProcessValidatorErrors(t *testing.T) {
	v := validator.New()
	errs := ProcessValidatorErrors(v.Struct(sample{Email: "nope", Score: 101}))
	require.Equal(t, "is required", errs["Name"])
	require.Equal(t, "must be a valid email", errs["Email"])
	require.Equal(t, "must be less than or equal to 100", errs["Score"])
	require.Equal(t, "Email: must be a valid email; Name: is required; Score: must be less than or equal to 100", errs.Error())

	wrapped := InvalidInput(errs)
	require.ErrorIs(t, wrapped, ErrValidation)
	var ve ValidationErrors
	require.True(t, errors.As(wrapped, &ve))
}

func TestProcessValidatorErrors_NonValidatorError(t *testing.T) {
	errs := ProcessValidatorErrors(errors.New("boom"))
	require.Equal(t, "boom", errs["_"])
	require.Empty(t, ProcessValidatorErrors(nil))
}
