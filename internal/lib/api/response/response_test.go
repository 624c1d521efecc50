package response

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title  string  `validate:"required"`
	Link   string  `validate:"omitempty,url"`
	Status string  `validate:"omitempty,oneof=draft published"`
	Price  float64 `validate:"gte=0"`
	Code   string  `validate:"omitempty,len=3"`
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := validator.New().Struct(sample{Link: "nope", Status: "gone", Price: -1, Code: "ab"})
	require.Error(t, err)

	var validateErr validator.ValidationErrors
	require.True(t, errors.As(err, &validateErr))

	resp := ValidationError(validateErr)

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Title is a required field")
	assert.Contains(t, resp.Error, "field Link is not a valid URL")
	assert.Contains(t, resp.Error, "field Status must be one of [draft published]")
	assert.Contains(t, resp.Error, "field Price must be at least 0")
	assert.Contains(t, resp.Error, "field Code is not valid")
}

func TestOKAndError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Response{Status: "OK"}, OK())
	assert.Equal(t, Response{Status: "Error", Error: "boom"}, Error("boom"))
}
