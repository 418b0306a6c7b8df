package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type formInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Level int    `json:"level" validate:"oneof=0 25 50"`
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	errs := ValidateStruct(&formInput{Email: "nope", Level: 10})

	assert.Equal(t, "name is required", errs["name"])
	assert.Equal(t, "email must be a valid email", errs["email"])
	assert.Equal(t, "level must be one of 0 25 50", errs["level"])
}

func TestValidateStructPasses(t *testing.T) {
	assert.Nil(t, ValidateStruct(&formInput{Name: "Asha", Level: 25}))
}
