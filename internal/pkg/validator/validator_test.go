package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email  string `validate:"required,email"`
	Rating int    `validate:"min=1,max=5"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{Email: "a@b.co", Rating: 3}))

	errs := Validate(sample{Email: "nope", Rating: 9})
	assert.Equal(t, "email", errs["email"])
	assert.Equal(t, "max", errs["rating"])
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("0b3b5d7e-5f7c-4c43-8a3e-7c0b8d3f2a11", "uuid"))
	assert.Error(t, Var("42", "uuid"))
}
