package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Age   int    `validate:"gte=0"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "ann"}))
}

func TestStruct_AggregatesAllViolations(t *testing.T) {
	err := Struct(sample{Email: "nope", Age: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'name' failed 'required'")
	assert.Contains(t, err.Error(), "field 'email' failed 'email'")
	assert.Contains(t, err.Error(), "field 'Age' failed 'gte'")
}

func TestFirst_ReturnsFirstFieldInOrder(t *testing.T) {
	fe := First(sample{Name: "toolongname", Email: "nope"})
	require.NotNil(t, fe)
	assert.Equal(t, "name", fe.Field)
	assert.Equal(t, "max", fe.Tag)
}

func TestFirst_NilWhenValid(t *testing.T) {
	assert.Nil(t, First(sample{Name: "ok"}))
}
