package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type card struct {
	Question string `validate:"required,max=10"`
	Answer   string `validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(card{Question: "2+2?", Answer: "4"}))

	err := ValidateStruct(card{Question: "a very long question"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card.Question, Tag: max, Param: 10")
	assert.Contains(t, err.Error(), "card.Answer, Tag: required")

	assert.Error(t, ValidateStruct(42))
}
