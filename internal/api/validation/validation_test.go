package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title   string   `json:"title" validate:"required,notblank,max=10"`
	Link    string   `json:"applyLink,omitempty" validate:"omitempty,url"`
	State   string   `query:"state" validate:"omitempty,oneof=open closed all"`
	Labels  []string `json:"labels" validate:"omitempty,dive,issue_label"`
	Ignored string   `json:"-"`
}

func TestNew_ValidStruct(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(sample{Title: "Engineer", Link: "https://example.com", State: "open", Labels: []string{"bug"}}))
}

func TestDescribe(t *testing.T) {
	v := New()

	err := v.Struct(sample{Title: "   ", Link: "nope", State: "merged", Labels: []string{"a,b"}})
	require.Error(t, err)

	msg := Describe(err)
	assert.Contains(t, msg, "title is required")
	assert.Contains(t, msg, "applyLink must be a valid URL")
	assert.Contains(t, msg, "state must be one of [open closed all]")
	assert.Contains(t, msg, "contains an invalid label")
}

func TestDescribe_Max(t *testing.T) {
	err := New().Struct(sample{Title: "a very long job title"})
	require.Error(t, err)
	assert.Equal(t, "title must be at most 10 characters", Describe(err))
}
