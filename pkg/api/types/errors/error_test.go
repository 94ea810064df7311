package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apierr "github.com/opst/gemdclient/pkg/api/types/errors"
)

func TestReason(t *testing.T) {
	for name, testcase := range map[string]struct {
		body []byte
		then string
	}{
		"api error": {
			body: []byte(`{"code": 400, "message": "invalid object"}`),
			then: "invalid object",
		},
		"api error with validation errors": {
			body: []byte(`{
				"code": 400, "message": "invalid object",
				"validation_errors": [
					{"failure_message": "must not be empty", "property": "name"},
					{"failure_message": "unknown template"}
				]
			}`),
			then: "invalid object\n - name: must not be empty\n - unknown template",
		},
		"structured message": {
			body: []byte(`{"message": {"reason": "gone"}}`),
			then: `{"reason": "gone"}`,
		},
		"not json": {
			body: []byte("  upstream connect error \n"),
			then: "upstream connect error",
		},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, testcase.then, apierr.Reason(testcase.body))
		})
	}
}

func TestNewApiError(t *testing.T) {
	herr := apierr.BadRequest("rejected", apierr.WithValidationError("tags", "too many"))
	assert.Equal(t, 400, herr.Code)

	ae, ok := herr.Message.(apierr.ApiError)
	if assert.True(t, ok) {
		assert.Equal(t, "rejected", ae.Message)
		assert.Equal(t, []apierr.ValidationError{{Property: "tags", FailureMessage: "too many"}}, ae.ValidationErrors)
	}
}
