package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	cause := errors.New("boom")
	cases := []struct {
		status int
		want   string
	}{
		{429, "rate"},
		{408, "unavailable"},
		{500, "unavailable"},
		{503, "unavailable"},
		{0, "unavailable"},
		{400, "rejected"},
		{401, "rejected"},
		{404, "rejected"},
		{422, "rejected"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			err := classifyStatus(tc.status, cause)
			assert.ErrorIs(t, err, cause)
			var (
				rl   *ErrRateLimit
				down *ErrProviderUnavailable
				rej  *ErrRequestRejected
			)
			switch tc.want {
			case "rate":
				assert.ErrorAs(t, err, &rl)
			case "unavailable":
				assert.ErrorAs(t, err, &down)
			case "rejected":
				if assert.ErrorAs(t, err, &rej) {
					assert.Equal(t, tc.status, rej.Status)
				}
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":          {nil, false},
		"rate limit":   {&ErrRateLimit{}, true},
		"unavailable":  {&ErrProviderUnavailable{}, true},
		"invalid":      {&ErrInvalidResponse{Err: errors.New("x")}, true},
		"plain":        {errors.New("socket closed"), true},
		"rejected":     {&ErrRequestRejected{Status: 401}, false},
		"max tokens":   {&ErrMaxTokensExceeded{}, false},
		"refused":      {&ErrRefused{Reason: "safety"}, false},
		"wrapped":      {fmt.Errorf("call: %w", &ErrRefused{}), false},
		"canceled":     {context.Canceled, false},
		"deadline":     {fmt.Errorf("x: %w", context.DeadlineExceeded), false},
		"wrapped rate": {fmt.Errorf("x: %w", &ErrRateLimit{}), true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Retryable(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "LLM provider unavailable", (&ErrProviderUnavailable{}).Error())
	assert.Contains(t, (&ErrRequestRejected{Status: 403, Err: errors.New("forbidden")}).Error(), "HTTP 403")
	assert.Contains(t, (&ErrRefused{Reason: "safety"}).Error(), "safety")
}
