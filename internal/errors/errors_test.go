package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrNotFound,
		ErrTransport,
		ErrParse,
		ErrExec,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid configuration in .provmon.yaml",
			suggestion: "Check your configuration file syntax",
		},
		{
			name:       "exec error",
			code:       ErrExec,
			message:    "Cache has been disposed",
			suggestion: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
		notExpected   []string
	}{
		{
			name:          "basic error formatting",
			err:           New(ErrConfig, "Invalid configuration", "Check .provmon.yaml syntax"),
			expectedParts: []string{"✗", "Invalid configuration", "Check .provmon.yaml syntax"},
		},
		{
			name:          "error with cause",
			err:           Transport("http://geode:8080", fmt.Errorf("connection refused")),
			expectedParts: []string{"http://geode:8080", "connection refused"},
		},
		{
			name:          "error without suggestion",
			err:           New(ErrExec, "Command failed", ""),
			expectedParts: []string{"Command failed"},
			notExpected:   []string{"\n\n  \n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()
			for _, part := range tt.expectedParts {
				assert.Contains(t, output, part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, output, part)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying network error")
	wrapped := Wrap(cause, "Fetch failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrTransport, wrapped.Code, "Wrap should default to ErrTransport code")
	assert.Equal(t, cause, wrapped.Cause)
	assert.True(t, errors.Is(wrapped, cause))
}

func TestWrapWithCode(t *testing.T) {
	cause := errors.New("file not found")
	wrapped := WrapWithCode(cause, ErrConfig, "Failed to load config", "Create .provmon.yaml")

	assert.Equal(t, ErrConfig, wrapped.Code)
	assert.Equal(t, "Create .provmon.yaml", wrapped.Suggestion)
	assert.Equal(t, cause, wrapped.Unwrap())
	assert.Contains(t, wrapped.Error(), "file not found")
}

func TestTaxonomyConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		notFound  bool
		transport bool
		parse     bool
	}{
		{"machine not found", NotFound("machine", "geode-0"), true, false, false},
		{"provider not found", NotFound("provider", "p1"), true, false, false},
		{"transport", Transport("http://x", errors.New("dial tcp")), false, true, false},
		{"transport status", TransportStatus("http://x", 500), false, true, false},
		{"parse", Parse("http://x", errors.New("unexpected EOF")), false, false, true},
		{"wrapped twice", fmt.Errorf("loading: %w", Parse("http://x", nil)), false, false, true},
		{"plain error", errors.New("boom"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.transport, IsTransport(tt.err))
			assert.Equal(t, tt.parse, IsParse(tt.err))
		})
	}
}

func TestNotFound_Message(t *testing.T) {
	err := NotFound("machine", "geode-0")
	assert.Equal(t, "Machine 'geode-0' not found", err.Message)
	assert.Contains(t, err.Suggestion, "machines list")

	err = NotFound("provider", "abc")
	assert.Equal(t, "Provider 'abc' not found", err.Message)
	assert.Contains(t, err.Suggestion, "machines show")
}

func TestTransportStatus_Message(t *testing.T) {
	err := TransportStatus("http://geode/providers", 503)
	assert.Contains(t, err.Message, "HTTP 503")
	assert.Nil(t, err.Cause)
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "Config error", "")

	assert.True(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(err, ErrParse))
	assert.False(t, IsCode(errors.New("standard error"), ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "", Summary(nil))
	assert.Equal(t, "boom", Summary(errors.New("boom")))
	assert.Equal(t, "Machine 'x' not found", Summary(NotFound("machine", "x")))
	assert.Equal(t,
		"Couldn't reach status endpoint http://x: refused",
		Summary(Transport("http://x", errors.New("refused"))))
}

func TestErrorMessageStructure(t *testing.T) {
	err := WrapWithCode(
		errors.New("connection timed out after 10s"),
		ErrTransport,
		"Cannot reach status endpoint",
		"Check the machine is online",
	)

	lines := strings.Split(err.Error(), "\n")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "✗"))
	assert.Contains(t, lines[0], "Cannot reach status endpoint")
}
