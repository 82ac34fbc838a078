package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUnknownCommandError(t *testing.T) {
	assert.True(t, isUnknownCommandError(fmt.Errorf(`unknown command "dashbord" for "provmon"`)))
	assert.True(t, isUnknownCommandError(fmt.Errorf("unknown flag: --jsn")))
	assert.True(t, isUnknownCommandError(fmt.Errorf("unknown shorthand flag: 'x' in -x")))
	assert.False(t, isUnknownCommandError(fmt.Errorf("Machine 'x' not found")))
}

func TestExtractUnknownCommand(t *testing.T) {
	assert.Equal(t, "dashbord", extractUnknownCommand(fmt.Errorf(`unknown command "dashbord" for "provmon"`)))
	assert.Empty(t, extractUnknownCommand(fmt.Errorf("unknown flag: --jsn")))
	assert.Empty(t, extractUnknownCommand(fmt.Errorf(`unterminated "quote`)))
}

func TestReportError_Human(t *testing.T) {
	setMachineMode(t, false)
	var stdout, stderr bytes.Buffer

	reportError(&stdout, &stderr, errors.NotFound("machine", "geode-0"))

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "✗ Machine 'geode-0' not found")
	assert.Contains(t, stderr.String(), "provmon machines list")
}

func TestReportError_UnknownCommandSuggests(t *testing.T) {
	setMachineMode(t, false)
	var stdout, stderr bytes.Buffer

	reportError(&stdout, &stderr, fmt.Errorf(`unknown command "overveiw" for "provmon"`))

	out := stderr.String()
	assert.Contains(t, out, "Did you mean: overview?")
	assert.Contains(t, out, "Run 'provmon --help' for usage.")
}

func TestReportError_JSON(t *testing.T) {
	setMachineMode(t, true)
	var stdout, stderr bytes.Buffer

	reportError(&stdout, &stderr, errors.NotFound("provider", "p9"))

	assert.Empty(t, stderr.String())
	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, ErrCodeProviderNotFound, env.Error.Code)
}
