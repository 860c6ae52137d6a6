package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaErrorUnwrap(t *testing.T) {
	root := errors.New("unexpected end of input")
	err := NewSchemaError("manifest.yaml", "missing name", root)

	require.Contains(t, err.Error(), "manifest.yaml")
	require.ErrorIs(t, err, root)

	se, ok := AsSchemaError(err)
	require.True(t, ok)
	require.Equal(t, "manifest.yaml", se.Path)
}

func TestKeyValidationErrorMessage(t *testing.T) {
	err := NewKeyValidationError("../escape")
	require.Contains(t, err.Error(), "../escape")
}

func TestAllowedSignersMissingErrorHasHint(t *testing.T) {
	err := NewAllowedSignersMissingError("action")
	require.Contains(t, err.Error(), "Hint:")
	require.Contains(t, err.Error(), "action")
}

func TestActionFailureErrorFormatting(t *testing.T) {
	err := NewActionFailureError("bad-host", "command: false", 1, "boom")
	afe, ok := AsActionFailureError(err)
	require.True(t, ok)
	require.Equal(t, 1, afe.ExitCode)
	require.Contains(t, err.Error(), "bad-host")
	require.Contains(t, err.Error(), "boom")
}

func TestTransportErrorUnwrap(t *testing.T) {
	root := errors.New("connection refused")
	err := NewTransportError("host-a", "dial", root)
	require.ErrorIs(t, err, root)
	te, ok := AsTransportError(err)
	require.True(t, ok)
	require.Equal(t, "dial", te.Op)
}
