package xxu

import (
	"errors"
	"io"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestError_Message verifies the "<subject>: <message>" rendering.
func TestError_Message(t *testing.T) {
	t.Parallel()

	err := NewError(ErrInputOpen, "os.tib", &fs.PathError{Op: "open", Path: "os.tib", Err: syscall.ENOENT})
	require.Equal(t, "os.tib: "+syscall.ENOENT.Error(), err.Error())
	require.ErrorIs(t, err, ErrInputOpen)
	require.ErrorIs(t, err, syscall.ENOENT)
	require.NotErrorIs(t, err, ErrOutputOpen)

	err = NewError(ErrOutputWrite, "os.89u", io.ErrShortWrite)
	require.Equal(t, "os.89u: short write", err.Error())
	require.ErrorIs(t, err, io.ErrShortWrite)

	var typed *Error

	wrapped := errors.Join(errors.New("context"), NewError(ErrMissingExtension, "output", nil))
	require.ErrorAs(t, wrapped, &typed)
	require.Equal(t, "output", typed.Subject)
}
