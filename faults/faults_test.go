package faults

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestKindOfThroughWrapping(t *testing.T) {
	err := Wrap(StreamFault, io.ErrUnexpectedEOF, "read frame")
	wrapped := errors.Wrap(err, "tracker loop")

	require.Equal(t, StreamFault, KindOf(wrapped))
	require.True(t, Is(wrapped, StreamFault))
	require.True(t, errors.Is(wrapped, io.ErrUnexpectedEOF))
	require.Equal(t, io.ErrUnexpectedEOF, errors.Cause(wrapped))
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(InferenceFault, nil, "run"))
	require.Equal(t, Unknown, KindOf(nil))
	require.False(t, Is(nil, InferenceFault))
}

func TestFatal(t *testing.T) {
	testCases := []struct {
		kind  Kind
		fatal bool
	}{
		{HardwareUnavailable, true},
		{StreamFault, true},
		{ModelLoadFault, true},
		{InferenceFault, true},
		{ProtocolDecodeFault, false},
		{AssetFault, true},
	}
	for _, tC := range testCases {
		t.Run(tC.kind.String(), func(t *testing.T) {
			require.Equal(t, tC.fatal, tC.kind.Fatal())
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(AssetFault, "vertex %d has no normal", 7)
	require.EqualError(t, err, "asset fault: vertex 7 has no normal")
}
