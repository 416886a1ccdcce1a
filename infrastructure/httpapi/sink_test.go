package httpapi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/demetriomjr/real-state-crm/errors"
)

func Test_StreamSink_Reports_Overflow(t *testing.T) {
	req := require.New(t)
	sink := newStreamSink(2)

	req.NoError(sink.Write([]byte("one")))
	req.NoError(sink.Write([]byte("two")))

	err := sink.Write([]byte("three"))

	req.ErrorIs(err, errors.ErrSinkOverflow)
}

func Test_StreamSink_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	sink := newStreamSink(2)
	req.NoError(sink.Write([]byte("one")))

	req.NoError(sink.Close())
	req.NoError(sink.Close())

	// Buffered frames stay readable, then the channel reports closed
	frame, open := <-sink.frames
	req.True(open)
	req.Equal([]byte("one"), frame)
	_, open = <-sink.frames
	req.False(open)

	req.ErrorIs(sink.Write([]byte("late")), errors.ErrSinkClosed)
}
