package logging

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type chanWriter struct {
	ch chan string
}

func (w chanWriter) Write(p []byte) (int, error) {
	w.ch <- string(p)
	return len(p), nil
}

func TestQueueWriterForwards(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	qw := NewQueueWriter(ctx)
	_, err := qw.Write([]byte("early\n"))
	assert.NoError(t, err)

	ch := make(chan string, 16)
	qw.SetDestination(chanWriter{ch: ch})
	qw.Enable(true)

	select {
	case got := <-ch:
		assert.Equal(t, "early\n", got)
	case <-time.After(5 * time.Second):
		t.Fatal("no log line forwarded")
	}
}

func TestQueueWriterDropsOldest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	qw := NewQueueWriter(ctx)
	// Overfill the queue while there is no destination.
	for i := 0; i < logQueueSize+8; i++ {
		qw.Write([]byte(fmt.Sprintf("msg %d", i)))
	}

	ch := make(chan string, logQueueSize+8)
	qw.SetDestination(chanWriter{ch: ch})
	qw.Enable(true)

	select {
	case got := <-ch:
		assert.Equal(t, "msg 8", got)
	case <-time.After(5 * time.Second):
		t.Fatal("no log line forwarded")
	}
}
