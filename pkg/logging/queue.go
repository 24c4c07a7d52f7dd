// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package logging

import (
	"context"
	"io"
	"sync"
	"time"
)

// QueueWriter is a buffered output for logs whose destination may
// appear, change or vanish while logging is active.
type QueueWriter interface {
	io.Writer
	Enable(enable bool)
	SetDestination(w io.Writer)
}

type queueWriter struct {
	mutex  sync.Mutex
	queue  chan []byte
	dest   io.Writer
	enable bool
}

const (
	logQueueSize = 512
)

// NewQueueWriter creates a buffered output for logs.
// The forwarder is stopped when the given context is canceled.
func NewQueueWriter(ctx context.Context) QueueWriter {
	l := &queueWriter{
		queue: make(chan []byte, logQueueSize),
	}
	go l.run(ctx)
	return l
}

func (l *queueWriter) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	// The caller may reuse p after Write returns.
	msg := make([]byte, len(p))
	copy(msg, p)
	for attempt := 0; attempt < 10; attempt++ {
		select {
		case l.queue <- msg:
			return len(p), nil
		default:
			// Queue full; Take 1 out and try again
			select {
			case <-l.queue:
				// Continue
			default:
				// Also continue
			}
		}
	}
	// Ignore errors
	return len(p), nil
}

func (l *queueWriter) Enable(enable bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.enable = enable
}

func (l *queueWriter) SetDestination(w io.Writer) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.dest = w
}

func (l *queueWriter) run(ctx context.Context) {
	for {
		l.mutex.Lock()
		dest := l.dest
		enabled := l.enable
		l.mutex.Unlock()

		if enabled && dest != nil {
			select {
			case msg := <-l.queue:
				dest.Write(msg)
			case <-ctx.Done():
				return
			}
		} else {
			select {
			case <-time.After(time.Second):
				// Continue
			case <-ctx.Done():
				return
			}
		}
	}
}
