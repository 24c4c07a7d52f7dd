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
	"io"
	"sync"
)

// MultiWriter is a log output that fans out to a set of writers.
// Writers can be added and removed while logging is active.
type MultiWriter struct {
	mutex   sync.RWMutex
	writers []io.Writer
}

// NewMultiWriter creates a new output for logs and can add outputs
// on the fly.
func NewMultiWriter(writers ...io.Writer) *MultiWriter {
	return &MultiWriter{
		writers: writers,
	}
}

// Append adds the given writer to the output set.
func (l *MultiWriter) Append(w io.Writer) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.writers = append(l.writers, w)
}

// Remove takes the given writer out of the output set.
func (l *MultiWriter) Remove(w io.Writer) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for i, x := range l.writers {
		if x == w {
			l.writers = append(l.writers[:i], l.writers[i+1:]...)
			return
		}
	}
}

func (l *MultiWriter) Write(p []byte) (n int, err error) {
	l.mutex.RLock()
	writers := l.writers
	l.mutex.RUnlock()

	n = len(p)
	for _, w := range writers {
		if wn, werr := w.Write(p); werr != nil {
			n, err = wn, werr
		}
	}
	return n, err
}
