// Package testutils provides id and clock sources that are deterministic in test mode.
// Stores use them so that persisted files are byte-stable across test runs.
package testutils

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	idCounter uint64
	idMutex   sync.Mutex

	timeCounter int64
	timeMutex   sync.Mutex
)

// Stamper hands out ids and timestamps. The zero value behaves like production.
type Stamper struct {
	TestMode bool
}

// NewStamper returns a Stamper for the given mode.
func NewStamper(testMode bool) Stamper {
	return Stamper{TestMode: testMode}
}

// NewID returns a random UUID, or 00000001-0000-4000-8000-000000000001 style ids in test mode.
func (s Stamper) NewID() string {
	if s.TestMode {
		return deterministicUUID()
	}
	return uuid.New().String()
}

// Now returns time.Now, or a clock starting at 2025-01-01T00:00:00Z
// that advances one second per call in test mode.
func (s Stamper) Now() time.Time {
	if s.TestMode {
		return deterministicTime()
	}
	return time.Now()
}

func deterministicUUID() string {
	idMutex.Lock()
	defer idMutex.Unlock()

	idCounter++
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", idCounter, idCounter)
}

func deterministicTime() time.Time {
	timeMutex.Lock()
	defer timeMutex.Unlock()

	timeCounter++
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(timeCounter) * time.Second)
}

// ResetTestCounters restarts the deterministic sequences. Only call from tests.
func ResetTestCounters() {
	idMutex.Lock()
	timeMutex.Lock()
	defer idMutex.Unlock()
	defer timeMutex.Unlock()

	idCounter = 0
	timeCounter = 0
}
