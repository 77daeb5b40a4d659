package testing

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// CheckGoroutineCleanup verifies no goroutines outlive the test.
// Usage: defer CheckGoroutineCleanup(t)() at the start of any test that launches goroutines
//
// Example:
//
//	func TestConcurrentBootstrap(t *testing.T) {
//	    defer CheckGoroutineCleanup(t)()
//	    // launch callers, wait for them
//	}
func CheckGoroutineCleanup(t *testing.T) func() {
	before := runtime.NumGoroutine()

	return func() {
		assert.Eventually(t, func() bool {
			after := runtime.NumGoroutine()
			if after > before {
				t.Logf("Goroutine leak detected: before=%d, after=%d, leaked=%d",
					before, after, after-before)
				return false
			}
			return true
		}, 5*time.Second, 100*time.Millisecond,
			"Goroutine leak detected: %d goroutines still running", runtime.NumGoroutine()-before)
	}
}

// WaitForGoroutines waits for a WaitGroup with timeout.
// Returns an error if the WaitGroup doesn't complete in time, so tests never hang on Wait.
func WaitForGoroutines(wg *sync.WaitGroup, timeout time.Duration) error {
	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("goroutines did not exit within timeout")
	}
}
