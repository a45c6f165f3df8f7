package coordinator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocLock_SerializesSameDocument(t *testing.T) {
	lock := NewDocLock()
	var counter int
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := lock.Lock("d1")
			defer unlock()
			current := counter
			time.Sleep(time.Microsecond)
			counter = current + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, counter)
}

func TestDocLock_DifferentDocumentsDoNotBlockEachOther(t *testing.T) {
	lock := NewDocLock()
	unlockA := lock.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := lock.Lock("b")
		defer unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on document b blocked by unrelated lock on document a")
	}
}
