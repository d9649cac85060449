package util

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("same key is serialized", func(t *testing.T) {
		km := NewKeyedMutex()

		var mu sync.Mutex
		active, maxActive := 0, 0

		wg := sync.WaitGroup{}
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := km.Lock("pres-ex-1")
				defer unlock()

				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
			}()
		}
		wg.Wait()

		require.Equal(t, 1, maxActive)
		require.Equal(t, 0, km.Len())
	})

	t.Run("different keys do not block", func(t *testing.T) {
		km := NewKeyedMutex()
		unlockA := km.Lock("a")

		done := make(chan struct{})
		go func() {
			unlockB := km.Lock("b")
			unlockB()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock on b blocked behind a")
		}

		require.Equal(t, 1, km.Len())
		unlockA()
		require.Equal(t, 0, km.Len())
	})

	t.Run("zero value usable", func(t *testing.T) {
		km := &KeyedMutex{}
		unlock := km.Lock("x")
		unlock()
		require.Equal(t, 0, km.Len())
	})
}
