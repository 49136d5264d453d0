package input

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardNesting(t *testing.T) {
	var g Guard
	assert.False(t, g.Active())

	g.Enter()
	g.Enter()
	assert.True(t, g.Active())
	g.Leave()
	assert.True(t, g.Active())
	g.Leave()
	assert.False(t, g.Active())

	// unbalanced Leave never drives it negative
	g.Leave()
	g.Enter()
	assert.True(t, g.Active())
	g.Leave()
	assert.False(t, g.Active())
}

func TestGuardDoReleasesOnError(t *testing.T) {
	var g Guard
	boom := errors.New("boom")
	err := g.Do(func() error {
		assert.True(t, g.Active())
		return boom
	})
	assert.Same(t, boom, err)
	assert.False(t, g.Active())
}

func TestGuardConcurrent(t *testing.T) {
	var g Guard
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = g.Do(func() error { return nil })
			}
		}()
	}
	wg.Wait()
	assert.False(t, g.Active())
}

func TestGuardStrayLeaveUnderContention(t *testing.T) {
	var g Guard
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				_ = g.Do(func() error {
					assert.GreaterOrEqual(t, g.depth.Load(), int32(0))
					return nil
				})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				g.Leave()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(0), g.depth.Load())
	g.Enter()
	assert.True(t, g.Active(), "no leftover negative depth swallows the next Enter")
	g.Leave()
	assert.False(t, g.Active())
}
