package dashboard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHistory(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{"default size", 0, DefaultHistorySize},
		{"negative size", -1, DefaultHistorySize},
		{"custom size", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(tt.size)
			assert.Equal(t, tt.expected, h.size)
			assert.NotNil(t, h.machines)
		})
	}
}

func TestHistory_PushAndGet(t *testing.T) {
	h := NewHistory(3)

	assert.Nil(t, h.Get("m1", 5))

	h.Push("m1", 10)
	h.Push("m1", 20)
	assert.Equal(t, []float64{10, 20}, h.Get("m1", 5))
	assert.Equal(t, []float64{20}, h.Get("m1", 1))
	assert.Nil(t, h.Get("m1", 0))

	// wraps around, oldest first
	h.Push("m1", 30)
	h.Push("m1", 40)
	assert.Equal(t, []float64{20, 30, 40}, h.Get("m1", 10))
}

func TestHistory_ForgetAndRetain(t *testing.T) {
	h := NewHistory(5)
	h.Push("a", 1)
	h.Push("b", 2)
	h.Push("c", 3)

	h.Forget("a")
	assert.Nil(t, h.Get("a", 5))

	h.Retain([]string{"c"})
	assert.Nil(t, h.Get("b", 5))
	assert.Equal(t, []float64{3}, h.Get("c", 5))
}

func TestHistory_Concurrent(t *testing.T) {
	h := NewHistory(10)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				h.Push("m", float64(i*j))
				h.Get("m", 5)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, h.Get("m", 100), 10)
}
