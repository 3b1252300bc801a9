package conversation

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/marketing/internal/domain"
)

func userMsg(i int) domain.Message {
	return domain.Message{Role: domain.RoleUser, Content: fmt.Sprintf("m%d", i)}
}

func TestContextWindowNeverExceedsLimitPlusOne(t *testing.T) {
	s := NewStore()
	for _, limit := range []int{1, 3, 10} {
		for n := 0; n < 25; n++ {
			client := fmt.Sprintf("c-%d-%d", limit, n)
			for i := 0; i < n; i++ {
				s.Append(client, userMsg(i))
			}

			window := s.ContextWindow(client, "sys", limit)
			assert.LessOrEqual(t, len(window), limit+1)
			assert.Equal(t, min(n, limit)+1, len(window))
			assert.Equal(t, domain.RoleSystem, window[0].Role)
			assert.Equal(t, "sys", window[0].Content)
		}
	}
}

func TestContextWindowKeepsNewestOldestFirst(t *testing.T) {
	s := NewStore()
	for i := 0; i < 15; i++ {
		s.Append("c1", userMsg(i))
	}

	window := s.ContextWindow("c1", "sys", 0)

	require.Len(t, window, DefaultWindow+1)
	assert.Equal(t, "m5", window[1].Content)
	assert.Equal(t, "m14", window[len(window)-1].Content)
}

func TestGetReturnsFullHistoryCopy(t *testing.T) {
	s := NewStore()
	for i := 0; i < 30; i++ {
		s.Append("c1", userMsg(i))
	}

	got := s.Get("c1")
	require.Len(t, got, 30)
	got[0].Content = "mutated"

	assert.Equal(t, "m0", s.Get("c1")[0].Content)
	assert.Empty(t, s.Get("unknown"))
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.Append("c1", userMsg(0))

	s.Clear("c1")
	s.Clear("unknown")

	assert.Empty(t, s.Get("c1"))
	assert.Len(t, s.ContextWindow("c1", "sys", 10), 1)
}

func TestConcurrentAppendsAcrossClients(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for c := 0; c < 8; c++ {
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Append(fmt.Sprintf("c%d", c), userMsg(i))
			}()
		}
	}
	wg.Wait()

	for c := 0; c < 8; c++ {
		assert.Len(t, s.Get(fmt.Sprintf("c%d", c)), 50)
	}
}
