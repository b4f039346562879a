package queue_test

import (
	"strconv"
	"sync"
	"testing"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyPull(t *testing.T) {
	q := queue.New()
	assert.Nil(t, q.TryPull(10))
	assert.Nil(t, q.TryPull(0))
	assert.Equal(t, 0, q.Len())
}

func TestPullOrder(t *testing.T) {
	q := queue.New()
	for i := 0; i < 15; i++ {
		q.Push(auditraq.NewEvent("/test", strconv.Itoa(i)))
	}
	assert.Equal(t, 15, q.Len())

	first := q.TryPull(10)
	require.Len(t, first, 10)
	second := q.TryPull(10)
	require.Len(t, second, 5)
	assert.Nil(t, q.TryPull(10))

	all := append(first, second...)
	for i, e := range all {
		assert.Equal(t, strconv.Itoa(i), e.Args[0])
	}
}

func TestConcurrentPush(t *testing.T) {
	var (
		q         = queue.New()
		producers = 2
		events    = 1000
		wg        sync.WaitGroup
	)
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < events; i++ {
				q.Push(auditraq.NewEvent("/p"+strconv.Itoa(p), float64(i)))
			}
		}(p)
	}

	received := make(map[string][]float64)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	collect := func() {
		for _, e := range q.TryPull(7) {
			received[e.Address] = append(received[e.Address], e.Args[0].(float64))
		}
	}
loop:
	for {
		select {
		case <-done:
			break loop
		default:
			collect()
		}
	}
	for q.Len() > 0 {
		collect()
	}

	// no lost or duplicated events, order per producer is kept
	for p := 0; p < producers; p++ {
		values := received["/p"+strconv.Itoa(p)]
		require.Len(t, values, events)
		for i, v := range values {
			assert.Equal(t, float64(i), v)
		}
	}
}
