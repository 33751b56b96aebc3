package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecord(t *testing.T) {
	c := NewCollector()

	c.Record(OpListModels, 10*time.Millisecond, nil)
	c.Record(OpListModels, 30*time.Millisecond, errors.New("boom"))
	c.Record(OpLogin, 5*time.Millisecond, nil)

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 2)

	login := snap.Operations[0]
	assert.Equal(t, OpLogin, login.Name)
	assert.Equal(t, int64(1), login.Count)

	models := snap.Operations[1]
	assert.Equal(t, OpListModels, models.Name)
	assert.Equal(t, int64(2), models.Count)
	assert.Equal(t, int64(1), models.Errors)
	assert.Equal(t, int64(10), models.MinTimeMs)
	assert.Equal(t, int64(30), models.MaxTimeMs)
	assert.Equal(t, 20.0, models.AvgTimeMs)
}

func TestCollectorEmptySnapshot(t *testing.T) {
	snap := NewCollector().Snapshot()
	assert.Empty(t, snap.Operations)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Record(OpQuery, time.Millisecond, nil)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 1)
	assert.Equal(t, int64(50), snap.Operations[0].Count)
}
