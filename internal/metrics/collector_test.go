package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorAggregates(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpDBQuery, 10*time.Millisecond)
	c.RecordTiming(OpDBQuery, 30*time.Millisecond)
	c.RecordResult(OpDBQuery, 20*time.Millisecond, errors.New("boom"))

	snap := c.Snapshot()
	require.NotNil(t, snap.DBQuery)
	assert.Equal(t, int64(3), snap.DBQuery.Count)
	assert.Equal(t, int64(1), snap.DBQuery.Errors)
	assert.Equal(t, int64(10), snap.DBQuery.MinTimeMs)
	assert.Equal(t, int64(30), snap.DBQuery.MaxTimeMs)
	assert.InDelta(t, 20.0, snap.DBQuery.AvgTimeMs, 0.01)
	assert.Nil(t, snap.GraphQL, "operations without records are omitted")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.failures.WithLabelValues(OpDBQuery)))
}

func TestTrackRecordsError(t *testing.T) {
	c := NewCollector()
	func() (err error) {
		defer c.Track(OpDBTx)(&err)
		return errors.New("rollback")
	}()

	snap := c.Snapshot()
	require.NotNil(t, snap.DBTx)
	assert.Equal(t, int64(1), snap.DBTx.Errors)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.RecordTiming(OpGraphQL, time.Second)
	assert.Equal(t, Snapshot{}, c.Snapshot())
}
