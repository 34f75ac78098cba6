package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordOperation(t *testing.T) {
	c := NewCollector("collector_test")

	before := testutil.ToFloat64(ComponentOperations.WithLabelValues("collector_test", "check", "failure"))
	c.RecordOperation("check", 10*time.Millisecond, nil)
	c.RecordOperation("check", 10*time.Millisecond, errors.New("boom"))
	c.RecordCounter("pages", 3)

	after := testutil.ToFloat64(ComponentOperations.WithLabelValues("collector_test", "check", "failure"))
	assert.Equal(t, before+1, after)

	all := c.GetAll()
	assert.Equal(t, "collector_test", all["component"])
	assert.Equal(t, int64(1), all["check.success"])
	assert.Equal(t, int64(1), all["check.failure"])
	assert.Equal(t, int64(3), all["pages"])
}

func TestWriteTextfile(t *testing.T) {
	MessagesEmitted.WithLabelValues("RECORD").Inc()

	path := filepath.Join(t.TempDir(), "coda.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "source_coda_messages_emitted_total")
}

func TestSampleProcessMemory(t *testing.T) {
	rss, err := SampleProcessMemory()
	if err != nil {
		t.Skipf("process stats unavailable: %v", err)
	}
	assert.Greater(t, rss, uint64(0))
	assert.Equal(t, float64(rss), testutil.ToFloat64(ProcessResidentMemory))
}

func TestTimer(t *testing.T) {
	timer := NewTimer("op")
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
	assert.Equal(t, "op", timer.Name())
}
