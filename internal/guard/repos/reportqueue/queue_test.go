package reportqueue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type captureLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *captureLogger) Info(_ map[string]any, msg string) {
	l.mu.Lock()
	l.msgs = append(l.msgs, msg)
	l.mu.Unlock()
}
func (l *captureLogger) Error(map[string]any, string) {}
func (l *captureLogger) Debug(map[string]any, string) {}
func (l *captureLogger) Warn(map[string]any, string)  {}
func (l *captureLogger) Panic(map[string]any, string) {}
func (l *captureLogger) Fatal(map[string]any, string) {}

func TestQueue_AppendPreservesOrder(t *testing.T) {
	logger := &captureLogger{}
	q := New(logger)

	assert.Equal(t, 1, q.Append("0330000000 BLOCK and shared anonymously with authorities"))
	assert.Equal(t, 2, q.Append("+441234567890 WARN and shared anonymously with authorities"))

	assert.Equal(t, []string{
		"0330000000 BLOCK and shared anonymously with authorities",
		"+441234567890 WARN and shared anonymously with authorities",
	}, q.Snapshot())
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, []string{"report queued", "report queued"}, logger.msgs)
}

func TestQueue_SnapshotIsCopy(t *testing.T) {
	q := New(nil)
	q.Append("a")
	snap := q.Snapshot()
	snap[0] = "mutated"
	assert.Equal(t, []string{"a"}, q.Snapshot())
}

func TestQueue_ConcurrentAppends(t *testing.T) {
	q := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Append(fmt.Sprintf("report-%d", i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, q.Len())
}

func TestQueue_Empty(t *testing.T) {
	q := New(nil)
	assert.Zero(t, q.Len())
	assert.Empty(t, q.Snapshot())
}
