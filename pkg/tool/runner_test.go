package tool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andhika/lyra/pkg/cache"
)

type stubTool struct {
	name     string
	runs     atomic.Int64
	result   map[string]interface{}
	errs     []error
	closeErr error
}

func (s *stubTool) Descriptor() Descriptor {
	return Descriptor{Name: s.name, Description: "stub"}
}

func (s *stubTool) Run(_ context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	n := s.runs.Add(1)
	if int(n) <= len(s.errs) && s.errs[n-1] != nil {
		return nil, s.errs[n-1]
	}
	return s.result, nil
}

func (s *stubTool) Close() error { return s.closeErr }

func okResult() map[string]interface{} {
	return map[string]interface{}{
		"value": float64(42),
		"sources": []interface{}{
			map[string]interface{}{"name": "Stub", "url": "internal://stub"},
		},
	}
}

type panicTool struct {
	captured context.Context
}

func (p *panicTool) Descriptor() Descriptor { return Descriptor{Name: "panicky", Description: "stub"} }

func (p *panicTool) Run(ctx context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	p.captured = ctx
	panic("boom")
}

func (p *panicTool) Close() error { return nil }

func TestCacheKey_Deterministic(t *testing.T) {
	a := map[string]interface{}{"query": "go", "max_results": 5, "units": "celsius"}
	b := map[string]interface{}{"units": "celsius", "max_results": 5, "query": "go"}

	ka, err := CacheKey("web_search", a)
	require.NoError(t, err)
	kb, err := CacheKey("web_search", b)
	require.NoError(t, err)

	assert.Equal(t, ka, kb)
	assert.Contains(t, ka, "web_search:")
}

func TestCacheKey_DistinguishesTools(t *testing.T) {
	args := map[string]interface{}{"query": "go"}

	ka, err := CacheKey("web_search", args)
	require.NoError(t, err)
	kb, err := CacheKey("weather", args)
	require.NoError(t, err)

	assert.NotEqual(t, ka, kb)
}

func TestExecute_CachesSecondCall(t *testing.T) {
	stub := &stubTool{name: "stub", result: okResult()}
	runner := NewRunner(stub, cache.NewMemory())
	args := map[string]interface{}{"q": "hello"}

	first := runner.Execute(context.Background(), args)
	require.Empty(t, first.Error)
	assert.False(t, first.Cached)

	second := runner.Execute(context.Background(), args)
	require.Empty(t, second.Error)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Result, second.Result)

	assert.Equal(t, int64(1), stub.runs.Load())
}

func TestExecute_NilStoreSkipsCache(t *testing.T) {
	stub := &stubTool{name: "stub", result: okResult()}
	runner := NewRunner(stub, nil)
	args := map[string]interface{}{"q": "hello"}

	runner.Execute(context.Background(), args)
	runner.Execute(context.Background(), args)

	assert.Equal(t, int64(2), stub.runs.Load())
}

func TestExecute_RetriesTransientFailures(t *testing.T) {
	stub := &stubTool{
		name:   "flaky",
		result: okResult(),
		errs:   []error{errors.New("boom"), errors.New("boom again")},
	}
	runner := NewRunner(stub, nil)
	runner.backoffBase = time.Millisecond

	outcome := runner.Execute(context.Background(), map[string]interface{}{"q": "x"})

	assert.Empty(t, outcome.Error)
	assert.Equal(t, int64(3), stub.runs.Load())
	assert.Equal(t, okResult(), outcome.Result)
}

func TestExecute_ExhaustsAttempts(t *testing.T) {
	stub := &stubTool{
		name: "broken",
		errs: []error{errors.New("boom"), errors.New("boom"), errors.New("boom")},
	}
	runner := NewRunner(stub, nil)
	runner.backoffBase = time.Millisecond

	outcome := runner.Execute(context.Background(), map[string]interface{}{"q": "x"})

	assert.Equal(t, int64(3), stub.runs.Load())
	assert.Nil(t, outcome.Result)
	assert.Contains(t, outcome.Error, "after 3 attempts")
	assert.Contains(t, outcome.Error, "boom")
}

func TestExecute_DomainFailureNotRetried(t *testing.T) {
	stub := &stubTool{
		name: "calc",
		result: map[string]interface{}{
			"success": false,
			"error":   "division by zero",
			"sources": []interface{}{
				map[string]interface{}{"name": "Calculator", "url": "internal://calculator"},
			},
		},
	}
	runner := NewRunner(stub, nil)

	outcome := runner.Execute(context.Background(), map[string]interface{}{"expression": "1/0"})

	assert.Equal(t, int64(1), stub.runs.Load())
	assert.Empty(t, outcome.Error)
	assert.Equal(t, false, outcome.Result["success"])
}

func TestExecute_CancelledDuringBackoff(t *testing.T) {
	stub := &stubTool{
		name: "slow",
		errs: []error{errors.New("boom"), errors.New("boom"), errors.New("boom")},
	}
	runner := NewRunner(stub, nil)
	runner.backoffBase = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan Outcome, 1)
	go func() {
		done <- runner.Execute(ctx, map[string]interface{}{"q": "x"})
	}()

	select {
	case outcome := <-done:
		assert.Contains(t, outcome.Error, "cancel")
		assert.Equal(t, int64(1), stub.runs.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("execute did not return after cancellation")
	}
}

func TestExecute_PanicReleasesAttemptContext(t *testing.T) {
	pt := &panicTool{}
	r := NewRunner(pt, nil, WithMaxAttempts(1))

	require.Panics(t, func() {
		r.Execute(context.Background(), map[string]interface{}{})
	})

	require.NotNil(t, pt.captured)
	assert.ErrorIs(t, pt.captured.Err(), context.Canceled)
}

func TestExecute_MissingSourcesStillReturned(t *testing.T) {
	stub := &stubTool{
		name:   "sloppy",
		result: map[string]interface{}{"value": "ok"},
	}
	runner := NewRunner(stub, nil)

	outcome := runner.Execute(context.Background(), map[string]interface{}{"q": "x"})

	assert.Empty(t, outcome.Error)
	assert.Equal(t, "ok", outcome.Result["value"])
}

func TestExecute_LatencyRecorded(t *testing.T) {
	stub := &stubTool{name: "stub", result: okResult()}
	runner := NewRunner(stub, nil)

	outcome := runner.Execute(context.Background(), map[string]interface{}{"q": "x"})

	assert.GreaterOrEqual(t, outcome.LatencyMS, int64(0))
	assert.Equal(t, "stub", outcome.ToolName)
}
