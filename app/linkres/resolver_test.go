package linkres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShortener struct {
	calls  int
	result string
	err    error
}

func (f *fakeShortener) Shorten(ctx context.Context, longURL string) (string, error) {
	f.calls++
	return f.result, f.err
}

type recordedSleeps struct {
	durations []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.durations = append(r.durations, d)
	return nil
}

func testRetry(sleeps *recordedSleeps) Retry {
	retry := DefaultRetry()
	retry.Sleep = sleeps.sleep
	// Maximum jitter makes the recorded pauses identify which sleep ran.
	retry.Jitter = func(max time.Duration) time.Duration { return max }
	return retry
}

const arxivTitle = "Attention Is All You Need. (arXiv:1706.03762v7 [cs.CL] UPDATED)"

func TestCanonicalVersionRule(t *testing.T) {
	resolver := NewResolver(nil, DefaultRetry())

	tests := []struct {
		name  string
		title string
		link  string
		want  string
	}{
		{"arxiv with version", arxivTitle, "http://arxiv.org/abs/1706.03762", "http://arxiv.org/abs/1706.03762v7"},
		{"arxiv without version in title", "Attention Is All You Need", "http://arxiv.org/abs/1706.03762", "http://arxiv.org/abs/1706.03762"},
		{"other site", arxivTitle, "https://example.com/abs/1706.03762", "https://example.com/abs/1706.03762"},
		{"already versioned", arxivTitle, "http://arxiv.org/abs/1706.03762v6", "http://arxiv.org/abs/1706.03762v6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolver.Canonical(tt.title, tt.link))
		})
	}
}

func TestResolveWithoutShortening(t *testing.T) {
	shortener := &fakeShortener{result: "http://bit.ly/x"}
	resolver := NewResolver(shortener, DefaultRetry())

	result := resolver.Resolve(context.Background(), "Title", "http://example.com/short", Options{Threshold: 100})

	assert.Equal(t, "http://example.com/short", result.Canonical)
	assert.Equal(t, "http://example.com/short", result.Display)
	assert.Zero(t, shortener.calls)
}

func TestResolveShortensLongLinks(t *testing.T) {
	sleeps := &recordedSleeps{}
	shortener := &fakeShortener{result: "http://bit.ly/abc"}
	resolver := NewResolver(shortener, testRetry(sleeps))

	result := resolver.Resolve(context.Background(), "Title", "http://example.com/a/rather/long/link", Options{Threshold: 20})

	assert.Equal(t, "http://example.com/a/rather/long/link", result.Canonical)
	assert.Equal(t, "https://bit.ly/abc", result.Display)
	assert.Equal(t, 1, shortener.calls)
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeps.durations)
}

func TestResolveForceShorten(t *testing.T) {
	shortener := &fakeShortener{result: "https://bit.ly/f"}
	resolver := NewResolver(shortener, testRetry(&recordedSleeps{}))

	result := resolver.Resolve(context.Background(), "Title", "http://e.x/1", Options{Force: true})

	assert.Equal(t, "https://bit.ly/f", result.Display)
	assert.Equal(t, 1, shortener.calls)
}

func TestResolveFallsBackAfterThreeAttempts(t *testing.T) {
	sleeps := &recordedSleeps{}
	shortener := &fakeShortener{err: errors.New("service unavailable")}
	resolver := NewResolver(shortener, testRetry(sleeps))

	result := resolver.Resolve(context.Background(), arxivTitle, "http://arxiv.org/abs/1706.03762", Options{Threshold: 10})

	assert.Equal(t, 3, shortener.calls)
	assert.Equal(t, "http://arxiv.org/abs/1706.03762v7", result.Canonical)
	assert.Equal(t, result.Canonical, result.Display)
	assert.Equal(t, []time.Duration{
		2 * time.Second, 5 * time.Second,
		2 * time.Second, 5 * time.Second,
		2 * time.Second,
	}, sleeps.durations)
}

func TestRetryDo(t *testing.T) {
	sleeps := &recordedSleeps{}
	retry := testRetry(sleeps)

	calls := 0
	err := retry.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	failure := errors.New("always")
	err = retry.Do(context.Background(), func(ctx context.Context) error { return failure })
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, failure)
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retry := DefaultRetry()
	calls := 0
	err := retry.Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("unreachable")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRandomJitter(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := RandomJitter(time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, time.Second)
	}
	assert.Zero(t, RandomJitter(0))
}
