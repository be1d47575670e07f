package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name    string
	proxy   string
	cookies bool
	langs   []Language
	text    string
	err     error
	block   bool
	calls   int
}

func (f *fakeSource) Name() string               { return f.name }
func (f *fakeSource) Descriptor() (string, bool) { return f.proxy, f.cookies }

func (f *fakeSource) ListLanguages(ctx context.Context, _ string) ([]Language, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.langs, f.err
}

func (f *fakeSource) FetchTranscript(ctx context.Context, _, _ string) (string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func TestChainListLanguages_StopsAtFirstSuccess(t *testing.T) {
	a := &fakeSource{name: "a", err: errors.New("HTTP 429 Too Many Requests")}
	b := &fakeSource{name: "b", langs: []Language{{Code: "en", Kind: KindAuto}, {Code: "en", Kind: KindManual}}}
	c := &fakeSource{name: "c", langs: []Language{{Code: "fr"}}}

	var seen []Attempt
	chain := NewChain([]Source{a, b, c}, WithObserver(func(at Attempt) { seen = append(seen, at) }))

	res, err := chain.ListLanguages(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, "b", res.Source)
	assert.Equal(t, []Language{{Code: "en", Name: "English", Kind: KindManual}}, res.Languages)
	assert.Equal(t, 0, c.calls)

	require.Len(t, res.Attempts, 2)
	assert.Equal(t, StatusFailed, res.Attempts[0].Status)
	assert.Equal(t, FailureRateLimited, res.Attempts[0].Failure)
	assert.Equal(t, 1, res.Attempts[0].Step)
	assert.Equal(t, StatusOK, res.Attempts[1].Status)
	assert.Equal(t, res.Attempts, seen)
}

func TestChainListLanguages_EmptyListFallsThrough(t *testing.T) {
	a := &fakeSource{name: "a"}
	b := &fakeSource{name: "b", langs: []Language{{Code: "de", Kind: KindManual}}}

	res, err := NewChain([]Source{a, b}).ListLanguages(context.Background(), "id")
	require.NoError(t, err)

	assert.Equal(t, "b", res.Source)
	assert.Equal(t, FailureNoCaptions, res.Attempts[0].Failure)
}

func TestChainFetchTranscript_SkipsUnsupportedAndBlank(t *testing.T) {
	a := &fakeSource{name: "a", err: ErrUnsupported}
	b := &fakeSource{name: "b", text: "   \n"}
	c := &fakeSource{name: "c", proxy: "http://proxy:8080", text: " hello world \n"}

	var observed []string
	res, err := NewChain([]Source{a, b, c}).FetchTranscript(
		context.Background(), "id", "en",
		func(at Attempt) { observed = append(observed, at.Source+":"+string(at.Status)) },
	)
	require.NoError(t, err)

	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, "c", res.Source)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, []string{"a:skipped", "b:failed", "c:ok"}, observed)
	assert.Equal(t, "http://proxy:8080", res.Attempts[2].Proxy)
}

func TestChain_Exhausted(t *testing.T) {
	a := &fakeSource{name: "ytdlp", err: errors.New("ERROR: Sign in to confirm you're not a bot")}
	b := &fakeSource{name: "ytdlp+cookies", cookies: true, err: errors.New("HTTP 403 Forbidden")}
	c := &fakeSource{name: "captions", err: ErrNoCaptions}

	res, err := NewChain([]Source{a, b, c}, WithCookieLabel("firefox")).
		FetchTranscript(context.Background(), "id", "en")
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.ErrorIs(t, err, ErrNoCaptions)
	assert.Equal(t, FailureBot, exhausted.Failure)
	assert.Contains(t, exhausted.Guidance, "firefox")
	assert.Len(t, exhausted.Attempts, 3)
	assert.Len(t, res.Attempts, 3)
	assert.Contains(t, err.Error(), "all 3 sources failed")
}

func TestChain_ExhaustedWithoutCookiesSuggestsThem(t *testing.T) {
	a := &fakeSource{name: "ytdlp", err: errors.New("HTTP 403 Forbidden")}

	_, err := NewChain([]Source{a}, WithCookieLabel("chrome")).ListLanguages(context.Background(), "id")

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, FailureForbidden, exhausted.Failure)
	assert.Contains(t, exhausted.Guidance, "enabling browser cookies")
}

func TestChain_CancelledContext(t *testing.T) {
	a := &fakeSource{name: "a", text: "never"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewChain([]Source{a}).FetchTranscript(ctx, "id", "en")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Attempts)
	assert.Equal(t, 0, a.calls)
}

func TestChain_StepTimeoutMovesOn(t *testing.T) {
	slow := &fakeSource{name: "slow", block: true}
	fast := &fakeSource{name: "fast", text: "done"}

	res, err := NewChain([]Source{slow, fast}, WithStepTimeout(20*time.Millisecond)).
		FetchTranscript(context.Background(), "id", "en")
	require.NoError(t, err)

	assert.Equal(t, "fast", res.Source)
	assert.Equal(t, StatusFailed, res.Attempts[0].Status)
	assert.Contains(t, res.Attempts[0].Error, "deadline exceeded")
}

func TestChainSources(t *testing.T) {
	chain := NewChain([]Source{&fakeSource{name: "a"}, &fakeSource{name: "b"}})
	assert.Equal(t, []string{"a", "b"}, chain.Sources())
}
