package speech

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello there", "hello there"},
		{"tags", "<b>Welcome</b> to the <i>dashboard</i>", "Welcome to the dashboard"},
		{"entities", "Calls &amp; Meetings", "Calls & Meetings"},
		{"whitespace collapse", "  a \n b\t c  ", "a b c"},
		{"only markup", "<br/>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkup(tt.in))
		})
	}
}

func TestPickVoice(t *testing.T) {
	voices := []Voice{
		{Name: "Daniel", Lang: "en-GB"},
		{Name: "Microsoft Zira", Lang: "en-US"},
		{Name: "Lekha", Lang: "hi-IN"},
	}

	t.Run("hindi prefers hindi voice", func(t *testing.T) {
		v, ok := pickVoice(voices, "hi")
		require.True(t, ok)
		assert.Equal(t, "Lekha", v.Name)
	})

	t.Run("english prefers designated female voice", func(t *testing.T) {
		v, ok := pickVoice(voices, "en")
		require.True(t, ok)
		assert.Equal(t, "Microsoft Zira", v.Name)
	})

	t.Run("falls back to any english voice", func(t *testing.T) {
		v, ok := pickVoice([]Voice{{Name: "Daniel", Lang: "en-GB"}}, "en")
		require.True(t, ok)
		assert.Equal(t, "Daniel", v.Name)
	})

	t.Run("hindi without hindi voice falls back to english", func(t *testing.T) {
		v, ok := pickVoice([]Voice{{Name: "Daniel", Lang: "en-GB"}}, "hi")
		require.True(t, ok)
		assert.Equal(t, "Daniel", v.Name)
	})

	t.Run("no voices", func(t *testing.T) {
		_, ok := pickVoice(nil, "en")
		assert.False(t, ok)
	})
}

// fakeEngine records utterances and blocks until its context is cancelled,
// so cancel-before-speak behavior is observable.
type fakeEngine struct {
	mu      sync.Mutex
	spoken  []string
	stopped int
}

func (f *fakeEngine) Voices() []Voice {
	return []Voice{{Name: "Zira", Lang: "en-US"}, {Name: "Lekha", Lang: "hi-IN"}}
}

func (f *fakeEngine) Speak(ctx context.Context, text string, voice Voice) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeEngine) Stop() {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
}

func (f *fakeEngine) utterances() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

func TestSynthesizerCancelsBeforeSpeaking(t *testing.T) {
	engine := &fakeEngine{}
	synth := NewSynthesizer(engine)

	synth.Speak("first utterance", "en")
	time.Sleep(20 * time.Millisecond)
	synth.Speak("second utterance", "en")
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, []string{"first utterance", "second utterance"}, engine.utterances())

	synth.Stop()
}

func TestSynthesizerNilEngineIsNoop(t *testing.T) {
	synth := NewSynthesizer(nil)
	assert.False(t, synth.Available())

	// must not panic
	synth.Speak("hello", "en")
	synth.Stop()
}

func TestNewExecEngineEmptyCommand(t *testing.T) {
	assert.Nil(t, NewExecEngine("", nil))
	assert.Nil(t, NewExecEngine("   ", nil))
	assert.NotNil(t, NewExecEngine("cat > /dev/null", nil))
}
