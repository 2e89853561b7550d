// Package speech adapts external speech engines for the dashboard. Both
// synthesis and recognition are optional capabilities; their absence must
// leave everything else working.
package speech

import (
	"context"
	"html"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Voice identifies one synthesis voice offered by an engine.
type Voice struct {
	Name string
	Lang string
}

// Engine is the seam to a concrete speech-synthesis backend.
type Engine interface {
	// Voices lists the voices the engine offers.
	Voices() []Voice
	// Speak renders the text with the selected voice. It blocks until the
	// utterance completes or ctx is cancelled.
	Speak(ctx context.Context, text string, voice Voice) error
	// Stop cancels any in-progress utterance.
	Stop()
}

// femaleEnglishNames matches the preferred English voices, in the spirit of
// the desktop voices the dashboard was tuned against.
var femaleEnglishNames = regexp.MustCompile(`Female|Google US English|Zira|Susan|Ava`)

var markupTags = regexp.MustCompile(`<[^>]*>`)

// Synthesizer speaks dashboard text aloud through an Engine, enforcing the
// cancel-before-speak rule and voice selection per language.
type Synthesizer struct {
	engine Engine
	log    *log.Entry

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSynthesizer wraps the engine. A nil engine yields a synthesizer whose
// Speak and Stop are no-ops.
func NewSynthesizer(engine Engine) *Synthesizer {
	return &Synthesizer{
		engine: engine,
		log:    log.WithField("component", "speech"),
	}
}

// Available reports whether a synthesis engine is wired up.
func (s *Synthesizer) Available() bool {
	return s != nil && s.engine != nil
}

// Speak voices the text in the requested language ("en" or "hi"). Any
// utterance still in progress is cancelled first. Markup is stripped before
// rendering. The call returns immediately; speech happens in the background.
func (s *Synthesizer) Speak(text, lang string) {
	if !s.Available() {
		return
	}
	text = StripMarkup(text)
	if text == "" {
		s.log.Debug("nothing to speak after stripping markup")
		return
	}

	voice, ok := pickVoice(s.engine.Voices(), lang)
	if !ok {
		s.log.WithField("lang", lang).Debug("no voice available")
		return
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.engine.Stop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()
		if err := s.engine.Speak(ctx, text, voice); err != nil && ctx.Err() == nil {
			s.log.WithError(err).Warn("speech synthesis failed")
		}
	}()
}

// Stop cancels any in-progress utterance immediately.
func (s *Synthesizer) Stop() {
	if !s.Available() {
		return
	}
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.engine.Stop()
}

// StripMarkup removes tags and entity escapes so only readable text is
// handed to the engine.
func StripMarkup(text string) string {
	text = markupTags.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// pickVoice selects a voice for the language: a Hindi voice for "hi" when
// one exists, otherwise the preferred female English voice, otherwise any
// English voice.
func pickVoice(voices []Voice, lang string) (Voice, bool) {
	if lang == "hi" {
		for _, v := range voices {
			if strings.HasPrefix(v.Lang, "hi") {
				return v, true
			}
		}
	}
	var fallback *Voice
	for i, v := range voices {
		if !strings.HasPrefix(v.Lang, "en") {
			continue
		}
		if femaleEnglishNames.MatchString(v.Name) {
			return v, true
		}
		if fallback == nil {
			fallback = &voices[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Voice{}, false
}

// ExecEngine drives an external synthesis command. The utterance text is
// written to stdin; the voice name and language are passed via environment.
type ExecEngine struct {
	command string
	voices  []Voice

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExecEngine builds an engine around a shell command, or nil when the
// command is empty (synthesis unavailable).
func NewExecEngine(command string, voices []Voice) *ExecEngine {
	if strings.TrimSpace(command) == "" {
		return nil
	}
	if len(voices) == 0 {
		voices = []Voice{
			{Name: "Zira", Lang: "en-US"},
			{Name: "Lekha", Lang: "hi-IN"},
		}
	}
	return &ExecEngine{command: command, voices: voices}
}

// Voices lists the voices configured for the external command.
func (e *ExecEngine) Voices() []Voice {
	return e.voices
}

// Speak runs the command with the utterance on stdin.
func (e *ExecEngine) Speak(ctx context.Context, text string, voice Voice) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", e.command)
	cmd.Stdin = strings.NewReader(text)
	cmd.Env = append(cmd.Environ(),
		"SCDASH_VOICE="+voice.Name,
		"SCDASH_LANG="+voice.Lang,
	)

	e.mu.Lock()
	e.cmd = cmd
	e.mu.Unlock()

	return cmd.Run()
}

// Stop kills the running command, if any.
func (e *ExecEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
}
