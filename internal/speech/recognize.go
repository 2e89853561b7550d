package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrRecognitionUnavailable is returned when no recognizer is configured.
// Callers are expected to degrade gracefully: voice input is disabled while
// everything else keeps working.
var ErrRecognitionUnavailable = errors.New("speech recognition is not available")

// Recognition error codes, mirroring the browser capability this replaces.
const (
	RecErrNotAllowed = "not-allowed"
	RecErrNetwork    = "network"
	RecErrNoSpeech   = "no-speech"
)

// RecEvent is one event emitted by a recognizer session.
type RecEvent struct {
	// Transcript is the recognised text so far (interim) or the final text.
	Transcript string
	// Final marks the end-of-utterance transcript.
	Final bool
	// ErrCode is set instead of a transcript when recognition failed.
	ErrCode string
}

// Recognizer is the seam to a concrete speech-recognition backend. Start
// begins one continuous listening session; the channel closes when the
// session ends.
type Recognizer interface {
	Start(ctx context.Context) (<-chan RecEvent, error)
	Stop()
}

// ListenHandlers receive the session's user-visible effects.
type ListenHandlers struct {
	// OnInterim updates the live input field with a partial transcript.
	OnInterim func(text string)
	// OnFinal submits the finished transcript.
	OnFinal func(text string)
	// OnError surfaces a user-facing message for a recognition failure.
	OnError func(message string)
}

// ListenOptions bound a push-to-talk session.
type ListenOptions struct {
	// MaxDuration force-stops recognition after this long.
	MaxDuration time.Duration
	// Locale is the single language locale the session is bound to.
	Locale string
}

// DefaultListenOptions bounds listening the way the dashboard does.
func DefaultListenOptions() ListenOptions {
	return ListenOptions{
		MaxDuration: 30 * time.Second,
		Locale:      "en-US",
	}
}

// Listen runs one push-to-talk recognition session: interim transcripts
// stream to OnInterim, a final transcript is handed to OnFinal and clears
// the field, and errors map to distinct user-facing messages — except
// no-speech, which is silently ignored. The session ends on final
// transcript, error, context cancellation, or the max-duration bound.
func Listen(ctx context.Context, rec Recognizer, opts ListenOptions, h ListenHandlers) error {
	if rec == nil {
		return ErrRecognitionUnavailable
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultListenOptions().MaxDuration
	}

	ctx, cancel := context.WithTimeout(ctx, opts.MaxDuration)
	defer cancel()

	events, err := rec.Start(ctx)
	if err != nil {
		return fmt.Errorf("start recognition: %w", err)
	}
	defer rec.Stop()

	for {
		select {
		case <-ctx.Done():
			// max listening duration reached, or the caller let go
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch {
			case ev.ErrCode != "":
				if msg, surface := recognitionErrorMessage(ev.ErrCode); surface {
					if h.OnError != nil {
						h.OnError(msg)
					}
				}
				if ev.ErrCode != RecErrNoSpeech {
					return nil
				}
			case ev.Final:
				text := strings.TrimSpace(ev.Transcript)
				if h.OnInterim != nil {
					h.OnInterim("")
				}
				if text != "" && h.OnFinal != nil {
					h.OnFinal(text)
				}
				return nil
			default:
				if h.OnInterim != nil {
					h.OnInterim(ev.Transcript)
				}
			}
		}
	}
}

// recognitionErrorMessage maps an engine error code to the message shown to
// the user. no-speech is not surfaced at all.
func recognitionErrorMessage(code string) (string, bool) {
	switch code {
	case RecErrNoSpeech:
		return "", false
	case RecErrNotAllowed:
		return "Microphone access was denied. Please allow microphone access to use voice input.", true
	case RecErrNetwork:
		return "Voice recognition failed due to a network problem. Please try again.", true
	default:
		return "Voice recognition failed. Please try again or type your message.", true
	}
}

// ExecRecognizer drives an external recognition command that emits one JSON
// object per line: {"transcript": "...", "final": bool} or {"error": "code"}.
type ExecRecognizer struct {
	command string
	locale  string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExecRecognizer builds a recognizer around a shell command, or nil when
// the command is empty (recognition unavailable).
func NewExecRecognizer(command, locale string) *ExecRecognizer {
	if strings.TrimSpace(command) == "" {
		return nil
	}
	return &ExecRecognizer{command: command, locale: locale}
}

// Start launches the command and translates its output lines into events.
func (r *ExecRecognizer) Start(ctx context.Context) (<-chan RecEvent, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", r.command)
	cmd.Env = append(cmd.Environ(), "SCDASH_LOCALE="+r.locale)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recognizer stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start recognizer: %w", err)
	}

	r.mu.Lock()
	r.cmd = cmd
	r.mu.Unlock()

	events := make(chan RecEvent)
	go func() {
		defer close(events)
		defer cmd.Wait()

		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var msg struct {
				Transcript string `json:"transcript"`
				Final      bool   `json:"final"`
				Error      string `json:"error"`
			}
			if err := json.Unmarshal([]byte(line), &msg); err != nil {
				log.WithField("line", line).Debug("unparseable recognizer output")
				continue
			}
			ev := RecEvent{Transcript: msg.Transcript, Final: msg.Final, ErrCode: msg.Error}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// Stop kills the running recognizer command, if any.
func (r *ExecRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd != nil && r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
}
