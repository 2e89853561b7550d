// Package assistant implements the AI assistant pipeline: the conversation
// history, the round-trip to the language-model backend, voice input and
// output, and the dispatch of validated actions into the application.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/warp-run/scdash/internal/ai"
	"github.com/warp-run/scdash/internal/dashboard"
	"github.com/warp-run/scdash/internal/metrics"
	"github.com/warp-run/scdash/internal/speech"
)

// Message roles in the conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Output modes.
const (
	OutputTextAndVoice = "text_and_voice"
	OutputTextOnly     = "text_only"
)

// deniedMaintenanceReply is appended when a non-developer asks for the
// maintenance toggle.
const deniedMaintenanceReply = "Sorry, only developers can perform this action."

const (
	// defaultCloseModalDelay is how long the assistant modal stays open
	// after a navigation-class action so the user sees the effect land.
	defaultCloseModalDelay = 1500 * time.Millisecond
	// defaultLogoutDelay gives the farewell reply a moment before the
	// session ends.
	defaultLogoutDelay = 500 * time.Millisecond
)

// Message is one conversation turn.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Env is what the assistant needs from the application: the view handle,
// privilege checks, the context snapshot, and the two whole-app actions.
type Env interface {
	Handle() dashboard.Handle
	IsDeveloper() bool
	Context() ai.Context
	Logout()
	ToggleMaintenance() error
}

// Snapshot is the assistant's externally visible state.
type Snapshot struct {
	ModalOpen    bool      `json:"modalOpen"`
	Loading      bool      `json:"loading"`
	OutputMode   string    `json:"outputMode"`
	Draft        string    `json:"draft,omitempty"`
	Conversation []Message `json:"conversation"`
}

// Assistant owns one conversation. History is append-only during a session,
// clearable on explicit request, and never persisted.
type Assistant struct {
	client     *ai.Client
	voice      *speech.Synthesizer
	recognizer speech.Recognizer
	env        Env
	log        *log.Entry

	closeModalDelay time.Duration
	logoutDelay     time.Duration

	mu           sync.Mutex
	conversation []Message
	loading      bool
	modalOpen    bool
	draft        string
	outputMode   string
	timers       []*time.Timer
	closed       bool
}

// Option configures the assistant.
type Option func(*Assistant)

// WithCloseModalDelay overrides the post-action modal close delay.
func WithCloseModalDelay(d time.Duration) Option {
	return func(a *Assistant) { a.closeModalDelay = d }
}

// WithLogoutDelay overrides the delay before an assistant-initiated logout.
func WithLogoutDelay(d time.Duration) Option {
	return func(a *Assistant) { a.logoutDelay = d }
}

// WithRecognizer wires voice input. A nil recognizer leaves voice input
// unavailable; everything else is unaffected.
func WithRecognizer(rec speech.Recognizer) Option {
	return func(a *Assistant) { a.recognizer = rec }
}

// New builds the assistant. The voice synthesizer may be nil.
func New(client *ai.Client, voice *speech.Synthesizer, env Env, opts ...Option) *Assistant {
	a := &Assistant{
		client:          client,
		voice:           voice,
		env:             env,
		log:             log.WithField("component", "assistant"),
		closeModalDelay: defaultCloseModalDelay,
		logoutDelay:     defaultLogoutDelay,
		outputMode:      OutputTextAndVoice,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SendMessage runs one full round-trip: append the user turn, assemble the
// context snapshot, call the backend, append the reply, speak it when voice
// output is on, and dispatch any requested action. Empty or whitespace-only
// input is rejected silently. Failures become a system turn; there is no
// automatic retry.
func (a *Assistant) SendMessage(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	a.append(Message{Role: RoleUser, Text: text})
	a.setLoading(true)
	defer a.setLoading(false)

	appCtx := a.env.Context()

	started := time.Now()
	resp, err := a.client.Generate(ctx, text, appCtx)
	metrics.AssistantDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		a.log.WithError(err).Warn("assistant round-trip failed")
		a.append(Message{Role: RoleSystem, Text: err.Error()})
		return
	}

	a.append(Message{Role: RoleAssistant, Text: resp.Reply})
	a.speak(resp.Reply, resp.Language)

	action, decodeErr := DecodeAction(resp.Action)
	if decodeErr != nil {
		// diagnostics only; an unusable action is a no-op
		a.log.WithError(decodeErr).Warn("assistant action rejected")
		metrics.AssistantActions.WithLabelValues(commandLabel(resp.Action), "rejected").Inc()
		return
	}
	if action != nil {
		a.dispatch(action)
	}
}

// dispatch executes one validated action. Navigation-class actions also
// close the assistant modal after a short delay.
func (a *Assistant) dispatch(action Action) {
	if navigationClass(action) {
		a.afterDelay(a.closeModalDelay, func() {
			a.SetModalOpen(false)
		})
	}

	handle := a.env.Handle()
	outcome := "executed"

	switch act := action.(type) {
	case Navigate:
		if err := a.applyToHandle(handle, func() error { return handle.ChangeView(act.View) }); err != nil {
			outcome = "failed"
		}

	case OpenReport:
		if err := a.applyToHandle(handle, func() error { return handle.OpenReportModal(act.Category) }); err != nil {
			outcome = "failed"
		}

	case ApplyFilter:
		if err := a.applyToHandle(handle, func() error { return handle.ApplyFilter(act.Name, act.Value) }); err != nil {
			outcome = "failed"
		}

	case ResetFilters:
		if handle != nil {
			handle.ResetFilters()
		}

	case MarkDone:
		reply := ""
		if handle == nil {
			reply = "The dashboard is not ready yet, so I couldn't do that."
			outcome = "failed"
		} else if text, err := handle.ClickMarkDone(act.LeadID); err != nil {
			reply = fmt.Sprintf("Sorry, I couldn't mark that lead done: %v.", err)
			outcome = "failed"
		} else {
			reply = text
		}
		a.append(Message{Role: RoleAssistant, Text: reply})
		a.speak(reply, ai.LangEnglish)

	case Logout:
		a.afterDelay(a.logoutDelay, a.env.Logout)

	case ToggleMaintenance:
		// Re-checked here against the live session, never trusted from
		// the model output.
		if !a.env.IsDeveloper() {
			a.append(Message{Role: RoleAssistant, Text: deniedMaintenanceReply})
			a.speak(deniedMaintenanceReply, ai.LangEnglish)
			outcome = "rejected"
		} else if err := a.env.ToggleMaintenance(); err != nil {
			a.log.WithError(err).Warn("maintenance toggle via assistant failed")
			a.append(Message{Role: RoleSystem, Text: err.Error()})
			outcome = "failed"
		}
	}

	metrics.AssistantActions.WithLabelValues(action.Command(), outcome).Inc()
}

func (a *Assistant) applyToHandle(handle dashboard.Handle, fn func() error) error {
	if handle == nil {
		return errors.New("no dashboard handle attached")
	}
	if err := fn(); err != nil {
		a.log.WithError(err).Warn("assistant action failed")
		return err
	}
	return nil
}

// Listen runs one push-to-talk voice input session. Interim transcripts
// update the draft; the final transcript is submitted as a message.
func (a *Assistant) Listen(ctx context.Context) error {
	if a.recognizer == nil {
		return speech.ErrRecognitionUnavailable
	}

	return speech.Listen(ctx, a.recognizer, speech.DefaultListenOptions(), speech.ListenHandlers{
		OnInterim: func(text string) {
			a.mu.Lock()
			a.draft = text
			a.mu.Unlock()
		},
		OnFinal: func(text string) {
			a.mu.Lock()
			a.draft = ""
			a.mu.Unlock()
			a.SendMessage(ctx, text)
		},
		OnError: func(message string) {
			a.append(Message{Role: RoleSystem, Text: message})
		},
	})
}

// VoiceInputAvailable reports whether a recognizer is wired up.
func (a *Assistant) VoiceInputAvailable() bool {
	return a.recognizer != nil
}

// Reset clears the conversation. It only acts on explicit confirmation;
// there is no undo.
func (a *Assistant) Reset(confirmed bool) error {
	if !confirmed {
		return errors.New("conversation reset requires confirmation")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conversation = nil
	return nil
}

// SetOutputMode switches between text-and-voice and text-only replies.
func (a *Assistant) SetOutputMode(mode string) error {
	if mode != OutputTextAndVoice && mode != OutputTextOnly {
		return fmt.Errorf("unknown output mode %q", mode)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outputMode = mode
	return nil
}

// SetModalOpen opens or closes the assistant modal.
func (a *Assistant) SetModalOpen(open bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.modalOpen = open
}

// ModalOpen reports whether the assistant modal is showing.
func (a *Assistant) ModalOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.modalOpen
}

// Snapshot returns the assistant's externally visible state.
func (a *Assistant) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := Snapshot{
		ModalOpen:    a.modalOpen,
		Loading:      a.loading,
		OutputMode:   a.outputMode,
		Draft:        a.draft,
		Conversation: append([]Message(nil), a.conversation...),
	}
	if snap.Conversation == nil {
		snap.Conversation = []Message{}
	}
	return snap
}

// Close cancels pending delayed effects and stops any speech.
func (a *Assistant) Close() {
	a.mu.Lock()
	a.closed = true
	timers := a.timers
	a.timers = nil
	a.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
	if a.voice != nil {
		a.voice.Stop()
	}
}

func (a *Assistant) append(msg Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conversation = append(a.conversation, msg)
}

func (a *Assistant) setLoading(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = v
}

func (a *Assistant) speak(text, lang string) {
	a.mu.Lock()
	mode := a.outputMode
	a.mu.Unlock()
	if mode != OutputTextAndVoice || a.voice == nil {
		return
	}
	a.voice.Speak(text, lang)
}

func (a *Assistant) afterDelay(d time.Duration, fn func()) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.timers = append(a.timers, time.AfterFunc(d, fn))
	a.mu.Unlock()
}

func commandLabel(raw ai.Action) string {
	if raw.Command == nil {
		return "none"
	}
	return *raw.Command
}
