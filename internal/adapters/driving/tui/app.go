package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// turn is one question of the session and its outcome.
type turn struct {
	question string
	answer   string
	err      error
	pending  bool
}

// App is the chat application following the Elm architecture.
// Each question is answered independently; earlier turns are only shown,
// never sent back to the model.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	input      *input.QuestionInput
	transcript viewport.Model
	status     *status.Bar

	turns []turn
	busy  bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		transcript: viewport.New(80, 10),
		status:     status.NewBar(s, km),
	}, nil
}

// WithContext sets the context passed to the answer service.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.input.Init(),
		tea.SetWindowTitle("docqa"),
		a.loadStatus(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.QuestionSubmitted:
		return a, a.ask(msg.Question)

	case messages.AnswerReceived:
		a.finishTurn(msg)
		return a, nil

	case messages.StatusLoaded:
		if msg.Err == nil {
			a.status.SetCorpus(msg.Status.CollectionID, msg.Status.Records)
		}
		return a, nil

	case messages.ErrorOccurred:
		a.status.SetState(status.StateError)
		a.status.SetMessage(msg.Err.Error())
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, a.keymap.Quit):
		return a, tea.Quit
	case keymap.Matches(key, a.keymap.Submit):
		return a, a.submit()
	case keymap.Matches(key, a.keymap.Clear):
		a.input.Reset()
		a.status.Clear()
		return a, nil
	case keymap.Matches(key, a.keymap.ScrollUp), keymap.Matches(key, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.transcript, cmd = a.transcript.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit validates the typed line. Blank lines only show a hint and quit
// words end the session.
func (a *App) submit() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	switch {
	case question == "":
		a.status.SetState(status.StateHint)
		a.status.SetMessage(domain.EmptyQuestionHint)
		return nil
	case domain.IsQuitCommand(question):
		return tea.Quit
	case a.busy:
		return nil
	}

	a.input.Reset()
	a.status.Clear()
	return func() tea.Msg {
		return messages.QuestionSubmitted{Question: question}
	}
}

// ask records a pending turn and answers it off the event loop.
func (a *App) ask(question string) tea.Cmd {
	a.turns = append(a.turns, turn{question: question, pending: true})
	a.busy = true
	a.status.SetState(status.StateThinking)
	a.refreshTranscript()

	answers := a.ports.Answer
	ctx := a.ctx
	return func() tea.Msg {
		answer, err := answers.Answer(ctx, question)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (a *App) finishTurn(msg messages.AnswerReceived) {
	for i := len(a.turns) - 1; i >= 0; i-- {
		if a.turns[i].pending && a.turns[i].question == msg.Question {
			a.turns[i] = turn{question: msg.Question, answer: msg.Answer, err: msg.Err}
			break
		}
	}
	a.busy = false
	if msg.Err != nil {
		a.status.SetState(status.StateError)
		a.status.SetMessage("a pergunta falhou, tente novamente")
	} else {
		a.status.Clear()
	}
	a.refreshTranscript()
}

func (a *App) loadStatus() tea.Cmd {
	corpus := a.ports.Corpus
	if corpus == nil {
		return nil
	}
	ctx := a.ctx
	return func() tea.Msg {
		st, err := corpus.Status(ctx)
		return messages.StatusLoaded{Status: st, Err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	header := a.styles.Title.Render("docqa") + " " +
		a.styles.Muted.Render("respostas somente a partir do documento ingerido")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		a.styles.Transcript.Render(a.transcript.View()),
		a.input.View(),
		a.status.View(),
	)
}

func (a *App) refreshTranscript() {
	a.transcript.SetContent(a.renderTranscript())
	a.transcript.GotoBottom()
}

func (a *App) renderTranscript() string {
	if len(a.turns) == 0 {
		return a.styles.Muted.Render("Digite sua pergunta ou 'sair' para encerrar.")
	}

	wrap := lipgloss.NewStyle().Width(max(20, a.transcript.Width))
	var b strings.Builder
	for i, t := range a.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(a.styles.QuestionLabel.Render("PERGUNTA: "))
		b.WriteString(wrap.Render(t.question))
		b.WriteString("\n")

		switch {
		case t.pending:
			b.WriteString(a.styles.Muted.Render("..."))
		case t.err != nil:
			b.WriteString(a.styles.Error.Render("Erro ao processar pergunta: " + t.err.Error()))
		case strings.TrimSpace(t.answer) == domain.RefusalSentence:
			b.WriteString(a.styles.AnswerLabel.Render("RESPOSTA: "))
			b.WriteString(a.styles.Refusal.Render(t.answer))
		default:
			b.WriteString(a.styles.AnswerLabel.Render("RESPOSTA: "))
			b.WriteString(wrap.Render(t.answer))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// SetDimensions lays the components out for a terminal of the given size.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	// header, input box (3), status bar and transcript border (2)
	reserved := 1 + 3 + 1 + 2
	frameW, _ := a.styles.Transcript.GetFrameSize()
	a.transcript.Width = max(20, width-frameW)
	a.transcript.Height = max(3, height-reserved)
	a.input.SetWidth(width)
	a.status.SetWidth(width)
	a.refreshTranscript()
}

// Run starts the chat in the alternate screen.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// Busy reports whether a question is being answered.
func (a *App) Busy() bool {
	return a.busy
}

// Transcript returns the rendered conversation.
func (a *App) Transcript() string {
	return a.renderTranscript()
}

// InputValue returns the text currently typed.
func (a *App) InputValue() string {
	return a.input.Value()
}

// StatusState returns the state of the status bar.
func (a *App) StatusState() status.State {
	return a.status.State()
}

// StatusMessage returns the hint or error shown in the status bar.
func (a *App) StatusMessage() string {
	return a.status.Message()
}
