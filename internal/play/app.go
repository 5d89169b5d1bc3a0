package play

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/HammerMeetNail/conversando/internal/game"
	"github.com/HammerMeetNail/conversando/internal/gate"
	"github.com/HammerMeetNail/conversando/internal/logging"
	"github.com/HammerMeetNail/conversando/internal/models"
	"github.com/HammerMeetNail/conversando/internal/services"
)

const (
	MsgCodeAccepted = "¡Código válido! Iniciando experiencia..."
	MsgCodeRejected = "Código no válido"
	MsgNoQuestions  = "No hay preguntas disponibles"
	MsgLoadFailed   = "Error al cargar las preguntas. Intenta nuevamente."
	MsgLoggedOut    = "Sesión cerrada."
	promptCode      = "Código de acceso: "
	gameHelp        = "[Enter] voltear/siguiente  [p] anterior  [f] favorito  [s] mezclar  [r] reiniciar  [l] cerrar sesión  [q] salir"
	emptyHelp       = "[c] cargar de nuevo  [l] cerrar sesión  [q] salir"
	favoriteMarker  = " ♥"
)

// API is what the terminal needs from the server.
type API interface {
	ValidateCode(ctx context.Context, code string) (models.ValidationResult, error)
	ListQuestions(ctx context.Context) ([]models.ReflectionQuestion, error)
}

type action int

const (
	actionNone action = iota
	actionQuit
	actionLogout
	actionReload
)

// App hosts the gate screen and the card game in a terminal.
type App struct {
	api    API
	gate   *gate.Gate
	deck   *game.Deck
	logger *logging.Logger

	outMu sync.Mutex
	out   io.Writer
}

func New(api API, g *gate.Gate, scheduler game.Scheduler, out io.Writer, logger *logging.Logger, opts ...game.Option) *App {
	if logger == nil {
		logger = logging.Default
	}
	a := &App{api: api, gate: g, out: out, logger: logger}
	deckOpts := []game.Option{
		game.WithRevoker(g),
		game.WithOnChange(a.onChange),
	}
	a.deck = game.NewDeck(scheduler, append(deckOpts, opts...)...)
	return a
}

// Deck exposes the card state machine driven by this app.
func (a *App) Deck() *game.Deck {
	return a.deck
}

// SubmitCode validates code and, when it is accepted, stores the grant. It
// returns whether access was granted and the message to show.
func (a *App) SubmitCode(ctx context.Context, code string) (bool, string) {
	if !models.IsValidCodeLength(code) {
		return false, services.MsgInvalidCode
	}

	result, err := a.api.ValidateCode(ctx, code)
	if err != nil {
		a.logger.Warn("Code validation request failed", map[string]interface{}{"error": err.Error()})
		return false, services.MsgValidationRetry
	}
	if !result.Valid {
		if result.Message == "" {
			return false, MsgCodeRejected
		}
		return false, result.Message
	}

	if err := a.gate.GrantAccess(code); err != nil {
		a.logger.Warn("Failed to persist access", map[string]interface{}{"error": err.Error()})
	}
	return true, MsgCodeAccepted
}

// LoadQuestions fetches the questions and deals a fresh deck.
func (a *App) LoadQuestions(ctx context.Context) error {
	questions, err := a.api.ListQuestions(ctx)
	if err != nil {
		a.deck.Load(nil)
		return fmt.Errorf("loading questions: %w", err)
	}
	a.deck.Load(questions)
	return nil
}

// Run drives the screens until the input ends or the user quits.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		if !a.gate.CheckAccess() {
			granted, err := a.gateScreen(ctx, scanner)
			if err != nil || !granted {
				return err
			}
		}

		next, err := a.gameScreen(ctx, scanner)
		if err != nil {
			return err
		}
		if next == actionQuit {
			return nil
		}
	}
}

func (a *App) gateScreen(ctx context.Context, scanner *bufio.Scanner) (bool, error) {
	for {
		a.printf("%s", promptCode)
		if !scanner.Scan() {
			a.printf("\n")
			return false, scanner.Err()
		}
		ok, msg := a.SubmitCode(ctx, strings.TrimRight(scanner.Text(), "\r"))
		a.printf("%s\n", msg)
		if ok {
			return true, nil
		}
	}
}

func (a *App) gameScreen(ctx context.Context, scanner *bufio.Scanner) (action, error) {
	for {
		if err := a.LoadQuestions(ctx); err != nil {
			a.logger.Warn("Failed to load questions", map[string]interface{}{"error": err.Error()})
			a.printf("%s\n", MsgLoadFailed)
		}
		if state := a.deck.Snapshot(); state.Empty() {
			a.render(state)
		}

		next, err := a.readCommands(scanner)
		if err != nil || next != actionReload {
			return next, err
		}
	}
}

func (a *App) readCommands(scanner *bufio.Scanner) (action, error) {
	for scanner.Scan() {
		switch next := a.Handle(scanner.Text()); next {
		case actionNone:
			continue
		case actionLogout:
			a.printf("%s\n", MsgLoggedOut)
			return actionLogout, nil
		default:
			return next, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return actionQuit, err
	}
	return actionQuit, nil
}

// Handle applies one line of input. Card moves that arrive while an
// animation runs are dropped by the deck.
func (a *App) Handle(line string) action {
	cmd := strings.ToLower(strings.TrimSpace(line))
	empty := a.deck.Snapshot().Empty()

	switch cmd {
	case "q", "salir":
		return actionQuit
	case "l", "logout":
		if err := a.deck.Logout(); err != nil {
			a.logger.Warn("Logout failed", map[string]interface{}{"error": err.Error()})
		}
		return actionLogout
	case "c":
		if empty {
			return actionReload
		}
	case "", "n":
		a.deck.Advance()
	case "p":
		a.deck.Retreat()
	case "f":
		a.deck.ToggleFavorite()
	case "s":
		a.deck.Shuffle()
	case "r":
		a.deck.Reset()
	case "?", "h":
		if empty {
			a.printf("%s\n", emptyHelp)
		} else {
			a.printf("%s\n", gameHelp)
		}
	}
	return actionNone
}

// onChange redraws once a card settles. Intermediate animation phases are
// not drawn in a terminal, and the empty screen is drawn by the game loop.
func (a *App) onChange(state game.State) {
	if state.Phase != game.PhaseIdle || state.Empty() {
		return
	}
	a.render(state)
}

func (a *App) render(state game.State) {
	if state.Empty() {
		a.printf("%s\n%s\n", MsgNoQuestions, emptyHelp)
		return
	}

	q, _ := state.Current()
	style := game.StyleFor(q.Category)

	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s · %s] %s\n", style.Icon, style.Color, q.Category)
	if state.Face == game.FaceQuestion {
		fmt.Fprintf(&b, "  %s\n", q.Question)
	}
	marker := ""
	if state.IsFavorite() {
		marker = favoriteMarker
	}
	fmt.Fprintf(&b, "%s%s\n", state.Counter(), marker)
	a.printf("%s", b.String())
}

func (a *App) printf(format string, args ...interface{}) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	_, _ = fmt.Fprintf(a.out, format, args...)
}
