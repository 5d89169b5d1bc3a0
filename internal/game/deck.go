package game

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/HammerMeetNail/conversando/internal/models"
)

const (
	FlipDuration    = 600 * time.Millisecond
	DiscardDuration = 800 * time.Millisecond
	EnterDuration   = 800 * time.Millisecond
)

// Face is the visible side of the current card.
type Face int

const (
	FaceCategory Face = iota
	FaceQuestion
)

func (f Face) String() string {
	if f == FaceQuestion {
		return "question"
	}
	return "category"
}

// Phase is the animation stage of the current card.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFlipping
	PhaseDiscarding
	PhaseEntering
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFlipping:
		return "flipping"
	case PhaseDiscarding:
		return "discarding"
	case PhaseEntering:
		return "entering"
	default:
		return "unknown"
	}
}

// AccessRevoker drops the local access grant.
type AccessRevoker interface {
	RevokeAccess() error
}

// State is a copy of the deck at one instant.
type State struct {
	Questions []models.ReflectionQuestion
	Index     int
	Face      Face
	Phase     Phase
	Favorites []int
}

func (s State) Empty() bool {
	return len(s.Questions) == 0
}

// Current returns the card at Index, or false for an empty deck.
func (s State) Current() (models.ReflectionQuestion, bool) {
	if s.Empty() {
		return models.ReflectionQuestion{}, false
	}
	return s.Questions[s.Index], true
}

func (s State) IsFavorite() bool {
	for _, i := range s.Favorites {
		if i == s.Index {
			return true
		}
	}
	return false
}

// Counter is the position label shown under the card.
func (s State) Counter() string {
	if s.Empty() {
		return ""
	}
	if s.Face == FaceQuestion {
		return fmt.Sprintf("Pregunta %d de %d", s.Index+1, len(s.Questions))
	}
	return fmt.Sprintf("Carta %d de %d", s.Index+1, len(s.Questions))
}

// Deck drives the card presentation: which question is shown, which face is
// up, the flip/discard/enter animation phases, and positional favorites.
//
// Advance and Retreat are dropped unless the phase is idle. Timed steps run
// through the Scheduler and cannot be cancelled; Shuffle and Reset leave a
// running animation alone, and its remaining steps act on whatever index is
// current when they fire. Load starts a new deck and discards steps that
// were scheduled for the previous one.
type Deck struct {
	mu        sync.Mutex
	source    []models.ReflectionQuestion
	ordered   []models.ReflectionQuestion
	index     int
	face      Face
	phase     Phase
	favorites map[int]struct{}
	epoch     uint64

	scheduler Scheduler
	shuffle   func(n int, swap func(i, j int))
	revoker   AccessRevoker
	onChange  func(State)
	onLogout  func()
}

type Option func(*Deck)

// WithShuffler replaces the permutation used by Load and Shuffle.
func WithShuffler(shuffle func(n int, swap func(i, j int))) Option {
	return func(d *Deck) { d.shuffle = shuffle }
}

func WithRevoker(r AccessRevoker) Option {
	return func(d *Deck) { d.revoker = r }
}

// WithOnChange registers a callback that receives the state after every
// change, including timed steps. It runs without the deck lock held.
func WithOnChange(fn func(State)) Option {
	return func(d *Deck) { d.onChange = fn }
}

// WithOnLogout registers the host's hook for returning to the gate.
func WithOnLogout(fn func()) Option {
	return func(d *Deck) { d.onLogout = fn }
}

func NewDeck(scheduler Scheduler, opts ...Option) *Deck {
	d := &Deck{
		scheduler: scheduler,
		shuffle:   rand.Shuffle,
		favorites: map[int]struct{}{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load replaces the questions with a freshly shuffled copy and returns to
// the first card, category face up. The caller's slice is not modified.
func (d *Deck) Load(questions []models.ReflectionQuestion) {
	d.mu.Lock()
	d.source = append([]models.ReflectionQuestion(nil), questions...)
	d.ordered = d.permuted()
	d.index = 0
	d.face = FaceCategory
	d.phase = PhaseIdle
	d.favorites = map[int]struct{}{}
	d.epoch++
	d.unlockAndNotify()
}

// Advance reveals the question, or, when the question is already showing,
// flips back, discards the card and brings in the next one, wrapping to the
// first card after the last. It reports whether the input was accepted.
func (d *Deck) Advance() bool {
	d.mu.Lock()
	if !d.acceptsInputLocked() {
		d.mu.Unlock()
		return false
	}

	epoch := d.epoch
	d.phase = PhaseFlipping
	if d.face == FaceCategory {
		d.face = FaceQuestion
		d.after(FlipDuration, epoch, d.settleLocked)
	} else {
		d.face = FaceCategory
		d.after(FlipDuration, epoch, func() {
			d.phase = PhaseDiscarding
			d.after(DiscardDuration, epoch, func() {
				d.index = (d.index + 1) % len(d.ordered)
				d.phase = PhaseEntering
				d.after(EnterDuration, epoch, d.settleLocked)
			})
		})
	}
	d.unlockAndNotify()
	return true
}

// Retreat flips a showing question back to its category. From the category
// face it discards the card and brings in the previous one with its question
// already showing, wrapping from the first card to the last.
func (d *Deck) Retreat() bool {
	d.mu.Lock()
	if !d.acceptsInputLocked() {
		d.mu.Unlock()
		return false
	}

	epoch := d.epoch
	if d.face == FaceQuestion {
		d.phase = PhaseFlipping
		d.face = FaceCategory
		d.after(FlipDuration, epoch, d.settleLocked)
	} else {
		d.phase = PhaseDiscarding
		d.after(DiscardDuration, epoch, func() {
			n := len(d.ordered)
			d.index = (d.index - 1 + n) % n
			d.face = FaceQuestion
			d.phase = PhaseEntering
			d.after(EnterDuration, epoch, d.settleLocked)
		})
	}
	d.unlockAndNotify()
	return true
}

// ToggleFavorite flips the current position in or out of the favorites. It
// is accepted in any phase.
func (d *Deck) ToggleFavorite() bool {
	d.mu.Lock()
	if len(d.ordered) == 0 {
		d.mu.Unlock()
		return false
	}
	if _, ok := d.favorites[d.index]; ok {
		delete(d.favorites, d.index)
	} else {
		d.favorites[d.index] = struct{}{}
	}
	d.unlockAndNotify()
	return true
}

// Shuffle draws a new order from the loaded questions and returns to the
// first card. Favorites are positions and are kept as they are.
func (d *Deck) Shuffle() {
	d.mu.Lock()
	d.ordered = d.permuted()
	d.index = 0
	d.face = FaceCategory
	d.unlockAndNotify()
}

// Reset returns to the first card and clears favorites without reordering.
func (d *Deck) Reset() {
	d.mu.Lock()
	d.index = 0
	d.face = FaceCategory
	d.favorites = map[int]struct{}{}
	d.unlockAndNotify()
}

// Logout revokes the access grant and hands control back to the host. Steps
// of a running animation are dropped and no change is reported for them. The
// host hook runs even when revoking fails.
func (d *Deck) Logout() error {
	d.mu.Lock()
	d.epoch++
	d.phase = PhaseIdle
	d.mu.Unlock()

	var err error
	if d.revoker != nil {
		if rerr := d.revoker.RevokeAccess(); rerr != nil {
			err = fmt.Errorf("revoking access: %w", rerr)
		}
	}
	if d.onLogout != nil {
		d.onLogout()
	}
	return err
}

func (d *Deck) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Deck) acceptsInputLocked() bool {
	return d.phase == PhaseIdle && len(d.ordered) > 0
}

func (d *Deck) settleLocked() {
	d.phase = PhaseIdle
}

// after schedules step to run under the deck lock. Steps from an earlier
// Load are dropped.
func (d *Deck) after(delay time.Duration, epoch uint64, step func()) {
	d.scheduler.After(delay, func() {
		d.mu.Lock()
		if d.epoch != epoch {
			d.mu.Unlock()
			return
		}
		step()
		d.unlockAndNotify()
	})
}

func (d *Deck) permuted() []models.ReflectionQuestion {
	out := append([]models.ReflectionQuestion(nil), d.source...)
	if len(out) > 1 && d.shuffle != nil {
		d.shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}

func (d *Deck) snapshotLocked() State {
	favs := make([]int, 0, len(d.favorites))
	for i := range d.favorites {
		favs = append(favs, i)
	}
	sort.Ints(favs)
	return State{
		Questions: append([]models.ReflectionQuestion(nil), d.ordered...),
		Index:     d.index,
		Face:      d.face,
		Phase:     d.phase,
		Favorites: favs,
	}
}

func (d *Deck) unlockAndNotify() {
	if d.onChange == nil {
		d.mu.Unlock()
		return
	}
	state := d.snapshotLocked()
	d.mu.Unlock()
	d.onChange(state)
}
