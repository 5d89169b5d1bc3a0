package gate

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/HammerMeetNail/conversando/internal/logging"
	"github.com/HammerMeetNail/conversando/internal/models"
)

// AccessTTL is how long a grant stays valid after it is issued.
const AccessTTL = 24 * time.Hour

// Store persists the single access record. Get returns nil, nil when there
// is no record.
type Store interface {
	Get() ([]byte, error)
	Set(data []byte) error
	Clear() error
}

// Gate decides whether this client holds a live access grant.
type Gate struct {
	store  Store
	clock  clockwork.Clock
	logger *logging.Logger
}

func New(store Store, clock clockwork.Clock, logger *logging.Logger) *Gate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default
	}
	return &Gate{store: store, clock: clock, logger: logger}
}

// CheckAccess reports whether the stored grant exists and is at most
// AccessTTL old. An expired grant is cleared. A record that cannot be read
// or parsed counts as no access.
func (g *Gate) CheckAccess() bool {
	session, ok := g.load()
	if !ok {
		return false
	}

	elapsed := g.clock.Now().UnixMilli() - session.AccessGrantedAt
	if elapsed > AccessTTL.Milliseconds() {
		if err := g.store.Clear(); err != nil {
			g.logger.Warn("Failed to clear expired access", map[string]interface{}{"error": err.Error()})
		}
		return false
	}
	return session.HasAccess
}

// Session returns the stored grant when CheckAccess would accept it.
func (g *Gate) Session() (models.AccessSession, bool) {
	if !g.CheckAccess() {
		return models.AccessSession{}, false
	}
	return g.load()
}

// GrantAccess stores a new grant for code, stamped with the current time.
func (g *Gate) GrantAccess(code string) error {
	data, err := json.Marshal(models.AccessSession{
		HasAccess:       true,
		AccessGrantedAt: g.clock.Now().UnixMilli(),
		Code:            code,
	})
	if err != nil {
		return fmt.Errorf("encoding access: %w", err)
	}
	if err := g.store.Set(data); err != nil {
		return fmt.Errorf("storing access: %w", err)
	}
	return nil
}

// RevokeAccess removes the stored grant.
func (g *Gate) RevokeAccess() error {
	if err := g.store.Clear(); err != nil {
		return fmt.Errorf("clearing access: %w", err)
	}
	return nil
}

func (g *Gate) load() (models.AccessSession, bool) {
	data, err := g.store.Get()
	if err != nil {
		g.logger.Warn("Failed to read access record", map[string]interface{}{"error": err.Error()})
		return models.AccessSession{}, false
	}
	if len(data) == 0 {
		return models.AccessSession{}, false
	}

	var session models.AccessSession
	if err := json.Unmarshal(data, &session); err != nil {
		g.logger.Debug("Ignoring malformed access record", map[string]interface{}{"error": err.Error()})
		return models.AccessSession{}, false
	}
	return session, true
}
