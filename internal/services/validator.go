package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/HammerMeetNail/conversando/internal/database"
	"github.com/HammerMeetNail/conversando/internal/logging"
	"github.com/HammerMeetNail/conversando/internal/models"
)

const (
	MsgInvalidCode     = "Código inválido"
	MsgCodeNotFound    = "No existe el código. Por favor contacta al administrador"
	MsgMalformedDates  = "Código con fechas inválidas. Por favor contacta al administrador"
	MsgCodeNotActive   = "El código aún no se ha activado. Por favor contacta al administrador"
	MsgCodeExpired     = "El código ya ha expirado. Por favor contacta al administrador"
	MsgValidationRetry = "Error al validar el código. Inténtalo nuevamente."
)

var ErrMalformedDate = errors.New("malformed registry date")

// RegistryZone is the fixed UTC-5 offset the registry dates are entered in.
// It has no DST rules on purpose.
var RegistryZone = time.FixedZone("UTC-5", -5*60*60)

var registryDateLayouts = []string{
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
}

// ParseRegistryDate parses a DD/MM/YYYY HH:MM registry date in RegistryZone.
func ParseRegistryDate(s string) (time.Time, error) {
	value := strings.Join(strings.Fields(s), " ")
	for _, layout := range registryDateLayouts {
		if t, err := time.ParseInLocation(layout, value, RegistryZone); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}

// CodeValidator checks a candidate code against the registry and its
// validity window.
type CodeValidator struct {
	registry CodeRegistry
	clock    clockwork.Clock
	logger   *logging.Logger
}

func NewCodeValidator(registry CodeRegistry, clock clockwork.Clock, logger *logging.Logger) *CodeValidator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default
	}
	return &CodeValidator{registry: registry, clock: clock, logger: logger}
}

// Validate never returns an error: every failure becomes an invalid result
// with a message for the user. The registry is read on every call.
func (v *CodeValidator) Validate(ctx context.Context, code string) models.ValidationResult {
	if !models.IsValidCodeLength(code) {
		return invalid(MsgInvalidCode)
	}

	codes, err := v.registry.ListCodes(ctx)
	if err != nil {
		fields := map[string]interface{}{"error": err.Error()}
		if errors.Is(err, database.ErrPermissionDenied) {
			v.logger.Error("Registry denied access to the code list; check the service account sharing", fields)
		} else {
			v.logger.Error("Failed to fetch access codes", fields)
		}
		return invalid(MsgValidationRetry)
	}

	match, ok := findCode(codes, code)
	if !ok {
		return invalid(MsgCodeNotFound)
	}

	created, cerr := ParseRegistryDate(match.CreatedDate)
	expires, eerr := ParseRegistryDate(match.ExpirationDate)
	if cerr != nil || eerr != nil {
		v.logger.Warn("Access code has malformed dates", map[string]interface{}{
			"code":    match.Code,
			"created": match.CreatedDate,
			"expires": match.ExpirationDate,
		})
		return invalid(MsgMalformedDates)
	}

	now := v.clock.Now().In(RegistryZone)
	if now.Before(created) {
		return invalid(MsgCodeNotActive)
	}
	if now.After(expires) {
		return invalid(MsgCodeExpired)
	}
	return models.ValidationResult{Valid: true}
}

func findCode(codes []models.AccessCode, candidate string) (models.AccessCode, bool) {
	target := models.NormalizeCode(candidate)
	for _, c := range codes {
		if models.NormalizeCode(c.Code) == target {
			return c, true
		}
	}
	return models.AccessCode{}, false
}

func invalid(msg string) models.ValidationResult {
	return models.ValidationResult{Valid: false, Message: msg}
}
