package store

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"calcsync/src/model"
)

// ValidateUpdates is the strict check applied at the HTTP boundary. The
// store itself never rejects a save; the API does.
func ValidateUpdates(updates map[string]interface{}) error {
	for name, value := range updates {
		switch {
		case NumericFields[name]:
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("field %s must be a string", name)
			}
			if s == "" {
				continue
			}
			if _, err := decimal.NewFromString(s); err != nil {
				return fmt.Errorf("field %s is not a valid decimal: %q", name, s)
			}

		case name == "direction":
			s, _ := value.(string)
			if s != model.DirectionLong && s != model.DirectionShort {
				return fmt.Errorf("direction must be %q or %q", model.DirectionLong, model.DirectionShort)
			}

		case name == "decimal_places":
			n, ok := toInt(value)
			if !ok || n < 0 || n > 10 {
				return fmt.Errorf("decimal_places must be an integer between 0 and 10")
			}

		case name == FieldAPIKeyID:
			s, ok := value.(string)
			if !ok || s == "" {
				// nil / empty normalizes to null downstream.
				continue
			}
			if _, err := uuid.Parse(s); err != nil {
				return fmt.Errorf("api_key_id is not a valid key id: %q", s)
			}
		}
	}

	return nil
}

// warnSuspectNumerics flags unparsable numeric input on the lenient path.
// The value is still stored as typed: partial keystrokes like "1." are
// legitimate transient states of the form.
func warnSuspectNumerics(updates map[string]interface{}) {
	for name, value := range updates {
		if !NumericFields[name] {
			continue
		}
		s, ok := value.(string)
		if !ok || s == "" {
			continue
		}
		if _, err := decimal.NewFromString(s); err != nil {
			logger.WithFields(map[string]interface{}{
				"field": name,
				"value": s,
			}).Warn("[store] numeric field does not parse as decimal")
		}
	}
}

func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
