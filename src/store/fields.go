package store

import (
	"strconv"

	logger "github.com/sirupsen/logrus"

	"calcsync/src/model"
)

// FieldAPIKeyID gets special treatment: the empty string is never a valid
// value and is normalized to null before any write.
const FieldAPIKeyID = "api_key_id"

// FieldNames lists every canonical (column) name of the calculator record.
var FieldNames = []string{
	"crypto_symbol",
	"entry_price",
	"stop_loss_price",
	"take_profit_price",
	"risk_amount",
	"available_capital",
	"taker_fee",
	"maker_fee",
	"direction",
	"decimal_places",
	"entry_taker",
	"entry_maker",
	"exit_taker",
	"exit_maker",
	"test_mode",
	"system_name",
	"image_url",
	"notes",
	FieldAPIKeyID,
}

// NumericFields are stored as strings but must hold decimal input.
var NumericFields = map[string]bool{
	"entry_price":       true,
	"stop_loss_price":   true,
	"take_profit_price": true,
	"risk_amount":       true,
	"available_capital": true,
	"taker_fee":         true,
	"maker_fee":         true,
}

// applyUpdate coerces value onto the named field of rec. Returns false when
// the name is unknown or the value cannot be coerced; the caller logs and
// moves on, a bad field never fails the whole save.
func applyUpdate(rec *model.CalculatorInputs, name string, value interface{}) bool {
	switch name {
	case "crypto_symbol":
		return setString(&rec.CryptoSymbol, value)
	case "entry_price":
		return setString(&rec.EntryPrice, value)
	case "stop_loss_price":
		return setString(&rec.StopLossPrice, value)
	case "take_profit_price":
		return setString(&rec.TakeProfitPrice, value)
	case "risk_amount":
		return setString(&rec.RiskAmount, value)
	case "available_capital":
		return setString(&rec.AvailableCapital, value)
	case "taker_fee":
		return setString(&rec.TakerFee, value)
	case "maker_fee":
		return setString(&rec.MakerFee, value)
	case "direction":
		return setString(&rec.Direction, value)
	case "decimal_places":
		return setInt(&rec.DecimalPlaces, value)
	case "entry_taker":
		return setBool(&rec.EntryTaker, value)
	case "entry_maker":
		return setBool(&rec.EntryMaker, value)
	case "exit_taker":
		return setBool(&rec.ExitTaker, value)
	case "exit_maker":
		return setBool(&rec.ExitMaker, value)
	case "test_mode":
		return setBool(&rec.TestMode, value)
	case "system_name":
		return setString(&rec.SystemName, value)
	case "image_url":
		return setString(&rec.ImageURL, value)
	case "notes":
		return setString(&rec.Notes, value)
	case FieldAPIKeyID:
		return setNullableString(&rec.APIKeyID, value)
	}

	logger.WithField("field", name).Warn("[store] unknown field in update, skipping")
	return false
}

// fieldString renders the current value of the named field for comparison
// against incoming change events, which always carry strings.
func fieldString(rec *model.CalculatorInputs, name string) (string, bool) {
	switch name {
	case "crypto_symbol":
		return rec.CryptoSymbol, true
	case "entry_price":
		return rec.EntryPrice, true
	case "stop_loss_price":
		return rec.StopLossPrice, true
	case "take_profit_price":
		return rec.TakeProfitPrice, true
	case "risk_amount":
		return rec.RiskAmount, true
	case "available_capital":
		return rec.AvailableCapital, true
	case "taker_fee":
		return rec.TakerFee, true
	case "maker_fee":
		return rec.MakerFee, true
	case "direction":
		return rec.Direction, true
	case "decimal_places":
		return strconv.Itoa(rec.DecimalPlaces), true
	case "entry_taker":
		return strconv.FormatBool(rec.EntryTaker), true
	case "entry_maker":
		return strconv.FormatBool(rec.EntryMaker), true
	case "exit_taker":
		return strconv.FormatBool(rec.ExitTaker), true
	case "exit_maker":
		return strconv.FormatBool(rec.ExitMaker), true
	case "test_mode":
		return strconv.FormatBool(rec.TestMode), true
	case "system_name":
		return rec.SystemName, true
	case "image_url":
		return rec.ImageURL, true
	case "notes":
		return rec.Notes, true
	case FieldAPIKeyID:
		if rec.APIKeyID == nil {
			return "", true
		}
		return *rec.APIKeyID, true
	}

	return "", false
}

func setString(dst *string, value interface{}) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	*dst = s
	return true
}

func setBool(dst *bool, value interface{}) bool {
	switch v := value.(type) {
	case bool:
		*dst = v
		return true
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return false
		}
		*dst = parsed
		return true
	}
	return false
}

func setInt(dst *int, value interface{}) bool {
	switch v := value.(type) {
	case int:
		*dst = v
		return true
	case float64:
		// JSON numbers decode as float64.
		*dst = int(v)
		return true
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return false
		}
		*dst = parsed
		return true
	}
	return false
}

func setNullableString(dst **string, value interface{}) bool {
	switch v := value.(type) {
	case nil:
		*dst = nil
		return true
	case string:
		if v == "" {
			*dst = nil
			return true
		}
		s := v
		*dst = &s
		return true
	case *string:
		if v == nil || *v == "" {
			*dst = nil
			return true
		}
		s := *v
		*dst = &s
		return true
	}
	return false
}
