package model

import "time"

const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// CalculatorInputs is the row-per-user snapshot of the position size
// calculator form. Numeric fields are kept as strings so the stored value is
// exactly what the user typed (including trailing zeros and partial input).
type CalculatorInputs struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index" json:"user_id"`

	CryptoSymbol     string `gorm:"size:30;column:crypto_symbol" json:"crypto_symbol"`
	EntryPrice       string `gorm:"size:40;column:entry_price" json:"entry_price"`
	StopLossPrice    string `gorm:"size:40;column:stop_loss_price" json:"stop_loss_price"`
	TakeProfitPrice  string `gorm:"size:40;column:take_profit_price" json:"take_profit_price"`
	RiskAmount       string `gorm:"size:40;column:risk_amount" json:"risk_amount"`
	AvailableCapital string `gorm:"size:40;column:available_capital" json:"available_capital"`
	TakerFee         string `gorm:"size:20;column:taker_fee" json:"taker_fee"`
	MakerFee         string `gorm:"size:20;column:maker_fee" json:"maker_fee"`

	Direction     string `gorm:"size:10;not null;default:long" json:"direction"`
	DecimalPlaces int    `gorm:"column:decimal_places" json:"decimal_places"`

	EntryTaker bool `gorm:"column:entry_taker" json:"entry_taker"`
	EntryMaker bool `gorm:"column:entry_maker" json:"entry_maker"`
	ExitTaker  bool `gorm:"column:exit_taker" json:"exit_taker"`
	ExitMaker  bool `gorm:"column:exit_maker" json:"exit_maker"`
	TestMode   bool `gorm:"column:test_mode" json:"test_mode"`

	SystemName string `gorm:"size:120;column:system_name" json:"system_name"`
	ImageURL   string `gorm:"type:text;column:image_url" json:"image_url"`
	Notes      string `gorm:"type:text" json:"notes"`

	// APIKeyID references user_api_keys. Never the empty string: it is nil or
	// a valid key id.
	APIKeyID *string `gorm:"size:36;column:api_key_id" json:"api_key_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CalculatorInputs) TableName() string {
	return "calculator_inputs"
}

// DefaultCalculatorInputs returns the record a fresh session starts from,
// before local cache or remote hydration.
func DefaultCalculatorInputs() *CalculatorInputs {
	return &CalculatorInputs{
		CryptoSymbol:  "BTCUSDT",
		TakerFee:      "0.055",
		MakerFee:      "0.02",
		Direction:     DirectionLong,
		DecimalPlaces: 2,
		EntryTaker:    true,
		ExitTaker:     true,
	}
}

// UpdateCalculatorInputsPayload is the partial-update body accepted by the
// HTTP surface. Only non-nil fields are applied.
type UpdateCalculatorInputsPayload struct {
	CryptoSymbol     *string `json:"crypto_symbol"`
	EntryPrice       *string `json:"entry_price"`
	StopLossPrice    *string `json:"stop_loss_price"`
	TakeProfitPrice  *string `json:"take_profit_price"`
	RiskAmount       *string `json:"risk_amount"`
	AvailableCapital *string `json:"available_capital"`
	TakerFee         *string `json:"taker_fee"`
	MakerFee         *string `json:"maker_fee"`
	Direction        *string `json:"direction"`
	DecimalPlaces    *int    `json:"decimal_places"`
	EntryTaker       *bool   `json:"entry_taker"`
	EntryMaker       *bool   `json:"entry_maker"`
	ExitTaker        *bool   `json:"exit_taker"`
	ExitMaker        *bool   `json:"exit_maker"`
	TestMode         *bool   `json:"test_mode"`
	SystemName       *string `json:"system_name"`
	ImageURL         *string `json:"image_url"`
	Notes            *string `json:"notes"`
	APIKeyID         *string `json:"api_key_id"`
}

// Updates flattens the payload into a column→value map for the store,
// skipping nil fields.
func (p *UpdateCalculatorInputsPayload) Updates() map[string]interface{} {
	updates := map[string]interface{}{}

	if p.CryptoSymbol != nil {
		updates["crypto_symbol"] = *p.CryptoSymbol
	}
	if p.EntryPrice != nil {
		updates["entry_price"] = *p.EntryPrice
	}
	if p.StopLossPrice != nil {
		updates["stop_loss_price"] = *p.StopLossPrice
	}
	if p.TakeProfitPrice != nil {
		updates["take_profit_price"] = *p.TakeProfitPrice
	}
	if p.RiskAmount != nil {
		updates["risk_amount"] = *p.RiskAmount
	}
	if p.AvailableCapital != nil {
		updates["available_capital"] = *p.AvailableCapital
	}
	if p.TakerFee != nil {
		updates["taker_fee"] = *p.TakerFee
	}
	if p.MakerFee != nil {
		updates["maker_fee"] = *p.MakerFee
	}
	if p.Direction != nil {
		updates["direction"] = *p.Direction
	}
	if p.DecimalPlaces != nil {
		updates["decimal_places"] = *p.DecimalPlaces
	}
	if p.EntryTaker != nil {
		updates["entry_taker"] = *p.EntryTaker
	}
	if p.EntryMaker != nil {
		updates["entry_maker"] = *p.EntryMaker
	}
	if p.ExitTaker != nil {
		updates["exit_taker"] = *p.ExitTaker
	}
	if p.ExitMaker != nil {
		updates["exit_maker"] = *p.ExitMaker
	}
	if p.TestMode != nil {
		updates["test_mode"] = *p.TestMode
	}
	if p.SystemName != nil {
		updates["system_name"] = *p.SystemName
	}
	if p.ImageURL != nil {
		updates["image_url"] = *p.ImageURL
	}
	if p.Notes != nil {
		updates["notes"] = *p.Notes
	}
	if p.APIKeyID != nil {
		updates["api_key_id"] = *p.APIKeyID
	}

	return updates
}
