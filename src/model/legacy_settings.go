package model

// LegacySettings is the old camelCase settings blob still written by earlier
// builds under the calculatorSettings cache key. It is consumed for initial
// hydration and for cross-session change detection, never written back.
type LegacySettings struct {
	TakerFee         *string `json:"takerFee"`
	MakerFee         *string `json:"makerFee"`
	RiskAmount       *string `json:"riskAmount"`
	AvailableCapital *string `json:"availableCapital"`
	DecimalPlaces    *int    `json:"decimalPlaces"`
	EntryTaker       *bool   `json:"entryTaker"`
	EntryMaker       *bool   `json:"entryMaker"`
	ExitTaker        *bool   `json:"exitTaker"`
	ExitMaker        *bool   `json:"exitMaker"`
	TestMode         *bool   `json:"testMode"`
}

// Updates maps the settings that are actually present onto canonical column
// names, dropping absent ones.
func (s *LegacySettings) Updates() map[string]interface{} {
	updates := map[string]interface{}{}

	if s.TakerFee != nil {
		updates["taker_fee"] = *s.TakerFee
	}
	if s.MakerFee != nil {
		updates["maker_fee"] = *s.MakerFee
	}
	if s.RiskAmount != nil {
		updates["risk_amount"] = *s.RiskAmount
	}
	if s.AvailableCapital != nil {
		updates["available_capital"] = *s.AvailableCapital
	}
	if s.DecimalPlaces != nil {
		updates["decimal_places"] = *s.DecimalPlaces
	}
	if s.EntryTaker != nil {
		updates["entry_taker"] = *s.EntryTaker
	}
	if s.EntryMaker != nil {
		updates["entry_maker"] = *s.EntryMaker
	}
	if s.ExitTaker != nil {
		updates["exit_taker"] = *s.ExitTaker
	}
	if s.ExitMaker != nil {
		updates["exit_maker"] = *s.ExitMaker
	}
	if s.TestMode != nil {
		updates["test_mode"] = *s.TestMode
	}

	return updates
}
