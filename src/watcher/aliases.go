package watcher

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultAliases maps every identifier a field-change producer may emit —
// canonical snake_case or the camelCase variant older form builds use — onto
// the canonical column name.
var defaultAliases = map[string]string{
	"crypto_symbol": "crypto_symbol",
	"cryptoSymbol":  "crypto_symbol",

	"entry_price": "entry_price",
	"entryPrice":  "entry_price",

	"stop_loss_price": "stop_loss_price",
	"stopLossPrice":   "stop_loss_price",

	"take_profit_price": "take_profit_price",
	"takeProfitPrice":   "take_profit_price",

	"risk_amount": "risk_amount",
	"riskAmount":  "risk_amount",

	"available_capital": "available_capital",
	"availableCapital":  "available_capital",

	"taker_fee": "taker_fee",
	"takerFee":  "taker_fee",

	"maker_fee": "maker_fee",
	"makerFee":  "maker_fee",

	"direction": "direction",

	"decimal_places": "decimal_places",
	"decimalPlaces":  "decimal_places",

	"entry_taker": "entry_taker",
	"entryTaker":  "entry_taker",

	"entry_maker": "entry_maker",
	"entryMaker":  "entry_maker",

	"exit_taker": "exit_taker",
	"exitTaker":  "exit_taker",

	"exit_maker": "exit_maker",
	"exitMaker":  "exit_maker",

	"test_mode": "test_mode",
	"testMode":  "test_mode",

	"system_name": "system_name",
	"systemName":  "system_name",

	"image_url": "image_url",
	"imageUrl":  "image_url",
	"imageURL":  "image_url",

	"notes": "notes",

	"api_key_id": "api_key_id",
	"apiKeyId":   "api_key_id",
	"apiKeyID":   "api_key_id",
}

// Aliases returns a copy of the default alias table.
func Aliases() map[string]string {
	aliases := make(map[string]string, len(defaultAliases))
	for alias, canonical := range defaultAliases {
		aliases[alias] = canonical
	}
	return aliases
}

// LoadAliases merges extra alias→canonical pairs from a YAML file over the
// defaults. Canonical names must already exist in the default table.
func LoadAliases(path string) (map[string]string, error) {
	aliases := Aliases()
	if path == "" {
		return aliases, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file %s: %w", path, err)
	}

	extra := map[string]string{}
	if err := yaml.Unmarshal(raw, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse alias file %s: %w", path, err)
	}

	for alias, canonical := range extra {
		if _, ok := defaultAliases[canonical]; !ok {
			return nil, fmt.Errorf("alias file %s maps %q to unknown field %q", path, alias, canonical)
		}
		aliases[alias] = canonical
	}

	return aliases, nil
}
