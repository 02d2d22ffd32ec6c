package normalize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ricardosaldanha2005/defi-lending/internal/model"
	"github.com/ricardosaldanha2005/defi-lending/internal/subgraph"
)

// kindMapping maps source labels onto the canonical vocabulary by substring.
// Order matters: "repayBorrow" must resolve as a repay, not a borrow.
var kindMapping = []struct {
	substr string
	kind   string
}{
	{"liquidat", model.KindLiquidation},
	{"repay", model.KindRepay},
	{"borrow", model.KindBorrow},
	{"supply", model.KindSupply},
	{"deposit", model.KindSupply},
	{"withdraw", model.KindWithdraw},
	{"redeem", model.KindWithdraw},
}

// MapEventKind resolves a source label to the canonical vocabulary, keeping
// the raw label when no mapping applies.
func MapEventKind(label string) string {
	if label == "" {
		return model.KindUnknown
	}
	lower := strings.ToLower(label)
	for _, m := range kindMapping {
		if strings.Contains(lower, m.substr) {
			return m.kind
		}
	}
	return label
}

// Event converts one raw record into a normalized event using the schema
// config's resolved roles. Records without a transaction identity or a
// positive timestamp are rejected (ok=false), never defaulted.
func Event(raw json.RawMessage, cfg subgraph.SchemaConfig) (model.NormalizedEvent, bool) {
	record, err := decodeRecord(raw)
	if err != nil {
		return model.NormalizedEvent{}, false
	}

	txID := fieldString(record, cfg.Roles.TxHash)
	if txID == "" {
		txID = fieldString(record, cfg.Roles.ID)
	}
	if txID == "" {
		return model.NormalizedEvent{}, false
	}

	timestamp, ok := fieldInt(record, cfg.Roles.Timestamp)
	if !ok || timestamp <= 0 {
		return model.NormalizedEvent{}, false
	}

	event := model.NormalizedEvent{
		TransactionID: txID,
		TimestampSec:  timestamp,
	}
	if v, ok := fieldInt(record, cfg.Roles.LogIndex); ok {
		event.LogIndex = v
	}
	if v, ok := fieldInt(record, cfg.Roles.BlockNumber); ok {
		event.BlockNumber = v
	}

	label := fieldString(record, cfg.Roles.Label)
	if label == "" {
		label = cfg.FallbackLabel
	}
	event.EventKind = MapEventKind(label)

	applyAsset(&event, record, cfg.Asset)

	if amount := fieldString(record, cfg.Roles.Amount); amount != "" {
		event.AmountRaw = &amount
		scaled := amount
		if event.AssetDecimals != nil {
			if s, ok := ScaleAmount(amount, *event.AssetDecimals); ok {
				scaled = s
			}
		}
		event.Amount = &scaled
	}
	if usd := fieldString(record, cfg.Roles.AmountUSD); usd != "" {
		event.AmountUSDRaw = &usd
	}

	return event, true
}

func applyAsset(event *model.NormalizedEvent, record map[string]interface{}, path subgraph.AssetPath) {
	token := tokenObject(record, path)
	if token == nil {
		return
	}
	if addr := fieldString(token, path.AddressField); addr != "" {
		lowered := strings.ToLower(addr)
		event.AssetAddress = &lowered
	}
	if symbol := fieldString(token, path.SymbolField); symbol != "" {
		event.AssetSymbol = &symbol
	}
	if decimals, ok := fieldInt(token, path.DecimalsField); ok {
		event.AssetDecimals = &decimals
	}
}

func tokenObject(record map[string]interface{}, path subgraph.AssetPath) map[string]interface{} {
	switch path.Shape {
	case subgraph.AssetDirect:
		return childObject(record, path.Field, false)
	case subgraph.AssetNested:
		reserve := childObject(record, path.Field, false)
		return childObject(reserve, path.TokenField, path.TokenIsList)
	case subgraph.AssetMarket:
		position := childObject(record, path.Field, false)
		market := childObject(position, path.MarketField, false)
		return childObject(market, path.TokenField, path.TokenIsList)
	default:
		return nil
	}
}

func childObject(parent map[string]interface{}, field string, isList bool) map[string]interface{} {
	if parent == nil || field == "" {
		return nil
	}
	value, ok := parent[field]
	if !ok {
		return nil
	}
	if isList {
		items, ok := value.([]interface{})
		if !ok || len(items) == 0 {
			return nil
		}
		value = items[0]
	}
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	return obj
}

func decodeRecord(raw json.RawMessage) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var record map[string]interface{}
	if err := dec.Decode(&record); err != nil {
		return nil, err
	}
	return record, nil
}

func fieldString(record map[string]interface{}, field string) string {
	if record == nil || field == "" {
		return ""
	}
	switch v := record[field].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func fieldInt(record map[string]interface{}, field string) (int64, bool) {
	if record == nil || field == "" {
		return 0, false
	}
	switch v := record[field].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
