package compensation

import (
	"strings"

	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

// UnknownRole は未知の役職に使われるフォールバックキーです。
const UnknownRole = "unknown"

// BandTable は正規化済み役職名から市場給与レンジへの参照テーブルです。
// 実行時には変更されず、ロックなしで共有できます。
type BandTable map[string]employee.MarketRange

func defaultBands() BandTable {
	return BandTable{
		"engineer":        {Min: 800_000, Mid: 1_200_000, Max: 1_800_000},
		"senior engineer": {Min: 1_400_000, Mid: 2_000_000, Max: 2_800_000},
		"manager":         {Min: 1_000_000, Mid: 1_500_000, Max: 2_200_000},
		"designer":        {Min: 700_000, Mid: 1_000_000, Max: 1_500_000},
		"analyst":         {Min: 700_000, Mid: 1_050_000, Max: 1_500_000},
		"sales":           {Min: 600_000, Mid: 900_000, Max: 1_400_000},
		"hr":              {Min: 500_000, Mid: 750_000, Max: 1_100_000},
		"intern":          {Min: 300_000, Mid: 450_000, Max: 600_000},
		UnknownRole:       {Min: 500_000, Mid: 800_000, Max: 1_200_000},
	}
}

// NewBandTable は既定のテーブルに overrides を適用したテーブルを返します。
func NewBandTable(overrides map[string]employee.MarketRange) BandTable {
	table := defaultBands()
	for role, band := range overrides {
		key := normalizeRole(role)
		if key == "" {
			continue
		}
		table[key] = band
	}
	return table
}

// Lookup は役職名を正規化してレンジを引きます。未知の役職は unknown にフォールバックします。
func (t BandTable) Lookup(role string) employee.MarketRange {
	if band, ok := t[normalizeRole(role)]; ok {
		return band
	}
	return t[UnknownRole]
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
