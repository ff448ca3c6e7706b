package domain

import "strings"

// Display registries for the raw catalog codes. Unknown codes fall through
// as-is so a registry gap never blanks a column.

var currencyLabels = map[string]string{
	"01": "台幣",
	"02": "美元",
	"03": "澳幣",
	"04": "歐元",
	"05": "人民幣",
}

var premiumUnitLabels = map[string]string{
	"1": "元",
	"2": "千元",
	"3": "萬元",
}

var coverageTypeLabels = map[string]string{
	"A": "主約",
	"R": "附約",
}

func CurrencyLabel(code string) string { return lookupLabel(currencyLabels, code) }
func UnitLabel(code string) string     { return lookupLabel(premiumUnitLabels, code) }
func CoverageLabel(code string) string { return lookupLabel(coverageTypeLabels, code) }

func lookupLabel(m map[string]string, code string) string {
	code = strings.TrimSpace(code)
	if l, ok := m[code]; ok {
		return l
	}
	return code
}

// KnownChannels is the selectable channel set, in display order.
var KnownChannels = []string{"AG", "BK", "BR", "DM", "WEB"}

var channelLabels = map[string]string{
	"AG":  "業務員",
	"BK":  "銀行",
	"BR":  "經代",
	"DM":  "直效行銷",
	"WEB": "網路投保",
}

// channelAlias translates internal wire codes to their public alias.
// The upstream API reports bank-channel windows under "OT".
var channelAlias = map[string]string{
	"OT": "BK",
}

// NormalizeChannel maps a wire channel code to its display code.
func NormalizeChannel(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if alias, ok := channelAlias[c]; ok {
		return alias
	}
	return c
}

func ChannelLabel(code string) string {
	return lookupLabel(channelLabels, NormalizeChannel(code))
}
