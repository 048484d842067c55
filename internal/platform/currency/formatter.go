package currency

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter は金額をロケールに応じた表示用文字列へ整形します。
// 純粋に表示用であり、判定ロジックには関与しません。
type Formatter struct {
	printer *message.Printer
}

// NewFormatter は BCP 47 ロケールタグから Formatter を生成します。
func NewFormatter(locale string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("currency: parse locale %q: %w", locale, err)
	}
	return &Formatter{printer: message.NewPrinter(tag)}, nil
}

// Format は金額を桁区切り付きの文字列にします。小数部は表示しません。
func (f *Formatter) Format(amount float64) string {
	return f.printer.Sprint(number.Decimal(amount, number.MaxFractionDigits(0)))
}
