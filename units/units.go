// C:\Users\wasab\OneDrive\デスクトップ\PYRO\units\units.go
package units

import (
	"strings"

	"pyrotrack/model"

	"github.com/shopspring/decimal"
)

// バラ数の保持桁数。部分返品や訂正を繰り返しても誤差が積み上がらないよう、
// 箱/バラ変換はすべてこのパッケージを通して同じ桁で丸めます。
const Precision = 4

const (
	BoxLabel  = "箱"
	UnitLabel = "个"
)

// SafeSpec は 0 以下の規格を 1 に補正します。
func SafeSpec(spec int) decimal.Decimal {
	if spec <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(spec))
}

// ToUnits は (箱, バラ) をバラ数に換算します。
func ToUnits(boxes, subUnits decimal.Decimal, spec int) decimal.Decimal {
	return boxes.Mul(SafeSpec(spec)).Add(subUnits)
}

// QtyToUnits は Quantity をバラ数に換算します。
func QtyToUnits(q model.Quantity, spec int) decimal.Decimal {
	return ToUnits(q.Boxes, q.Units, spec)
}

// FromUnits はバラ数を (箱, バラ) に戻します。箱数は 0 方向への切り捨て、
// バラは 4 桁で丸めます。負数は箱・バラとも負になります。
func FromUnits(total decimal.Decimal, spec int) model.Quantity {
	s := SafeSpec(spec)
	boxes, rem := total.QuoRem(s, 0)
	rem = rem.Round(Precision)
	// 丸めで規格ちょうどに繰り上がった場合は1箱に寄せる
	if rem.Abs().GreaterThanOrEqual(s) {
		if rem.IsNegative() {
			boxes = boxes.Sub(decimal.NewFromInt(1))
			rem = rem.Add(s)
		} else {
			boxes = boxes.Add(decimal.NewFromInt(1))
			rem = rem.Sub(s)
		}
	}
	return model.Quantity{Boxes: boxes, Units: rem}
}

// Normalize は (箱, バラ) を正規化します (バラ < 規格)。
func Normalize(q model.Quantity, spec int) model.Quantity {
	return FromUnits(QtyToUnits(q, spec), spec)
}

// FormatQty は "12箱5个" 形式の表示文字列を返します。両方ゼロなら "-"。
func FormatQty(q model.Quantity) string {
	if !q.Boxes.IsPositive() && !q.Units.IsPositive() {
		return "-"
	}
	var sb strings.Builder
	if q.Boxes.IsPositive() {
		sb.WriteString(q.Boxes.String())
		sb.WriteString(BoxLabel)
	}
	if q.Units.IsPositive() {
		sb.WriteString(q.Units.String())
		sb.WriteString(UnitLabel)
	}
	return sb.String()
}
