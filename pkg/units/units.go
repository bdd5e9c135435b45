// Package units provides conversions between raw base-unit token amounts and
// their decimal display form, plus basis-point fee splits. All arithmetic is
// integer-exact; amounts are *big.Int because token values exceed 64 bits.
package units

import (
	"fmt"
	"math/big"
	"strings"
)

// TokenDecimals is the scale of the platform token: one display unit equals
// 10^18 base units.
const TokenDecimals = 18

// BpsDenominator is the basis-point denominator: 10000 bps = 100%.
const BpsDenominator = 10000

var scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)

// ToDecimal renders a base-unit amount as a decimal string, e.g.
// 1500000000000000000 -> "1.5". Trailing fractional zeros are trimmed.
func ToDecimal(amount *big.Int) string {
	if amount == nil {
		return "0"
	}

	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)

	whole := new(big.Int)
	frac := new(big.Int)
	whole.QuoRem(abs, scale, frac)

	out := whole.String()
	if frac.Sign() != 0 {
		digits := fmt.Sprintf("%0*s", TokenDecimals, frac.String())
		digits = strings.TrimRight(digits, "0")
		out += "." + digits
	}
	if neg {
		out = "-" + out
	}
	return out
}

// FromDecimal parses a decimal string back into base units. It is the exact
// inverse of ToDecimal for any amount ToDecimal can produce.
func FromDecimal(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("parse decimal: empty input")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	wholePart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		wholePart = s[:idx]
		fracPart = s[idx+1:]
	}
	if wholePart == "" {
		wholePart = "0"
	}
	if len(fracPart) > TokenDecimals {
		return nil, fmt.Errorf("parse decimal %q: more than %d fractional digits", s, TokenDecimals)
	}

	whole, ok := new(big.Int).SetString(wholePart, 10)
	if !ok {
		return nil, fmt.Errorf("parse decimal %q: invalid integer part", s)
	}

	out := new(big.Int).Mul(whole, scale)
	if fracPart != "" {
		padded := fracPart + strings.Repeat("0", TokenDecimals-len(fracPart))
		frac, ok := new(big.Int).SetString(padded, 10)
		if !ok {
			return nil, fmt.Errorf("parse decimal %q: invalid fractional part", s)
		}
		out.Add(out, frac)
	}
	if neg {
		out.Neg(out)
	}
	return out, nil
}

// Split divides a price into the platform fee and the payee's remainder at the
// given basis-point rate. The fee uses floor division, matching the contracts'
// own integer arithmetic, and fee+revenue always equals price exactly.
func Split(price *big.Int, bps int64) (fee, revenue *big.Int) {
	if price == nil || price.Sign() <= 0 || bps <= 0 {
		return new(big.Int), cloneOrZero(price)
	}

	fee = new(big.Int).Mul(price, big.NewInt(bps))
	fee.Quo(fee, big.NewInt(BpsDenominator))
	revenue = new(big.Int).Sub(price, fee)
	return fee, revenue
}

func cloneOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
