package expr

import (
	"math"
	"strconv"
	"strings"

	"github.com/jward/phpreflect/internal/errs"
)

func ToBool(v Value) bool {
	switch v := v.(type) {
	case nil, Null:
		return false
	case Bool:
		return bool(v)
	case Int:
		return v != 0
	case Float:
		return v != 0
	case String:
		return v != "" && v != "0"
	case *Array:
		return v.Len() > 0
	}
	return true
}

func ToString(v Value) (string, error) {
	switch v := v.(type) {
	case nil, Null:
		return "", nil
	case Bool:
		if v {
			return "1", nil
		}
		return "", nil
	case Int:
		return strconv.FormatInt(int64(v), 10), nil
	case Float:
		return FormatFloat(float64(v)), nil
	case String:
		return string(v), nil
	case *Array:
		return "Array", nil
	case *Object:
		return "", errs.Evaluation("object of class %s could not be converted to string", v.Class)
	}
	return "", errs.Evaluation("cannot convert %s to string", TypeName(v))
}

// FormatFloat renders f the way PHP string conversion does, with 14
// significant digits.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case f == 0:
		if math.Signbit(f) {
			return "-0"
		}
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	s := strconv.FormatFloat(f, 'E', 13, 64)
	mantissa, expPart, _ := strings.Cut(s, "E")
	exp, _ := strconv.Atoi(expPart)
	digits := strings.TrimRight(strings.Replace(mantissa, ".", "", 1), "0")
	if digits == "" {
		digits = "0"
	}

	if exp < -4 || exp >= 14 {
		rest := digits[1:]
		if rest == "" {
			rest = "0"
		}
		expSign := "+"
		if exp < 0 {
			expSign = "-"
			exp = -exp
		}
		return sign + digits[:1] + "." + rest + "E" + expSign + strconv.Itoa(exp)
	}
	if exp < 0 {
		return sign + "0." + strings.Repeat("0", -exp-1) + digits
	}
	if len(digits) <= exp+1 {
		return sign + digits + strings.Repeat("0", exp+1-len(digits))
	}
	return sign + digits[:exp+1] + "." + digits[exp+1:]
}

// numericPrefix parses PHP numeric strings. whole reports whether the
// entire string (bar surrounding whitespace) was numeric.
func numericPrefix(s string) (n Value, whole bool, ok bool) {
	trimmed := strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(trimmed) && (trimmed[end] == '+' || trimmed[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(trimmed) && isDigit(trimmed[end]) {
		end++
	}
	intDigits := end - digitsStart
	isFloat := false
	if end < len(trimmed) && trimmed[end] == '.' {
		j := end + 1
		for j < len(trimmed) && isDigit(trimmed[j]) {
			j++
		}
		if intDigits > 0 || j > end+1 {
			isFloat = true
			end = j
		}
	}
	if intDigits == 0 && !isFloat {
		return nil, false, false
	}
	if end < len(trimmed) && (trimmed[end] == 'e' || trimmed[end] == 'E') {
		j := end + 1
		if j < len(trimmed) && (trimmed[j] == '+' || trimmed[j] == '-') {
			j++
		}
		if j < len(trimmed) && isDigit(trimmed[j]) {
			for j < len(trimmed) && isDigit(trimmed[j]) {
				j++
			}
			isFloat = true
			end = j
		}
	}
	numeric := trimmed[:end]
	whole = strings.TrimRight(trimmed[end:], " \t\n\r\v\f") == ""
	if !isFloat {
		if i, err := strconv.ParseInt(numeric, 10, 64); err == nil {
			return Int(i), whole, true
		}
	}
	f, err := strconv.ParseFloat(numeric, 64)
	if err != nil && !isRangeErr(err) {
		return nil, false, false
	}
	return Float(f), whole, true
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// IsNumeric reports whether s is a PHP numeric string.
func IsNumeric(s string) bool {
	_, whole, ok := numericPrefix(s)
	return ok && whole
}

// toNumber converts v for arithmetic. op is used in error messages.
func toNumber(v Value, op string, other Value) (Value, error) {
	switch v := v.(type) {
	case nil, Null:
		return Int(0), nil
	case Bool:
		if v {
			return Int(1), nil
		}
		return Int(0), nil
	case Int, Float:
		return v, nil
	case String:
		n, _, ok := numericPrefix(string(v))
		if !ok {
			return nil, unsupportedOperands(v, op, other)
		}
		return n, nil
	}
	return nil, unsupportedOperands(v, op, other)
}

func toInt(v Value, op string, other Value) (int64, error) {
	n, err := toNumber(v, op, other)
	if err != nil {
		return 0, err
	}
	switch n := n.(type) {
	case Int:
		return int64(n), nil
	case Float:
		return floatToInt(float64(n)), nil
	}
	return 0, nil
}

func floatToInt(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

func toFloat(n Value) float64 {
	switch n := n.(type) {
	case Int:
		return float64(n)
	case Float:
		return float64(n)
	}
	return 0
}

func unsupportedOperands(a Value, op string, b Value) error {
	return errs.Evaluation("unsupported operand types: %s %s %s", TypeName(a), op, TypeName(b))
}
