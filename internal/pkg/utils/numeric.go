package utils

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

// Round округляет значение до places знаков после запятой по банковскому
// правилу (half to even). Округляется точное двоичное значение, поэтому
// 2.675 (на деле 2.67499...) даёт 2.67, а 0.125 даёт 0.12.
func Round(v float64, places int32) float64 {
	if !Finite(v) {
		return v
	}
	r, _ := exactDecimal(v).RoundBank(places).Float64()
	return r
}

// exactDecimal переводит float64 в decimal без потери точности:
// m·2^e записывается как m·5^(-e)·10^e.
func exactDecimal(v float64) decimal.Decimal {
	frac, exp := math.Frexp(v)
	mant := big.NewInt(int64(frac * (1 << 53)))
	exp -= 53
	if exp >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(exp)), 0)
	}
	five := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(-exp)), nil)
	return decimal.NewFromBigInt(mant.Mul(mant, five), int32(exp))
}

// RoundDown округляет вниз до places знаков
func RoundDown(v float64, places int32) float64 {
	if !Finite(v) {
		return v
	}
	r, _ := decimal.NewFromFloat(v).RoundFloor(places).Float64()
	return r
}

// RoundUp округляет вверх до places знаков
func RoundUp(v float64, places int32) float64 {
	if !Finite(v) {
		return v
	}
	r, _ := decimal.NewFromFloat(v).RoundCeil(places).Float64()
	return r
}

// RoundInt округляет значение до целого, половины к чётному
func RoundInt(v float64) int {
	return int(math.RoundToEven(v))
}

// Finite проверяет, что значение не NaN и не бесконечность
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Mode возвращает самое частое значение; при равенстве побеждает встреченное первым
func Mode[T comparable](values []T) (T, bool) {
	var zero T
	if len(values) == 0 {
		return zero, false
	}
	counts := make(map[T]int, len(values))
	order := make([]T, 0, len(values))
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, true
}

// MinMax возвращает минимум и максимум среза
func MinMax[T constraints.Ordered](values []T) (lo, hi T, ok bool) {
	if len(values) == 0 {
		return lo, hi, false
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, true
}

// Mean возвращает среднее арифметическое
func Mean[T constraints.Integer | constraints.Float](values []T) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values)), true
}
