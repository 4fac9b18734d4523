package domain

import "github.com/shopspring/decimal"

// ExceedsPrecision 小数位数是否超过 maxDigits
// 按提交时的精确表示计算，末尾的 0 也计入位数
func ExceedsPrecision(value decimal.Decimal, maxDigits int32) bool {
	return -value.Exponent() > maxDigits
}
