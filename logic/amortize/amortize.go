package amortize

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/angelogustilo19/rag-debt-navigator/types"
)

var (
	// ErrInvalidInput 负数/NaN/Inf 这类非法输入
	ErrInvalidInput = errors.New("amortize: invalid input")
	// ErrInsufficientPayment 月供盖不住利息，债务永远还不完
	// 和 ErrInvalidInput 是两种不同的结果，不能混为一谈
	ErrInsufficientPayment = errors.New("amortize: monthly payment too low to cover interest")
)

// 超过 100 年还不完的，实际意义上等同于还不完
const maxPayoffMonths = 1200

// MonthsToPayoff 计算还清时间和总还款额
// 逐月模拟，金额用 decimal 避免浮点误差，最后一个月只还剩余本息（不收整月）
func MonthsToPayoff(principal, annualRatePercent, monthlyPayment float64) (*types.PayoffResult, error) {
	if !finite(principal) || !finite(annualRatePercent) || !finite(monthlyPayment) {
		return nil, ErrInvalidInput
	}
	if principal < 0 || annualRatePercent < 0 || monthlyPayment < 0 {
		return nil, ErrInvalidInput
	}

	// 本金为 0：没有债，直接归零
	if principal == 0 {
		return &types.PayoffResult{}, nil
	}

	monthlyRate := annualRatePercent / 100 / 12
	if monthlyPayment <= principal*monthlyRate || monthlyPayment == 0 {
		return nil, ErrInsufficientPayment
	}

	// 闭式解先估个上界，超过 100 年按还不完处理
	if monthlyRate > 0 {
		bound := math.Ceil(-math.Log(1-monthlyRate*principal/monthlyPayment) / math.Log(1+monthlyRate))
		if bound > maxPayoffMonths {
			return nil, ErrInsufficientPayment
		}
	}

	balance := decimal.NewFromFloat(principal)
	rate := decimal.NewFromFloat(annualRatePercent).Div(decimal.NewFromInt(1200))
	payment := decimal.NewFromFloat(monthlyPayment)

	totalPaid := decimal.Zero
	months := 0
	for balance.IsPositive() {
		interest := balance.Mul(rate)
		balance = balance.Add(interest).Sub(payment)
		totalPaid = totalPaid.Add(payment)
		months++

		if balance.IsNegative() {
			// 最后一个月多收的部分退回去
			totalPaid = totalPaid.Add(balance)
			balance = decimal.Zero
		}
		if months > maxPayoffMonths {
			return nil, ErrInsufficientPayment
		}
	}

	totalInterest := totalPaid.Sub(decimal.NewFromFloat(principal))
	return &types.PayoffResult{
		Years:         months / 12,
		Months:        months % 12,
		TotalMonths:   months,
		TotalPaid:     round2(totalPaid),
		TotalInterest: round2(totalInterest),
	}, nil
}

// RequiredMonthlyPayment 在 termMonths 个月内还清所需的月供
// 标准年金公式 M = P·r·(1+r)^n / ((1+r)^n − 1)，r=0 时退化为 P/n
func RequiredMonthlyPayment(principal, annualRatePercent float64, termMonths int) (float64, error) {
	if !finite(principal) || !finite(annualRatePercent) {
		return 0, ErrInvalidInput
	}
	if principal < 0 || annualRatePercent < 0 || termMonths < 1 {
		return 0, ErrInvalidInput
	}

	monthlyRate := annualRatePercent / 100 / 12
	var payment float64
	if monthlyRate == 0 {
		payment = principal / float64(termMonths)
	} else {
		pow := math.Pow(1+monthlyRate, float64(termMonths))
		payment = principal * monthlyRate * pow / (pow - 1)
	}
	return round2(decimal.NewFromFloat(payment)), nil
}

// MinimumViablePayment 刚好能开始减少本金的月供，payment-too-low 提示里用
func MinimumViablePayment(principal, annualRatePercent float64) float64 {
	interest := decimal.NewFromFloat(principal).
		Mul(decimal.NewFromFloat(annualRatePercent)).
		Div(decimal.NewFromInt(1200))
	return round2(interest) + 1
}

// round2 保留 2 位小数，round half up
func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
