package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }

// 固定语料：抽取是 lossy 的启发式，这里锁住已支持的表达方式
func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		principal *float64
		rate      *float64
		payment   *float64
		term      *int
	}{
		{
			name:      "canonical payoff question",
			text:      "How long to pay off a $5000 loan at 18% interest paying $150 a month?",
			principal: f64(5000), rate: f64(18), payment: f64(150),
		},
		{
			name: "no financial content",
			text: "What's the capital of France?",
		},
		{
			name:      "no principal keyword, leftover fills principal",
			text:      "How long to pay off $5000 at 18% with $150 monthly payments?",
			principal: f64(5000), rate: f64(18), payment: f64(150),
		},
		{
			name:      "thousands separators and percent word",
			text:      "I owe $12,500 at 6.5 percent and pay $300 per month",
			principal: f64(12500), rate: f64(6.5), payment: f64(300),
		},
		{
			name:      "term in years converts to months",
			text:      "What's the monthly payment on a $10,000 loan at 12% over 2 years?",
			principal: f64(10000), rate: f64(12), term: i(24),
		},
		{
			name:      "term in months",
			text:      "How much per month to clear a 5000 dollar debt at 18% in 48 months?",
			principal: f64(5000), rate: f64(18), term: i(48),
		},
		{
			name:      "bare numbers",
			text:      "How long to pay off 5000 at 18% paying 150?",
			principal: f64(5000), rate: f64(18), payment: f64(150),
		},
		{
			name:      "missing payment stays unknown",
			text:      "How long will it take to pay off my $8000 loan at 12%?",
			principal: f64(8000), rate: f64(12),
		},
		{
			name:      "zero interest is a value, not a default",
			text:      "I borrowed $1200 at 0% and pay $100 monthly",
			principal: f64(1200), rate: f64(0), payment: f64(100),
		},
		{
			name:    "stored debt with payment only",
			text:    "Make a repayment plan for my debt if I pay $250 a month",
			payment: f64(250),
		},
		{
			name:      "mortgage phrasing",
			text:      "My mortgage balance is $785,900 at 6.875% and I pay $5,500 monthly",
			principal: f64(785900), rate: f64(6.875), payment: f64(5500),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			require.NotNil(t, got)
			assertField(t, "principal", tt.principal, got.Principal)
			assertField(t, "interest rate", tt.rate, got.InterestRate)
			assertField(t, "monthly payment", tt.payment, got.MonthlyPayment)
			if tt.term == nil {
				assert.Nil(t, got.TermMonths, "term months")
			} else {
				require.NotNil(t, got.TermMonths, "term months")
				assert.Equal(t, *tt.term, *got.TermMonths)
			}
		})
	}
}

func assertField(t *testing.T, name string, want, got *float64) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got, name)
		return
	}
	require.NotNil(t, got, name)
	assert.Equal(t, *want, *got, name)
}

// "24 months" 里的 24 不能被当成金额
func TestExtract_TermNumberNotAnAmount(t *testing.T) {
	got := Extract("Can I pay off my debt in 24 months?")
	assert.Nil(t, got.Principal)
	assert.Nil(t, got.MonthlyPayment)
	require.NotNil(t, got.TermMonths)
	assert.Equal(t, 24, *got.TermMonths)
}

// 多个百分数时取离 interest/rate 最近的
func TestExtract_RateDisambiguation(t *testing.T) {
	got := Extract("I put 20% down and the loan has an interest rate of 7%")
	require.NotNil(t, got.InterestRate)
	assert.Equal(t, 7.0, *got.InterestRate)
}
