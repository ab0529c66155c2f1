package amortize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthsToPayoff(t *testing.T) {
	tests := []struct {
		name          string
		principal     float64
		rate          float64
		payment       float64
		wantMonths    int
		wantPaid      float64
		wantInterest  float64
	}{
		// 信用卡经典例子：$5000 @18% 月还 $150
		{"credit card", 5000, 18, 150, 47, 6983.60, 1983.60},
		// 零利率：12 个月整，零利息
		{"zero rate", 1200, 0, 100, 12, 1200.00, 0.00},
		// 最后一个月只还余额，不收整月
		{"capped final month", 10000, 12, 500, 23, 11213.48, 1213.48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MonthsToPayoff(tt.principal, tt.rate, tt.payment)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMonths, got.TotalMonths)
			assert.Equal(t, tt.wantMonths/12, got.Years)
			assert.Equal(t, tt.wantMonths%12, got.Months)
			assert.Equal(t, tt.wantPaid, got.TotalPaid)
			assert.Equal(t, tt.wantInterest, got.TotalInterest)
		})
	}
}

func TestMonthsToPayoff_InsufficientPayment(t *testing.T) {
	// 月供 <= 本金×月利率 时永远还不完
	// 5000 @18% 的月息正好是 75
	_, err := MonthsToPayoff(5000, 18, 75)
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	_, err = MonthsToPayoff(5000, 18, 50)
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	// 月供为 0 且有欠款：还不完，不是非法输入
	_, err = MonthsToPayoff(5000, 18, 0)
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	// 超过月息但闭式解约 1218 个月，落在 1200 个月上限之外，同样按还不完处理
	_, err = MonthsToPayoff(5000, 18, 75.000001)
	assert.ErrorIs(t, err, ErrInsufficientPayment)
}

func TestMonthsToPayoff_BarelyAboveInterest(t *testing.T) {
	// 月供略超月息 75 就能在上限内摊销完：75.01 要还整整 50 年
	got, err := MonthsToPayoff(5000, 18, 75.01)
	assert.NoError(t, err)
	assert.Equal(t, 600, got.TotalMonths)
	assert.Equal(t, 50, got.Years)
	assert.Equal(t, 0, got.Months)
	assert.Equal(t, 44953.84, got.TotalPaid)
	assert.Equal(t, 39953.84, got.TotalInterest)
}

func TestMonthsToPayoff_InvalidInput(t *testing.T) {
	cases := [][3]float64{
		{-5000, 18, 150},
		{5000, -1, 150},
		{5000, 18, -150},
		{math.NaN(), 18, 150},
		{5000, math.Inf(1), 150},
	}
	for _, c := range cases {
		_, err := MonthsToPayoff(c[0], c[1], c[2])
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestMonthsToPayoff_ZeroPrincipal(t *testing.T) {
	got, err := MonthsToPayoff(0, 18, 150)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalMonths)
	assert.Equal(t, 0.0, got.TotalPaid)
}

func TestRequiredMonthlyPayment(t *testing.T) {
	// 手算对照：5000 @18% 分 48 期
	got, err := RequiredMonthlyPayment(5000, 18.0, 48)
	require.NoError(t, err)
	assert.Equal(t, 146.87, got)

	// 零利率退化为本金均摊
	got, err = RequiredMonthlyPayment(1200, 0, 12)
	require.NoError(t, err)
	assert.Equal(t, 100.00, got)

	got, err = RequiredMonthlyPayment(10000, 12.0, 24)
	require.NoError(t, err)
	assert.Equal(t, 470.73, got)
}

func TestRequiredMonthlyPayment_InvalidInput(t *testing.T) {
	_, err := RequiredMonthlyPayment(5000, 18, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = RequiredMonthlyPayment(5000, 18, -12)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = RequiredMonthlyPayment(-5000, 18, 12)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// 往返性质：按算出的月供去还，月数和原期限差不超过 1（舍入误差）
func TestRoundTrip(t *testing.T) {
	cases := []struct {
		principal float64
		rate      float64
		term      int
	}{
		{5000, 18, 48},
		{10000, 12, 24},
		{1200, 0, 12},
		{785900, 6, 240},
	}
	for _, c := range cases {
		payment, err := RequiredMonthlyPayment(c.principal, c.rate, c.term)
		require.NoError(t, err)

		result, err := MonthsToPayoff(c.principal, c.rate, payment)
		require.NoError(t, err)
		assert.InDelta(t, c.term, result.TotalMonths, 1,
			"principal=%v rate=%v term=%v payment=%v", c.principal, c.rate, c.term, payment)
	}
}

func TestMinimumViablePayment(t *testing.T) {
	// 5000 @18% 月息 75，建议值 76
	assert.Equal(t, 76.0, MinimumViablePayment(5000, 18))
	assert.Equal(t, 1.0, MinimumViablePayment(1000, 0))
}
