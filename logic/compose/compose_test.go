package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelogustilo19/rag-debt-navigator/logic/amortize"
	"github.com/angelogustilo19/rag-debt-navigator/types"
)

// stubCompleter 可编程的 LLM 替身
type stubCompleter struct {
	reply string
	err   error
	seen  string
}

func (s *stubCompleter) Invoke(ctx context.Context, prompt string) (string, error) {
	s.seen = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

var sampleResult = &types.PayoffResult{
	Years: 3, Months: 11, TotalMonths: 47,
	TotalPaid: 6983.60, TotalInterest: 1983.60,
}

func TestPayoff_LLMExplains(t *testing.T) {
	llm := &stubCompleter{reply: "Great news! It takes under four years."}
	c := New(llm)

	got := c.Payoff(context.Background(), "how long?", 5000, 18, sampleResult, nil)
	assert.Equal(t, "Great news! It takes under four years.", got)
	// LLM 收到的是事实清单，不是让它重新算
	assert.Contains(t, llm.seen, "3 years and 11 months")
	assert.Contains(t, llm.seen, "$6,983.60")
	assert.Contains(t, llm.seen, "Do not recompute")
}

func TestPayoff_LLMFailureFallsBackToTemplate(t *testing.T) {
	c := New(&stubCompleter{err: errors.New("timeout")})

	got := c.Payoff(context.Background(), "how long?", 5000, 18, sampleResult, nil)
	assert.Equal(t, PayoffTemplate(sampleResult), got)
	assert.Contains(t, got, "3 years and 11 months")
	assert.Contains(t, got, "$6,983.60")
	assert.Contains(t, got, "$1,983.60")
}

func TestPayoff_EmptyLLMOutputFallsBack(t *testing.T) {
	c := New(&stubCompleter{reply: "   \n"})
	got := c.Payoff(context.Background(), "q", 5000, 18, sampleResult, nil)
	assert.Equal(t, PayoffTemplate(sampleResult), got)
}

func TestPayoff_InsufficientPayment(t *testing.T) {
	llm := &stubCompleter{reply: "should not be called"}
	c := New(llm)

	got := c.Payoff(context.Background(), "q", 5000, 18, nil, amortize.ErrInsufficientPayment)
	assert.Equal(t, "Your payment is too low. You need at least $76.00 to reduce the principal.", got)
	// 错误分支不走 LLM
	assert.Empty(t, llm.seen)
}

func TestPayoff_InvalidInputDistinctFromInsufficient(t *testing.T) {
	c := New(&stubCompleter{})
	insufficient := c.Payoff(context.Background(), "q", 5000, 18, nil, amortize.ErrInsufficientPayment)
	invalid := c.Payoff(context.Background(), "q", 5000, 18, nil, amortize.ErrInvalidInput)
	assert.NotEqual(t, insufficient, invalid)
	assert.Contains(t, invalid, "don't look right")
}

func TestMonthlyPayment(t *testing.T) {
	c := New(&stubCompleter{err: errors.New("down")})
	got := c.MonthlyPayment(context.Background(), "q", 146.87, 48, nil)
	assert.Equal(t,
		"You would need to pay approximately $146.87 per month to pay off the debt in 48 months.",
		got)
}

func TestStoredDebtTemplate(t *testing.T) {
	c := New(&stubCompleter{err: errors.New("down")})
	got := c.StoredDebt(context.Background(), "q", "Car loan", 10000, 12, sampleResult, nil)
	assert.Contains(t, got, `"Car loan"`)
	assert.Contains(t, got, "3 years and 11 months")
}

func TestComposeGeneral(t *testing.T) {
	llm := &stubCompleter{reply: "Paris."}
	c := New(llm)

	got, err := c.ComposeGeneral(context.Background(), "What's the capital of France?", "")
	require.NoError(t, err)
	assert.Equal(t, "Paris.", got)
	assert.Contains(t, llm.seen, "Momentum AI")
	assert.NotContains(t, llm.seen, "Context:")

	// 带知识库上下文
	_, err = c.ComposeGeneral(context.Background(), "Total student loans?", "Financial data from a CSV: ...")
	require.NoError(t, err)
	assert.Contains(t, llm.seen, "Context:")
}

func TestComposeGeneral_Unavailable(t *testing.T) {
	c := New(&stubCompleter{err: errors.New("all providers failed")})
	_, err := c.ComposeGeneral(context.Background(), "q", "")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestMissingParamsMessage(t *testing.T) {
	got := MissingParamsMessage([]string{"monthly payment"})
	assert.Contains(t, got, "monthly payment")

	got = MissingParamsMessage([]string{"loan amount", "interest rate", "monthly payment"})
	assert.Contains(t, got, "loan amount, interest rate, and monthly payment")
}
