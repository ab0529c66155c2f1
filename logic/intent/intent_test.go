package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelogustilo19/rag-debt-navigator/logic/extract"
	"github.com/angelogustilo19/rag-debt-navigator/types"
)

// 规则顺序是契约，语料覆盖每条分支
func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.QueryIntent
	}{
		{
			name: "fully specified payoff question",
			text: "How long to pay off a $5000 loan at 18% interest paying $150 a month?",
			want: types.IntentPayoffTime,
		},
		{
			name: "fully specified monthly payment question",
			text: "What's the monthly payment on a $10,000 loan at 12% over 2 years?",
			want: types.IntentMonthlyPayment,
		},
		{
			name: "general knowledge",
			text: "What's the capital of France?",
			want: types.IntentGeneral,
		},
		{
			name: "stored debt reference with payment",
			text: "Make a repayment plan for my debt if I pay $250 a month",
			want: types.IntentStoredDebtPlan,
		},
		{
			name: "stored debt reference by id, no payment",
			text: "Show me a plan for debt #3",
			want: types.IntentStoredDebtPlan,
		},
		{
			name: "payoff vocabulary with partial parameters commits",
			text: "How long will it take to pay off my $8000 loan at 12%?",
			want: types.IntentPayoffTime,
		},
		{
			name: "payment vocabulary with partial parameters commits",
			text: "How much per month for a $9000 loan?",
			want: types.IntentMonthlyPayment,
		},
		{
			name: "financial vocabulary with zero parameters stays general",
			text: "How do I pay off debt faster?",
			want: types.IntentGeneral,
		},
		{
			name: "advice question without numbers stays general",
			text: "Is the snowball method a good idea?",
			want: types.IntentGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := extract.Extract(tt.text)
			assert.Equal(t, tt.want, Classify(tt.text, params), "params=%+v", params)
		})
	}
}

func TestDebtRef(t *testing.T) {
	id, ok := DebtRef("Show me a plan for debt #3")
	assert.True(t, ok)
	assert.Equal(t, uint(3), id)

	id, ok = DebtRef("make a plan for my debt with $200 a month")
	assert.True(t, ok)
	assert.Zero(t, id)

	_, ok = DebtRef("how long for a $5000 loan?")
	assert.False(t, ok)
}

func TestMissingFields(t *testing.T) {
	// 缺月供的还清类提问必须点名 monthly payment
	params := extract.Extract("How long will it take to pay off my $8000 loan at 12%?")
	missing := MissingFields(types.IntentPayoffTime, params)
	assert.Equal(t, []string{"monthly payment"}, missing)

	// 全缺
	missing = MissingFields(types.IntentPayoffTime, &types.ExtractedParameters{})
	assert.Equal(t, []string{"loan amount", "interest rate", "monthly payment"}, missing)

	// 月供类缺期限
	params = extract.Extract("What monthly payment clears a $9000 balance at 10%?")
	missing = MissingFields(types.IntentMonthlyPayment, params)
	assert.Equal(t, []string{"repayment term"}, missing)

	// 齐了
	params = extract.Extract("How long to pay off a $5000 loan at 18% paying $150 a month?")
	assert.Empty(t, MissingFields(types.IntentPayoffTime, params))
}

func TestClassify_GeneralNeverMissingParams(t *testing.T) {
	// GeneralKnowledge 分支不可能出现缺参错误
	texts := []string{
		"What's the capital of France?",
		"Tell me about student loans",
		"How do interest rates work?",
	}
	for _, text := range texts {
		params := extract.Extract(text)
		it := Classify(text, params)
		if it == types.IntentGeneral {
			assert.Empty(t, MissingFields(it, params))
		}
	}
}
