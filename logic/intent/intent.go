package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/angelogustilo19/rag-debt-navigator/types"
)

// 词表：先出现在规则表里的先判，顺序就是契约
var (
	payoffVocab  = []string{"how long", "when will i", "pay off", "payoff", "paid off"}
	paymentVocab = []string{"how much", "monthly payment", "what payment", "per month"}

	debtIDPattern = regexp.MustCompile(`debt\s*#?\s*(\d+)`)
)

// rule 一条判定规则，按序检查，第一条命中即定调
type rule struct {
	name   string
	match  func(text string, p *types.ExtractedParameters) bool
	intent types.QueryIntent
}

// 规则顺序是显式契约：
// 1-3 完整参数 + 对应词汇（spec 的严格路径）
// 4-6 有财务词汇且至少提取到一个参数时提前定调，缺的字段交给下游报
//     MissingParameters，保证 GeneralKnowledge 永远不会产生缺参错误
// 7   其余全部走通用问答
var rules = []rule{
	{
		name: "stored debt with payment",
		match: func(text string, p *types.ExtractedParameters) bool {
			return hasStoredDebtRef(text) && p.HasMonthlyPayment()
		},
		intent: types.IntentStoredDebtPlan,
	},
	{
		name: "payoff time, fully specified",
		match: func(text string, p *types.ExtractedParameters) bool {
			return p.HasPrincipal() && p.HasInterestRate() && p.HasMonthlyPayment() &&
				containsAny(text, payoffVocab)
		},
		intent: types.IntentPayoffTime,
	},
	{
		name: "monthly payment, fully specified",
		match: func(text string, p *types.ExtractedParameters) bool {
			return p.HasPrincipal() && p.HasInterestRate() && p.HasTermMonths() &&
				containsAny(text, paymentVocab)
		},
		intent: types.IntentMonthlyPayment,
	},
	{
		name: "payoff time, partial parameters",
		match: func(text string, p *types.ExtractedParameters) bool {
			return containsAny(text, payoffVocab) && p.HasAny()
		},
		intent: types.IntentPayoffTime,
	},
	{
		name: "monthly payment, partial parameters",
		match: func(text string, p *types.ExtractedParameters) bool {
			return containsAny(text, paymentVocab) && p.HasAny()
		},
		intent: types.IntentMonthlyPayment,
	},
	{
		name: "stored debt without payment",
		match: func(text string, p *types.ExtractedParameters) bool {
			return hasStoredDebtRef(text)
		},
		intent: types.IntentStoredDebtPlan,
	},
}

// Classify 判定提问意图，一次判定不再回头
func Classify(text string, params *types.ExtractedParameters) types.QueryIntent {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.match(lower, params) {
			return r.intent
		}
	}
	return types.IntentGeneral
}

// DebtRef 检测文本里的库存债务引用，"debt #3" 这类带编号的一并返回
func DebtRef(text string) (id uint, ok bool) {
	lower := strings.ToLower(text)
	if m := debtIDPattern.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseUint(m[1], 10, 32); err == nil {
			return uint(v), true
		}
	}
	if strings.Contains(lower, "my debt") {
		return 0, true
	}
	return 0, false
}

// MissingFields 返回该意图缺失的必填字段名（用户可读），空表示齐了
func MissingFields(it types.QueryIntent, p *types.ExtractedParameters) []string {
	var missing []string
	switch it {
	case types.IntentPayoffTime:
		if !p.HasPrincipal() {
			missing = append(missing, "loan amount")
		}
		if !p.HasInterestRate() {
			missing = append(missing, "interest rate")
		}
		if !p.HasMonthlyPayment() {
			missing = append(missing, "monthly payment")
		}
	case types.IntentMonthlyPayment:
		if !p.HasPrincipal() {
			missing = append(missing, "loan amount")
		}
		if !p.HasInterestRate() {
			missing = append(missing, "interest rate")
		}
		if !p.HasTermMonths() {
			missing = append(missing, "repayment term")
		}
	case types.IntentStoredDebtPlan:
		if !p.HasMonthlyPayment() {
			missing = append(missing, "monthly payment")
		}
	}
	return missing
}

func hasStoredDebtRef(lower string) bool {
	_, ok := DebtRef(lower)
	return ok
}

func containsAny(lower string, vocab []string) bool {
	for _, v := range vocab {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}
