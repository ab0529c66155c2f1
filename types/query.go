package types

// QueryIntent 一次提问只判定一次，判定后不再回头
type QueryIntent int

const (
	IntentGeneral        QueryIntent = iota // 通用问答，走 LLM
	IntentPayoffTime                        // 多久还清
	IntentMonthlyPayment                    // 每月需还多少
	IntentStoredDebtPlan                    // 针对库里已存的债务做还款计划
)

func (i QueryIntent) String() string {
	switch i {
	case IntentPayoffTime:
		return "payoff_time"
	case IntentMonthlyPayment:
		return "monthly_payment"
	case IntentStoredDebtPlan:
		return "stored_debt_plan"
	default:
		return "general"
	}
}

// ExtractedParameters 从提问文本里抽出的财务参数
// nil 表示"没提取到"，0 是合法值（比如 0 利率），不能用 0 兜底
type ExtractedParameters struct {
	Principal      *float64 // 本金
	InterestRate   *float64 // 年利率百分数，18.0 表示 18%
	MonthlyPayment *float64 // 月供
	TermMonths     *int     // 期限（月）
}

func (p *ExtractedParameters) HasPrincipal() bool      { return p != nil && p.Principal != nil }
func (p *ExtractedParameters) HasInterestRate() bool   { return p != nil && p.InterestRate != nil }
func (p *ExtractedParameters) HasMonthlyPayment() bool { return p != nil && p.MonthlyPayment != nil }
func (p *ExtractedParameters) HasTermMonths() bool     { return p != nil && p.TermMonths != nil }

// HasAny 至少提取到一个参数
func (p *ExtractedParameters) HasAny() bool {
	return p.HasPrincipal() || p.HasInterestRate() || p.HasMonthlyPayment() || p.HasTermMonths()
}

// PayoffResult 摊销计算结果，金额统一保留 2 位小数（四舍五入）
type PayoffResult struct {
	Years         int     `json:"years"`
	Months        int     `json:"months"` // 去掉整年后的零头月数
	TotalMonths   int     `json:"total_months"`
	TotalPaid     float64 `json:"total_paid"`
	TotalInterest float64 `json:"total_interest"`
}

// --- 请求结构体 ---

type AskRequest struct {
	Question string `json:"question" binding:"required"`
	UserID   uint   `json:"user_id"`
}

type RepaymentPlanRequest struct {
	DebtID         uint    `json:"debt_id" binding:"required"`
	MonthlyPayment float64 `json:"monthly_payment"`
}

// PayoffTimeRequest interest_rate / monthly_payment 允许为 0，由计算器给出业务提示
type PayoffTimeRequest struct {
	DebtAmount     float64 `json:"debt_amount" binding:"required"`
	InterestRate   float64 `json:"interest_rate"`
	MonthlyPayment float64 `json:"monthly_payment"`
}

type MonthlyPaymentRequest struct {
	DebtAmount   float64 `json:"debt_amount" binding:"required"`
	InterestRate float64 `json:"interest_rate"`
	Months       int     `json:"months"`
}
