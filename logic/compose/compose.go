package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/angelogustilo19/rag-debt-navigator/logic/amortize"
	"github.com/angelogustilo19/rag-debt-navigator/types"
	"github.com/angelogustilo19/rag-debt-navigator/vars"
)

// ErrServiceUnavailable 通用问答路径上 LLM 全挂时返回，这条路没有确定性兜底
var ErrServiceUnavailable = errors.New("compose: llm service unavailable")

// Completer LLM 调用链的最小接口，方便测试替身
type Completer interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Composer 把计算结果拼成面向用户的回答
// 财务路径是两段式：确定性模板先落地，LLM 只负责把模板里的数字讲得好听，
// LLM 挂了就原样返回模板，用户永远能拿到正确的数字
type Composer struct {
	llm Completer
}

func New(llm Completer) *Composer {
	return &Composer{llm: llm}
}

// Payoff 还清时间路径的出口，每个分支都以用户可读字符串收尾
func (c *Composer) Payoff(ctx context.Context, question string, principal, ratePercent float64,
	result *types.PayoffResult, calcErr error) string {
	if msg, done := calcErrorMessage(principal, ratePercent, calcErr); done {
		return msg
	}
	return c.enrich(ctx, question, PayoffTemplate(result), payoffFacts(result))
}

// MonthlyPayment 月供金额路径的出口
func (c *Composer) MonthlyPayment(ctx context.Context, question string, payment float64,
	months int, calcErr error) string {
	if calcErr != nil {
		return InvalidInputMessage()
	}
	facts := fmt.Sprintf("- Required Monthly Payment: $%s\n- Repayment Term: %d months",
		money(payment), months)
	return c.enrich(ctx, question, MonthlyPaymentTemplate(payment, months), facts)
}

// StoredDebt 库存债务还款计划的出口
func (c *Composer) StoredDebt(ctx context.Context, question, debtName string,
	principal, ratePercent float64, result *types.PayoffResult, calcErr error) string {
	if msg, done := calcErrorMessage(principal, ratePercent, calcErr); done {
		return msg
	}
	return c.enrich(ctx, question, StoredDebtTemplate(debtName, result), payoffFacts(result))
}

// ComposeGeneral 通用问答：可选的知识库上下文 + 原问题交给调用链
// 返回 error 供上层决定要不要缓存
func (c *Composer) ComposeGeneral(ctx context.Context, question, knowledgeContext string) (string, error) {
	contextBlock := ""
	if strings.TrimSpace(knowledgeContext) != "" {
		contextBlock = "\nContext:\n" + knowledgeContext + "\n"
	}
	prompt := strings.NewReplacer(
		"{{.Context}}", contextBlock,
		"{{.Question}}", question,
	).Replace(vars.GENERALPROMPT)

	callCtx, cancel := context.WithTimeout(ctx, vars.LLMTimeout)
	defer cancel()

	out, err := c.llm.Invoke(callCtx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return out, nil
}

// enrich 第二段：让 LLM 解释数字，禁止重算
func (c *Composer) enrich(ctx context.Context, question, template, facts string) string {
	prompt := strings.NewReplacer(
		"{{.Question}}", question,
		"{{.Facts}}", facts,
	).Replace(vars.EXPLAINPROMPT)

	callCtx, cancel := context.WithTimeout(ctx, vars.LLMTimeout)
	defer cancel()

	out, err := c.llm.Invoke(callCtx, prompt)
	return merge(template, out, err)
}

// merge 失败处理是数据变换，不是散落在调用点的异常分支
func merge(template, llmOut string, llmErr error) string {
	if llmErr != nil || strings.TrimSpace(llmOut) == "" {
		fmt.Printf(">>> [Compose] LLM 解释层不可用，降级为模板: %v\n", llmErr)
		return template
	}
	return llmOut
}

// calcErrorMessage 计算错误翻译成用户话术
// 月供太低和非法输入是两种结果：前者是贷款设计问题，要给出最低可行月供
func calcErrorMessage(principal, ratePercent float64, calcErr error) (string, bool) {
	switch {
	case calcErr == nil:
		return "", false
	case errors.Is(calcErr, amortize.ErrInsufficientPayment):
		return InsufficientPaymentMessage(principal, ratePercent), true
	default:
		return InvalidInputMessage(), true
	}
}

// --- 确定性模板，计算器端点和 /ask 共用同一套措辞 ---

// PayoffTemplate 还清时间的标准回答
func PayoffTemplate(result *types.PayoffResult) string {
	return fmt.Sprintf(
		"It will take approximately %d years and %d months to pay off this debt. "+
			"You will pay a total of $%s, which includes $%s in interest.",
		result.Years, result.Months, money(result.TotalPaid), money(result.TotalInterest))
}

// MonthlyPaymentTemplate 月供金额的标准回答
func MonthlyPaymentTemplate(payment float64, months int) string {
	return fmt.Sprintf(
		"You would need to pay approximately $%s per month to pay off the debt in %d months.",
		money(payment), months)
}

// StoredDebtTemplate 针对库存债务的还款计划回答
func StoredDebtTemplate(debtName string, result *types.PayoffResult) string {
	return fmt.Sprintf(
		"For your debt %q: it will take approximately %d years and %d months to pay off. "+
			"You will pay a total of $%s, which includes $%s in interest.",
		debtName, result.Years, result.Months, money(result.TotalPaid), money(result.TotalInterest))
}

// MissingParamsMessage 点名缺哪些字段，绝不猜数
func MissingParamsMessage(missing []string) string {
	return fmt.Sprintf(
		"I couldn't find the %s in your question. "+
			"Please ask again with that information included, for example: "+
			"\"How long to pay off a $5,000 loan at 18%% paying $150 a month?\"",
		joinFields(missing))
}

// InsufficientPaymentMessage 给出刚好能减本金的最低月供
func InsufficientPaymentMessage(principal, annualRatePercent float64) string {
	suggested := amortize.MinimumViablePayment(principal, annualRatePercent)
	return fmt.Sprintf(
		"Your payment is too low. You need at least $%s to reduce the principal.",
		money(suggested))
}

func InvalidInputMessage() string {
	return "Those numbers don't look right. Amounts, rates and terms all need to be " +
		"non-negative. Please check the values and try again."
}

// UnavailableMessage 通用问答路径 LLM 全挂时的回复
func UnavailableMessage() string {
	return "The assistant is temporarily unavailable. Please try again in a moment."
}

func payoffFacts(result *types.PayoffResult) string {
	return fmt.Sprintf(
		"- Time to Pay Off: %d years and %d months\n"+
			"- Total Amount Paid: $%s\n"+
			"- Total Interest Paid: $%s",
		result.Years, result.Months, money(result.TotalPaid), money(result.TotalInterest))
}

// money 千分位 + 固定两位小数
func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func joinFields(fields []string) string {
	switch len(fields) {
	case 0:
		return "required values"
	case 1:
		return fields[0]
	case 2:
		return fields[0] + " and " + fields[1]
	default:
		return strings.Join(fields[:len(fields)-1], ", ") + ", and " + fields[len(fields)-1]
	}
}
