package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelogustilo19/rag-debt-navigator/logic/amortize"
	"github.com/angelogustilo19/rag-debt-navigator/logic/compose"
	"github.com/angelogustilo19/rag-debt-navigator/logic/extract"
	"github.com/angelogustilo19/rag-debt-navigator/logic/intent"
	"github.com/angelogustilo19/rag-debt-navigator/storage/postgres"
	"github.com/angelogustilo19/rag-debt-navigator/storage/redis"
	"github.com/angelogustilo19/rag-debt-navigator/types"
)

// QueryService /chat/ask 的编排层：参数提取 -> 意图分类 -> 分发
type QueryService struct {
	composer  *compose.Composer
	debts     *postgres.DebtRepo
	retrieval *RetrievalService  // 可为 nil，通用问答降级为无上下文
	cache     *redis.AnswerCache // 可为 nil
}

func NewQueryService(composer *compose.Composer, debts *postgres.DebtRepo, retrieval *RetrievalService, cache *redis.AnswerCache) *QueryService {
	return &QueryService{
		composer:  composer,
		debts:     debts,
		retrieval: retrieval,
		cache:     cache,
	}
}

// Ask 处理一条用户提问，永远返回用户可读的回答
func (s *QueryService) Ask(ctx context.Context, question string, userID uint) string {
	askStart := time.Now()

	params := extract.Extract(question)
	it := intent.Classify(question, params)
	fmt.Printf(">>> [Intent] %s | params: %+v\n", it, params)

	var answer string
	switch it {
	case types.IntentPayoffTime:
		answer = s.payoffTime(ctx, question, params)
	case types.IntentMonthlyPayment:
		answer = s.monthlyPayment(ctx, question, params)
	case types.IntentStoredDebtPlan:
		answer = s.storedDebtPlan(ctx, question, params, userID)
	default:
		answer = s.general(ctx, question)
	}

	fmt.Printf(">>> [性能] 单次问答耗时: %v\n", time.Since(askStart))
	return answer
}

func (s *QueryService) payoffTime(ctx context.Context, question string, params *types.ExtractedParameters) string {
	if missing := intent.MissingFields(types.IntentPayoffTime, params); len(missing) > 0 {
		return compose.MissingParamsMessage(missing)
	}
	result, err := amortize.MonthsToPayoff(*params.Principal, *params.InterestRate, *params.MonthlyPayment)
	return s.composer.Payoff(ctx, question, *params.Principal, *params.InterestRate, result, err)
}

func (s *QueryService) monthlyPayment(ctx context.Context, question string, params *types.ExtractedParameters) string {
	if missing := intent.MissingFields(types.IntentMonthlyPayment, params); len(missing) > 0 {
		return compose.MissingParamsMessage(missing)
	}
	payment, err := amortize.RequiredMonthlyPayment(*params.Principal, *params.InterestRate, *params.TermMonths)
	return s.composer.MonthlyPayment(ctx, question, payment, *params.TermMonths, err)
}

// storedDebtPlan 库存债务提供本金和利率，问题本身提供月供
func (s *QueryService) storedDebtPlan(ctx context.Context, question string, params *types.ExtractedParameters, userID uint) string {
	if !params.HasMonthlyPayment() {
		return compose.MissingParamsMessage([]string{"monthly payment"})
	}

	debt, clarifier := s.resolveDebt(ctx, question, userID)
	if debt == nil {
		return clarifier
	}

	result, err := amortize.MonthsToPayoff(debt.Amount, debt.InterestRate, *params.MonthlyPayment)
	return s.composer.StoredDebt(ctx, question, debt.Name, debt.Amount, debt.InterestRate, result, err)
}

// resolveDebt 债务定位：显式 "debt #N" 优先，否则用户唯一的一条债务
// 定位失败时第二个返回值是给用户的澄清话术
func (s *QueryService) resolveDebt(ctx context.Context, question string, userID uint) (*postgres.Debt, string) {
	if id, ok := intent.DebtRef(question); ok {
		debt, err := s.debts.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Sprintf("I could not find debt #%d. Please check the debt id and try again.", id)
			}
			return nil, compose.UnavailableMessage()
		}
		return debt, ""
	}

	if userID == 0 {
		return nil, "Please tell me which debt you mean, for example \"debt #3\"."
	}

	debts, err := s.debts.ListByUser(ctx, userID)
	if err != nil {
		return nil, compose.UnavailableMessage()
	}
	switch len(debts) {
	case 0:
		return nil, "You have no stored debts yet. Add one first, or include the loan amount and interest rate in your question."
	case 1:
		return &debts[0], ""
	default:
		names := make([]string, len(debts))
		for i, d := range debts {
			names[i] = fmt.Sprintf("%q (debt #%d)", d.Name, d.ID)
		}
		return nil, fmt.Sprintf("You have several debts: %s. Please tell me which one you mean, for example \"debt #%d\".",
			strings.Join(names, ", "), debts[0].ID)
	}
}

// general 通用问答：缓存 -> 混合检索 -> LLM 链，成功才回填缓存
func (s *QueryService) general(ctx context.Context, question string) string {
	if s.cache != nil {
		if answer, hit := s.cache.Get(ctx, question); hit {
			fmt.Println(">>> [Cache] 命中缓存")
			return answer
		}
	}

	knowledgeContext := ""
	if s.retrieval != nil {
		knowledgeContext = s.retrieval.Context(ctx, question)
	}

	answer, err := s.composer.ComposeGeneral(ctx, question, knowledgeContext)
	if err != nil {
		fmt.Printf(">>> [LLM] 通用问答失败: %v\n", err)
		return compose.UnavailableMessage()
	}

	if s.cache != nil {
		s.cache.Set(ctx, question, answer)
	}
	return answer
}

// RepaymentPlan 给结构化接口用：按库存债务算还款计划
// 同时返回债务本身，错误话术需要它的本金和利率
func (s *QueryService) RepaymentPlan(ctx context.Context, debtID uint, monthlyPayment float64) (*types.PayoffResult, *postgres.Debt, error) {
	debt, err := s.debts.GetByID(ctx, debtID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDebtNotFound
		}
		return nil, nil, err
	}
	result, err := amortize.MonthsToPayoff(debt.Amount, debt.InterestRate, monthlyPayment)
	return result, debt, err
}
