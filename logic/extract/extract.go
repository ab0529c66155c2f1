package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/angelogustilo19/rag-debt-navigator/types"
)

// 各类别的消歧关键词。匹配按词距离打分，不是语法分析，
// 对正常英文提问够用，换行业要换词表
var (
	principalKeywords = map[string]bool{
		"loan": true, "debt": true, "owe": true, "owes": true, "owed": true,
		"borrowed": true, "balance": true, "mortgage": true, "principal": true,
	}
	paymentKeywords = map[string]bool{
		"pay": true, "pays": true, "paying": true, "payment": true, "payments": true,
		"monthly": true, "month": true,
	}
	rateKeywords = map[string]bool{
		"interest": true, "rate": true, "apr": true,
	}
	termKeywords = map[string]bool{
		"in": true, "over": true, "within": true,
	}
)

// 数字 token：可选货币符号前缀，千分位逗号，小数点，可选 % 后缀
var numberToken = regexp.MustCompile(`^([$€£]?)(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)(%?)$`)

const noKeyword = math.MaxInt32

// candidate 一个数字字面量及其 token 位置
type candidate struct {
	value float64
	pos   int
}

// Extract 从提问文本里抽取财务参数。永不失败，没匹配到的字段保持 nil
//
// 三类独立 matcher（百分数 / 期限 / 金额）先各自产出候选集，
// 再按"最近关键词距离，同距离取先出现"消歧。百分数和期限吃掉的
// 数字不会再被当成金额
func Extract(text string) *types.ExtractedParameters {
	tokens := tokenize(text)
	params := &types.ExtractedParameters{}

	var percents, terms, amounts []candidate

	for i, tok := range tokens {
		_, num, pct, ok := parseNumber(tok)
		if !ok {
			continue
		}

		next := ""
		if i+1 < len(tokens) {
			next = tokens[i+1]
		}

		switch {
		case pct || next == "percent":
			percents = append(percents, candidate{num, i})
		case isTermUnit(next):
			months := num
			if strings.HasPrefix(next, "year") || strings.HasPrefix(next, "yr") {
				months = num * 12
			}
			terms = append(terms, candidate{months, i})
		default:
			// 货币符号、dollars 后缀和裸数字统一当金额候选，归属交给消歧
			amounts = append(amounts, candidate{num, i})
		}
	}

	// 利率：% / percent 写法已经足够明确，没靠近 interest/rate 也收
	if c, ok := pickBest(percents, keywordPositions(tokens, rateKeywords)); ok {
		params.InterestRate = &c.value
	}

	// 期限：数字+months/years 已经明确，in/over/within 只用来排序
	if c, ok := pickBest(terms, keywordPositions(tokens, termKeywords)); ok {
		months := int(math.Round(c.value))
		if months > 0 {
			params.TermMonths = &months
		}
	}

	assignAmounts(params, amounts, tokens)
	return params
}

// assignAmounts 金额有两个去向（本金/月供）。每个角色各自认领离自己
// 关键词最近的金额；同一个金额被两边认领时归更近的一边，另一边在剩余
// 候选里重选；最后没归属的金额按阅读顺序先补本金、再补月供
func assignAmounts(params *types.ExtractedParameters, amounts []candidate, tokens []string) {
	if len(amounts) == 0 {
		return
	}

	principalPos := keywordPositions(tokens, principalKeywords)
	paymentPos := paymentKeywordPositions(tokens)

	pIdx := nearestCandidate(amounts, principalPos, -1)
	mIdx := nearestCandidate(amounts, paymentPos, -1)

	if pIdx != -1 && pIdx == mIdx {
		dp := nearestDistance(amounts[pIdx].pos, principalPos)
		dm := nearestDistance(amounts[mIdx].pos, paymentPos)
		if dp <= dm {
			mIdx = nearestCandidate(amounts, paymentPos, pIdx)
		} else {
			pIdx = nearestCandidate(amounts, principalPos, mIdx)
		}
	}

	if pIdx != -1 {
		params.Principal = &amounts[pIdx].value
	}
	if mIdx != -1 {
		params.MonthlyPayment = &amounts[mIdx].value
	}

	// 剩下的按阅读顺序补缺口
	for i := range amounts {
		if i == pIdx || i == mIdx {
			continue
		}
		if params.Principal == nil {
			params.Principal = &amounts[i].value
		} else if params.MonthlyPayment == nil {
			params.MonthlyPayment = &amounts[i].value
		}
	}
}

// nearestCandidate 返回离关键词集最近的候选下标（exclude 除外），
// 同距离取先出现。没有关键词时返回 -1
func nearestCandidate(cands []candidate, keywordPos []int, exclude int) int {
	best, bestDist := -1, noKeyword
	for i, c := range cands {
		if i == exclude {
			continue
		}
		if d := nearestDistance(c.pos, keywordPos); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// pickBest 距离最小者胜，同距离取先出现；没关键词的候选排在最后但也接受
func pickBest(cands []candidate, keywordPos []int) (candidate, bool) {
	best := candidate{}
	bestDist := -1
	for _, c := range cands {
		d := nearestDistance(c.pos, keywordPos)
		if bestDist == -1 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist != -1
}

func nearestDistance(pos int, keywordPos []int) int {
	d := noKeyword
	for _, k := range keywordPos {
		delta := pos - k
		if delta < 0 {
			delta = -delta
		}
		if delta < d {
			d = delta
		}
	}
	return d
}

func keywordPositions(tokens []string, set map[string]bool) []int {
	var pos []int
	for i, tok := range tokens {
		if set[tok] {
			pos = append(pos, i)
		}
	}
	return pos
}

// paymentKeywordPositions pay/paid 后面紧跟 off 的是"还清"语义，不算月供关键词
func paymentKeywordPositions(tokens []string) []int {
	var pos []int
	for i, tok := range tokens {
		if !paymentKeywords[tok] {
			continue
		}
		if (tok == "pay" || tok == "pays" || tok == "paying") && i+1 < len(tokens) && tokens[i+1] == "off" {
			continue
		}
		pos = append(pos, i)
	}
	return pos
}

func isTermUnit(tok string) bool {
	switch tok {
	case "month", "months", "mo", "mos", "year", "years", "yr", "yrs":
		return true
	}
	return false
}

// parseNumber 解析单个 token，返回（货币前缀, 数值, 是否百分数, 是否数字）
func parseNumber(tok string) (string, float64, bool, bool) {
	m := numberToken.FindStringSubmatch(tok)
	if m == nil {
		return "", 0, false, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err != nil {
		return "", 0, false, false
	}
	return m[1], v, m[3] == "%", true
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		// 去掉两端标点，保留数字里的逗号、小数点和 $ % 符号
		f = strings.TrimRight(f, ".,?!;:)\"'")
		f = strings.TrimLeft(f, "(\"'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
