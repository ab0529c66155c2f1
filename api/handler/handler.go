package handler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/angelogustilo19/rag-debt-navigator/api/response"
	"github.com/angelogustilo19/rag-debt-navigator/logic/amortize"
	"github.com/angelogustilo19/rag-debt-navigator/logic/chat"
	"github.com/angelogustilo19/rag-debt-navigator/logic/compose"
	"github.com/angelogustilo19/rag-debt-navigator/service"
	"github.com/angelogustilo19/rag-debt-navigator/types"
)

type Handler struct {
	accountSvc   *service.AccountService
	querySvc     *service.QueryService
	knowledgeSvc *service.KnowledgeService // 知识库没起来时为 nil
	llm          *chat.Fallback
}

func NewHandler(accountSvc *service.AccountService, querySvc *service.QueryService, knowledgeSvc *service.KnowledgeService, llm *chat.Fallback) *Handler {
	return &Handler{
		accountSvc:   accountSvc,
		querySvc:     querySvc,
		knowledgeSvc: knowledgeSvc,
		llm:          llm,
	}
}

// Register 注册
func (h *Handler) Register(c *gin.Context) {
	var req types.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "username and password are required")
		return
	}

	user, err := h.accountSvc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			response.Fail(c, "Username already exists")
			return
		}
		response.Fail(c, err.Error())
		return
	}
	response.SuccessMsg(c, "User registered successfully", gin.H{"user_id": user.ID})
}

// Login 登录
func (h *Handler) Login(c *gin.Context) {
	var req types.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "username and password are required")
		return
	}

	user, err := h.accountSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, "Invalid credentials")
			return
		}
		response.Fail(c, err.Error())
		return
	}
	response.SuccessMsg(c, "Login successful", gin.H{"user_id": user.ID})
}

// CreateDebt 新建债务
func (h *Handler) CreateDebt(c *gin.Context) {
	var req types.DebtCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "user_id, name and amount are required")
		return
	}

	debt, err := h.accountSvc.CreateDebt(c.Request.Context(), req.UserID, req.Name, req.Amount, req.InterestRate)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Fail(c, "User not found")
			return
		}
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, debt)
}

// ListDebts 列出用户的全部债务
func (h *Handler) ListDebts(c *gin.Context) {
	userID, err := parseUintParam(c, "user_id")
	if err != nil {
		response.Fail(c, "invalid user_id")
		return
	}

	debts, err := h.accountSvc.ListDebts(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, debts)
}

// DeleteUser 删除用户和它的债务
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, err := parseUintParam(c, "user_id")
	if err != nil {
		response.Fail(c, "invalid user_id")
		return
	}

	if err := h.accountSvc.DeleteUser(c.Request.Context(), userID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Fail(c, "User not found")
			return
		}
		response.Fail(c, err.Error())
		return
	}
	response.SuccessMsg(c, "User and associated debts deleted successfully.", nil)
}

// Ask 问答入口
func (h *Handler) Ask(c *gin.Context) {
	var req types.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "question is required")
		return
	}

	fmt.Printf(">>> [DEBUG] 收到提问: %s\n", req.Question)
	answer := h.querySvc.Ask(c.Request.Context(), req.Question, req.UserID)
	response.Success(c, gin.H{"answer": answer})
}

// LLMStatus 探活每个 LLM provider
func (h *Handler) LLMStatus(c *gin.Context) {
	response.Success(c, h.llm.Status(c.Request.Context()))
}

// PayoffTime 直接算还清时间
func (h *Handler) PayoffTime(c *gin.Context) {
	var req types.PayoffTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "debt_amount, interest_rate and monthly_payment are required")
		return
	}
	if req.InterestRate < 0 || req.InterestRate >= 100 {
		response.Fail(c, "Interest rate must be a percentage between 0 and 100.")
		return
	}

	result, err := amortize.MonthsToPayoff(req.DebtAmount, req.InterestRate, req.MonthlyPayment)
	if err != nil {
		if errors.Is(err, amortize.ErrInsufficientPayment) {
			response.Success(c, gin.H{"answer": compose.InsufficientPaymentMessage(req.DebtAmount, req.InterestRate)})
			return
		}
		response.Fail(c, compose.InvalidInputMessage())
		return
	}
	response.Success(c, gin.H{"answer": compose.PayoffTemplate(result)})
}

// MonthlyPayment 直接算月供
func (h *Handler) MonthlyPayment(c *gin.Context) {
	var req types.MonthlyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "debt_amount, interest_rate and months are required")
		return
	}
	if req.Months <= 0 {
		response.Fail(c, "The number of months must be greater than zero.")
		return
	}
	if req.InterestRate < 0 || req.InterestRate >= 100 {
		response.Fail(c, "Interest rate must be a percentage between 0 and 100.")
		return
	}

	payment, err := amortize.RequiredMonthlyPayment(req.DebtAmount, req.InterestRate, req.Months)
	if err != nil {
		response.Fail(c, compose.InvalidInputMessage())
		return
	}
	response.Success(c, gin.H{"answer": compose.MonthlyPaymentTemplate(payment, req.Months)})
}

// RepaymentPlan 按库存债务出结构化还款计划
func (h *Handler) RepaymentPlan(c *gin.Context) {
	var req types.RepaymentPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "debt_id and monthly_payment are required")
		return
	}

	result, debt, err := h.querySvc.RepaymentPlan(c.Request.Context(), req.DebtID, req.MonthlyPayment)
	if err != nil {
		if errors.Is(err, service.ErrDebtNotFound) {
			response.Fail(c, "Debt not found.")
			return
		}
		if errors.Is(err, amortize.ErrInsufficientPayment) {
			response.Fail(c, compose.InsufficientPaymentMessage(debt.Amount, debt.InterestRate))
			return
		}
		if errors.Is(err, amortize.ErrInvalidInput) {
			response.Fail(c, compose.InvalidInputMessage())
			return
		}
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, result)
}

// UploadKnowledge 上传知识文件 (csv / pdf)
func (h *Handler) UploadKnowledge(c *gin.Context) {
	if h.knowledgeSvc == nil {
		response.Fail(c, "knowledge base is not available")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Fail(c, "invalid multipart form")
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		response.Fail(c, "no file received, field name must be 'file'")
		return
	}

	var indexed []gin.H
	var errorFiles []string
	for _, file := range files {
		fmt.Printf(">>> [DEBUG] 开始处理文件: %s, 大小: %d\n", file.Filename, file.Size)
		docID, chunks, err := h.knowledgeSvc.UploadAndProcess(c.Request.Context(), file)
		if err != nil {
			fmt.Printf(">>> [ERROR] 文件 %s 处理失败: %v\n", file.Filename, err)
			errorFiles = append(errorFiles, file.Filename)
			// 单个文件失败不影响其他文件
			continue
		}
		indexed = append(indexed, gin.H{"doc_id": docID, "file": file.Filename, "chunks": chunks})
	}

	if len(indexed) == 0 && len(errorFiles) > 0 {
		response.Fail(c, fmt.Sprintf("all files failed: %v", errorFiles))
		return
	}
	response.Success(c, gin.H{
		"indexed":    indexed,
		"fail_files": errorFiles,
	})
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "healthy",
		"message": "Momentum AI is running",
	})
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
