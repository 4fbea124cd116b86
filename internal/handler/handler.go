package handler

import (
	"errors"
	"strconv"

	"onlinebank/internal/config"
	"onlinebank/internal/infrastructure/lock"
	"onlinebank/internal/service"
	"onlinebank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	userService    *service.UserService
	accountService *service.AccountService
	ledgerService  *service.LedgerService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, locker lock.AccountLocker, cfg *config.Config) *Handler {
	return &Handler{
		userService:    service.NewUserService(db, cfg),
		accountService: service.NewAccountService(db),
		ledgerService:  service.NewLedgerService(db, locker, cfg),
	}
}

// ledgerError 账本错误到 HTTP 的唯一一次映射
// 五种业务错误各自对应稳定的错误码，边界层之外不再做错误翻译
func ledgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		response.NotFound(c, response.CodeAccountNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		response.Error(c, 400, response.CodeInsufficientFunds, err.Error())
	case errors.Is(err, service.ErrInvalidTransfer):
		response.Error(c, 400, response.CodeInvalidTransfer, err.Error())
	case errors.Is(err, service.ErrValidationFailed):
		response.Error(c, 400, response.CodeValidationFailed, err.Error())
	case errors.Is(err, service.ErrConflict):
		response.Error(c, 409, response.CodeConflict, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

// ============================================================
// 用户与认证接口
// ============================================================

// AuthRequest 登录请求
type AuthRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Auth 登录换取令牌
// POST /api/v1/auth
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	token, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, response.CodeUserNotFound, err.Error())
		case errors.Is(err, service.ErrBadPassword):
			response.Error(c, 400, response.CodeBadCredentials, err.Error())
		default:
			response.ServerError(c, err.Error())
		}
		return
	}

	response.Success(c, gin.H{"token": token.Key})
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name"`
	MiddleName string `json:"middle_name"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Country    string `json:"country"`
	City       string `json:"city"`
}

// Register 注册用户
// POST /api/v1/users
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	user, token, err := h.userService.Register(c.Request.Context(), &service.RegisterRequest{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Email:      req.Email,
		Password:   req.Password,
		Country:    req.Country,
		City:       req.City,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailOccupied) {
			response.Error(c, 400, response.CodeEmailDuplicate, err.Error())
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, gin.H{
		"user":  user,
		"token": token.Key,
	})
}

// GetUser 查询用户资料
// GET /api/v1/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, response.CodeUserNotFound, err.Error())
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, user)
}

// DeactivateUser 注销用户（软删除）
// DELETE /api/v1/users/:id
func (h *Handler) DeactivateUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	if userID != currentUserID(c) {
		response.Error(c, 403, response.CodeForbidden, "只能注销本人账号")
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), userID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, response.CodeUserNotFound, err.Error())
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "账号已注销"})
}

// ============================================================
// 账户接口
// ============================================================

// ListAccounts 查询本人全部账户
// GET /api/v1/account
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, accounts)
}

// GetAccount 查询本人单个账户
// GET /api/v1/account/:id
func (h *Handler) GetAccount(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), currentUserID(c), accountID)
	if err != nil {
		ledgerError(c, err)
		return
	}
	response.Success(c, account)
}

// OpenAccount 开立新账户（初始余额为零）
// POST /api/v1/account
func (h *Handler) OpenAccount(c *gin.Context) {
	account, err := h.accountService.OpenAccount(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Created(c, account)
}

// ============================================================
// 流水接口
// ============================================================

// ActionRequest 存取款请求，金额为正存款、为负取款
type ActionRequest struct {
	AccountID int64           `json:"account" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

// CreateAction 存取款
// POST /api/v1/action
func (h *Handler) CreateAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	action, err := h.ledgerService.ApplyAction(c.Request.Context(), currentUserID(c), req.AccountID, req.Amount)
	if err != nil {
		ledgerError(c, err)
		return
	}

	response.Created(c, action)
}

// ListActions 查询本人存取款流水
// GET /api/v1/action
func (h *Handler) ListActions(c *gin.Context) {
	actions, err := h.ledgerService.ListActions(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, actions)
}

// TransactionRequest 商户消费请求
type TransactionRequest struct {
	AccountID int64           `json:"account" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Merchant  string          `json:"merchant" binding:"required"`
}

// CreateTransaction 商户消费
// POST /api/v1/transaction
func (h *Handler) CreateTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	trans, err := h.ledgerService.ApplyTransaction(c.Request.Context(), currentUserID(c), req.AccountID, req.Amount, req.Merchant)
	if err != nil {
		ledgerError(c, err)
		return
	}

	response.Created(c, trans)
}

// ListTransactions 查询本人商户消费流水
// GET /api/v1/transaction
func (h *Handler) ListTransactions(c *gin.Context) {
	transactions, err := h.ledgerService.ListTransactions(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, transactions)
}

// TransferRequest 转账请求
type TransferRequest struct {
	FromAccountID int64           `json:"from_account" binding:"required"`
	ToAccountID   int64           `json:"to_account" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
}

// CreateTransfer 转账
// POST /api/v1/transfer
func (h *Handler) CreateTransfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	transfer, err := h.ledgerService.ApplyTransfer(c.Request.Context(), currentUserID(c), req.FromAccountID, req.ToAccountID, req.Amount)
	if err != nil {
		ledgerError(c, err)
		return
	}

	response.Created(c, transfer)
}

// ListTransfers 查询本人账户转出的转账流水
// GET /api/v1/transfer
func (h *Handler) ListTransfers(c *gin.Context) {
	transfers, err := h.ledgerService.ListTransfers(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, transfers)
}
