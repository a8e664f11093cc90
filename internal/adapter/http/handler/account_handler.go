package handler

import (
	"strconv"
	"time"

	"github.com/oliveigah/banking-prototype/internal/adapter/http/dto"
	"github.com/oliveigah/banking-prototype/internal/adapter/http/middleware"
	"github.com/oliveigah/banking-prototype/internal/core/domain"
	"github.com/oliveigah/banking-prototype/internal/core/ports"
	"github.com/oliveigah/banking-prototype/pkg/apperror"
	"github.com/oliveigah/banking-prototype/pkg/response"

	"github.com/gin-gonic/gin"
)

// dateLayout is the day format accepted by the operations history query.
const dateLayout = "2006-01-02"

// AccountHandler exposes the account engine over HTTP. The account id always
// comes from the bearer token.
type AccountHandler struct {
	engine ports.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(engine ports.AccountService) *AccountHandler {
	return &AccountHandler{engine: engine}
}

// Deposit handles POST /api/v1/accounts/deposit.
func (h *AccountHandler) Deposit(c *gin.Context) {
	accountID, body, ok := h.openBody(c)
	if !ok {
		return
	}
	req, err := dto.ParseDeposit(body)
	if err != nil {
		response.Error(c, err)
		return
	}
	reply, err := h.engine.Deposit(c.Request.Context(), accountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reply)
}

// Withdraw handles POST /api/v1/accounts/withdraw.
func (h *AccountHandler) Withdraw(c *gin.Context) {
	accountID, body, ok := h.openBody(c)
	if !ok {
		return
	}
	req, err := dto.ParseWithdraw(body)
	if err != nil {
		response.Error(c, err)
		return
	}
	reply, err := h.engine.Withdraw(c.Request.Context(), accountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reply)
}

// CardTransaction handles POST /api/v1/accounts/card.
func (h *AccountHandler) CardTransaction(c *gin.Context) {
	accountID, body, ok := h.openBody(c)
	if !ok {
		return
	}
	req, err := dto.ParseCardTransaction(body)
	if err != nil {
		response.Error(c, err)
		return
	}
	reply, err := h.engine.CardTransaction(c.Request.Context(), accountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reply)
}

// Transfer handles POST /api/v1/accounts/transfer.
func (h *AccountHandler) Transfer(c *gin.Context) {
	accountID, body, ok := h.openBody(c)
	if !ok {
		return
	}
	req, err := dto.ParseTransfer(body)
	if err != nil {
		response.Error(c, err)
		return
	}
	reply, err := h.engine.TransferOut(c.Request.Context(), accountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reply)
}

// SplitTransfer handles POST /api/v1/accounts/transfer/split.
func (h *AccountHandler) SplitTransfer(c *gin.Context) {
	accountID, body, ok := h.openBody(c)
	if !ok {
		return
	}
	req, err := dto.ParseSplitTransfer(body)
	if err != nil {
		response.Error(c, err)
		return
	}
	reply, err := h.engine.SplitTransferOut(c.Request.Context(), accountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reply)
}

// Refund handles POST /api/v1/accounts/refund.
func (h *AccountHandler) Refund(c *gin.Context) {
	accountID, body, ok := h.openBody(c)
	if !ok {
		return
	}
	req, err := dto.ParseRefund(body)
	if err != nil {
		response.Error(c, err)
		return
	}
	reply, err := h.engine.Refund(c.Request.Context(), accountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reply)
}

// Exchange handles POST /api/v1/accounts/exchange.
func (h *AccountHandler) Exchange(c *gin.Context) {
	accountID, body, ok := h.openBody(c)
	if !ok {
		return
	}
	req, err := dto.ParseExchange(body)
	if err != nil {
		response.Error(c, err)
		return
	}
	reply, err := h.engine.Exchange(c.Request.Context(), accountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reply)
}

// Balance handles GET /api/v1/accounts/balance?currency=.
func (h *AccountHandler) Balance(c *gin.Context) {
	accountID, ok := h.authenticated(c)
	if !ok {
		return
	}
	currency := c.Query("currency")
	if currency == "" {
		response.Error(c, apperror.Validation("currency query parameter is required"))
		return
	}
	balance, err := h.engine.Balance(c.Request.Context(), accountID, domain.Currency(currency))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"currency": currency, "balance": balance})
}

// Balances handles GET /api/v1/accounts/balances.
func (h *AccountHandler) Balances(c *gin.Context) {
	accountID, ok := h.authenticated(c)
	if !ok {
		return
	}
	balances, err := h.engine.Balances(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"balances": balances})
}

// Operation handles GET /api/v1/accounts/operations/:id.
func (h *AccountHandler) Operation(c *gin.Context) {
	accountID, ok := h.authenticated(c)
	if !ok {
		return
	}
	operationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, apperror.Validation("operation id must be an integer"))
		return
	}
	op, err := h.engine.Operation(c.Request.Context(), accountID, operationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, op)
}

// Operations handles GET /api/v1/accounts/operations?date=&date_fin=.
// With only date, it returns that day's operations; with date_fin, the
// inclusive range between the two days.
func (h *AccountHandler) Operations(c *gin.Context) {
	accountID, ok := h.authenticated(c)
	if !ok {
		return
	}
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		response.Error(c, apperror.Validation("date must be formatted as YYYY-MM-DD"))
		return
	}

	var ops []domain.Operation
	if raw := c.Query("date_fin"); raw != "" {
		fin, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.Error(c, apperror.Validation("date_fin must be formatted as YYYY-MM-DD"))
			return
		}
		ops, err = h.engine.OperationsBetween(c.Request.Context(), accountID, date, fin.Add(24*time.Hour-time.Nanosecond))
		if err != nil {
			response.Error(c, err)
			return
		}
	} else {
		ops, err = h.engine.OperationsOn(c.Request.Context(), accountID, date)
		if err != nil {
			response.Error(c, err)
			return
		}
	}
	response.OK(c, gin.H{"operations": ops})
}

// openBody reads the authenticated account id and the open JSON body.
func (h *AccountHandler) openBody(c *gin.Context) (int64, map[string]any, bool) {
	accountID, ok := h.authenticated(c)
	if !ok {
		return 0, nil, false
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return 0, nil, false
	}
	return accountID, body, true
}

func (h *AccountHandler) authenticated(c *gin.Context) (int64, bool) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return 0, false
	}
	return accountID, true
}
