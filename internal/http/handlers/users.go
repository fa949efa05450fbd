package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type fundRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod" binding:"omitempty,oneof=card bank_transfer ussd"`
}

// GET /api/user/profile
func (h Handler) Profile(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	p, err := h.Wallet.Profile(c.Request.Context(), uid)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", p)
}

// POST /api/user/fund
func (h Handler) FundAccount(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req fundRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.Wallet.FundAccount(c.Request.Context(), uid, req.Amount, req.PaymentMethod)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondData(c, http.StatusOK, "account funded successfully", res)
}

// GET /api/transactions
func (h Handler) ListTransactions(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	list, err := h.Wallet.ListTransactions(c.Request.Context(), uid, c.Query("type"), parsePagination(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", list)
}
