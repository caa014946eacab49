package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"thankatech/pkg/logger"
	"thankatech/services/ledger/internal/entity"
	"thankatech/services/ledger/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type LedgerHandler struct {
	ledgerUseCase usecase.LedgerUseCase
	policy        entity.ConversionPolicy
	logger        *logger.Logger
}

func NewLedgerHandler(ledgerUseCase usecase.LedgerUseCase, policy entity.ConversionPolicy, logger *logger.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledgerUseCase: ledgerUseCase,
		policy:        policy,
		logger:        logger,
	}
}

// GetBalance godoc
// @Summary      Get balance
// @Description  Get points and TOA token balances for the authenticated user
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  entity.Account
// @Router       /balance [get]
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	userID := c.GetString("user_id")

	account, err := h.ledgerUseCase.GetBalance(userID)
	if err != nil {
		h.logger.Error("Failed to get balance: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again"})
		return
	}

	c.JSON(http.StatusOK, account)
}

type ThankYouRequest struct {
	TechnicianID string `json:"technician_id" binding:"required"`
	Message      string `json:"message"`
}

// SendThankYou godoc
// @Summary      Send a thank-you
// @Description  Send a free thank-you message to a technician
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ThankYouRequest true "Thank-you target"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /thanks [post]
func (h *LedgerHandler) SendThankYou(c *gin.Context) {
	userID := c.GetString("user_id")

	var req ThankYouRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledgerUseCase.SendThankYou(userID, req.TechnicianID, req.Message)
	if err != nil {
		h.respondError(c, err, "Failed to send thank-you")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Thank-you sent",
		"balance":     result.Sender,
		"transaction": result.Transaction,
	})
}

type SendTokensRequest struct {
	TechnicianID string `json:"technician_id" binding:"required"`
	Tokens       int    `json:"tokens" binding:"required,min=1"`
	DollarValue  string `json:"dollar_value"`
}

// SendTokens godoc
// @Summary      Send TOA tokens
// @Description  Send Tokens of Appreciation to a technician; any attached dollar value is split 85/15 between technician and platform
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SendTokensRequest true "Token send"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /toa/send [post]
func (h *LedgerHandler) SendTokens(c *gin.Context) {
	userID := c.GetString("user_id")

	var req SendTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dollarValue := decimal.Zero
	if req.DollarValue != "" {
		var err error
		dollarValue, err = decimal.NewFromString(req.DollarValue)
		if err != nil || dollarValue.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dollar value"})
			return
		}
	}

	result, err := h.ledgerUseCase.SendTokens(userID, req.TechnicianID, req.Tokens, dollarValue)
	if err != nil {
		h.respondError(c, err, "Failed to send tokens")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Tokens sent",
		"balance":     result.Sender,
		"transaction": result.Transaction,
	})
}

type PurchaseRequest struct {
	Tokens      int    `json:"tokens" binding:"required,min=1"`
	DollarValue string `json:"dollar_value" binding:"required"`
	PaymentRef  string `json:"payment_ref" binding:"required"`
}

// RecordPurchase godoc
// @Summary      Record a token purchase
// @Description  Record a payment-processor-confirmed TOA purchase
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PurchaseRequest true "Confirmed purchase"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /toa/purchase [post]
func (h *LedgerHandler) RecordPurchase(c *gin.Context) {
	userID := c.GetString("user_id")

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dollarValue, err := decimal.NewFromString(req.DollarValue)
	if err != nil || !dollarValue.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dollar value"})
		return
	}

	result, err := h.ledgerUseCase.RecordPurchase(userID, req.Tokens, dollarValue, req.PaymentRef)
	if err != nil {
		h.respondError(c, err, "Failed to record purchase")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Purchase recorded",
		"balance":     result.Sender,
		"transaction": result.Transaction,
	})
}

type ConvertRequest struct {
	Points         int    `json:"points" binding:"required,min=1"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ConvertPoints godoc
// @Summary      Convert points to TOA
// @Description  Convert ThankATech points to TOA tokens at the fixed rate, subject to the daily conversion limit
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ConvertRequest true "Conversion"
// @Success      200  {object}  usecase.ConversionResult
// @Failure      400  {object}  map[string]string
// @Router       /points/convert [post]
func (h *LedgerHandler) ConvertPoints(c *gin.Context) {
	userID := c.GetString("user_id")

	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledgerUseCase.ConvertPoints(userID, req.Points, req.IdempotencyKey)
	if err != nil {
		h.respondError(c, err, "Failed to convert points")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactions godoc
// @Summary      Get transactions
// @Description  Get the appreciation ledger history for the authenticated user
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of transactions"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /transactions [get]
func (h *LedgerHandler) GetTransactions(c *gin.Context) {
	userID := c.GetString("user_id")
	limit := 50
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	transactions, err := h.ledgerUseCase.GetTransactions(userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to get transactions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "count": len(transactions)})
}

// respondError maps validation rejections to specific user-facing reasons
// and everything else to a generic retry prompt.
func (h *LedgerHandler) respondError(c *gin.Context, err error, logPrefix string) {
	switch {
	case errors.Is(err, entity.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
	case errors.Is(err, entity.ErrBelowMinimum):
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Minimum conversion is %d points", h.policy.Minimum)})
	case errors.Is(err, entity.ErrNotDivisible):
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Points must be a multiple of %d", h.policy.Rate)})
	case errors.Is(err, entity.ErrInsufficientPoints):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough points"})
	case errors.Is(err, entity.ErrInsufficientTokens):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough TOA tokens"})
	case errors.Is(err, entity.ErrDailyLimitExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Maximum %d conversions per day reached", h.policy.DailyLimit)})
	case errors.Is(err, entity.ErrThanksLimitExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Maximum %d thank-yous per day reached", h.policy.ThanksDailyLimit)})
	case errors.Is(err, entity.ErrSelfAppreciation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot send appreciation to yourself"})
	case errors.Is(err, entity.ErrInvalidTransaction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("%s: %v", logPrefix, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again"})
	}
}
