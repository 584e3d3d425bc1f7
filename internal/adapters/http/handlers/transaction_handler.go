package handlers

import (
	"errors"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/core/domain"
	"nexbank/internal/core/services"
	"nexbank/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TransactionHandler handles money-movement endpoints
type TransactionHandler struct {
	txService *services.TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txService *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{txService: txService}
}

// BiometricResult carries the device-side biometric outcome
type BiometricResult struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DepositRequest represents a cash deposit request body
type DepositRequest struct {
	AccountNo string `json:"account_no"`
	Amount    int64  `json:"amount"`
	Pin       string `json:"pin"`
}

// InitiateRequest represents a withdrawal or transfer initiation body
type InitiateRequest struct {
	AccountNo   string           `json:"account_no"`
	DestAccount string           `json:"dest_account"`
	DestBankRef string           `json:"dest_bank_ref"`
	Amount      int64            `json:"amount"`
	Pin         string           `json:"pin"`
	Biometric   *BiometricResult `json:"biometric"`
}

// ConfirmRequest represents an OTP confirmation body
type ConfirmRequest struct {
	Code string `json:"code"`
}

// Deposit handles direct cash deposits
// @Summary Deposit cash
// @Description PIN-gated cash deposit, applied immediately
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body DepositRequest true "Deposit data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 423 {object} response.Response
// @Router /transactions/deposit [post]
func (h *TransactionHandler) Deposit(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.AccountNo == "" {
		return response.BadRequest(c, "Account number is required")
	}

	newBalance, err := h.txService.Deposit(c.Context(), userID, services.DepositInput{
		AccountNo: req.AccountNo,
		Amount:    req.Amount,
		Pin:       req.Pin,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	return response.Success(c, "Deposit successful", fiber.Map{
		"account_no": req.AccountNo,
		"balance":    newBalance,
	})
}

// InitiateWithdraw starts an OTP-gated cash withdrawal
// @Summary Initiate withdrawal
// @Description Run the PIN and biometric gates and issue an OTP
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body InitiateRequest true "Withdrawal data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 423 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /transactions/withdraw/initiate [post]
func (h *TransactionHandler) InitiateWithdraw(c *fiber.Ctx) error {
	return h.initiate(c, models.TxCashWithdraw)
}

// InitiateTransfer starts an OTP-gated transfer
// @Summary Initiate transfer
// @Description Run the PIN and biometric gates and issue an OTP
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body InitiateRequest true "Transfer data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 423 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /transactions/transfer/initiate [post]
func (h *TransactionHandler) InitiateTransfer(c *fiber.Ctx) error {
	return h.initiate(c, models.TxTransfer)
}

func (h *TransactionHandler) initiate(c *fiber.Ctx, kind string) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req InitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.AccountNo == "" {
		return response.BadRequest(c, "Account number is required")
	}

	input := services.MoneyMovementInput{
		Kind:        kind,
		AccountNo:   req.AccountNo,
		DestAccount: req.DestAccount,
		DestBankRef: req.DestBankRef,
		Amount:      req.Amount,
		Pin:         req.Pin,
	}
	if req.Biometric != nil {
		input.Biometric = &services.ChallengeResult{
			Success: req.Biometric.Success,
			Code:    req.Biometric.Code,
			Message: req.Biometric.Message,
		}
	}

	result, err := h.txService.Initiate(c.Context(), userID, input)
	if err != nil {
		return h.mapError(c, err)
	}

	return response.Success(c, "OTP sent", fiber.Map{
		"transaction_id": result.TransactionID,
		"masked_email":   result.MaskedEmail,
		"expires_at":     result.ExpireAt,
	})
}

// Confirm applies a pending transaction after OTP verification
// @Summary Confirm transaction
// @Description Verify OTP code and apply the balance mutation
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param body body ConfirmRequest true "OTP code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /transactions/{id}/confirm [post]
func (h *TransactionHandler) Confirm(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Code == "" {
		return response.BadRequest(c, "OTP code is required")
	}

	txID := c.Params("id")
	newBalance, err := h.txService.Confirm(c.Context(), userID, txID, req.Code)
	if err != nil {
		return h.mapError(c, err)
	}

	return response.Success(c, "Transaction confirmed", fiber.Map{
		"transaction_id": txID,
		"balance":        newBalance,
	})
}

// Resend regenerates the OTP after the prior code expired
// @Summary Resend OTP
// @Description Issue a fresh OTP once the current one has expired
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /transactions/{id}/resend [post]
func (h *TransactionHandler) Resend(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	txID := c.Params("id")
	result, err := h.txService.Resend(c.Context(), userID, txID)
	if err != nil {
		return h.mapError(c, err)
	}

	return response.Success(c, "OTP resent", fiber.Map{
		"transaction_id": result.TransactionID,
		"masked_email":   result.MaskedEmail,
		"expires_at":     result.ExpireAt,
	})
}

// Cancel abandons a pending transaction
// @Summary Cancel pending transaction
// @Description Abandon a pending transaction before confirmation
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /transactions/{id}/cancel [post]
func (h *TransactionHandler) Cancel(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	txID := c.Params("id")
	if err := h.txService.Cancel(c.Context(), userID, txID); err != nil {
		return h.mapError(c, err)
	}

	return response.Success(c, "Transaction cancelled", nil)
}

// mapError converts domain errors to HTTP responses
func (h *TransactionHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotEligible):
		return response.Forbidden(c, "Profile is not eligible to transact")
	case errors.Is(err, domain.ErrAccountLocked):
		return response.Locked(c, "Account is locked")
	case errors.Is(err, domain.ErrPinNotSet):
		return response.BadRequest(c, "Transaction PIN has not been set")
	case errors.Is(err, domain.ErrInvalidPin):
		return response.Unauthorized(c, "Invalid transaction PIN")
	case errors.Is(err, domain.ErrBiometricRequired):
		return response.UnprocessableEntity(c, "Biometric verification required for this amount")
	case errors.Is(err, domain.ErrBiometricUnavailable):
		return response.UnprocessableEntity(c, "Biometric verification unavailable on this device")
	case errors.Is(err, domain.ErrBiometricFailed):
		return response.Unauthorized(c, "Biometric verification failed")
	case errors.Is(err, domain.ErrOtpMismatch):
		return response.BadRequest(c, "OTP code does not match")
	case errors.Is(err, domain.ErrOtpExpired):
		return response.BadRequest(c, "OTP code has expired, request a new one")
	case errors.Is(err, domain.ErrOtpStillValid):
		return response.Conflict(c, "Current OTP is still valid")
	case errors.Is(err, domain.ErrOtpRateLimited):
		return response.TooManyRequests(c, "Too many OTP requests, please wait")
	case errors.Is(err, domain.ErrInvalidAmount):
		return response.BadRequest(c, "Amount must be a positive integer")
	case errors.Is(err, domain.ErrInsufficientFunds):
		return response.UnprocessableEntity(c, "Insufficient funds")
	case errors.Is(err, domain.ErrSameAccount):
		return response.BadRequest(c, "Source and destination accounts are the same")
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrNotAccountOwner),
		errors.Is(err, domain.ErrTransactionNotFound):
		return response.NotFound(c, "Not found")
	case errors.Is(err, domain.ErrTransactionNotPending):
		return response.Conflict(c, "Transaction is no longer pending")
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, "Invalid input")
	default:
		return response.InternalServerError(c, "Transaction failed")
	}
}
