package handlers

import (
	"errors"

	"nexbank/internal/core/domain"
	"nexbank/internal/core/services"
	"nexbank/internal/pkg/pagination"
	"nexbank/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AccountHandler handles customer-facing account endpoints
type AccountHandler struct {
	profileService *services.ProfileService
	pinService     *services.PinService
	ledgerService  *services.LedgerService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(
	profileService *services.ProfileService,
	pinService *services.PinService,
	ledgerService *services.LedgerService,
) *AccountHandler {
	return &AccountHandler{
		profileService: profileService,
		pinService:     pinService,
		ledgerService:  ledgerService,
	}
}

// SetPinRequest represents the PIN setup request body
type SetPinRequest struct {
	Pin string `json:"pin"`
}

// SetPin sets the transaction PIN for the current user
// @Summary Set transaction PIN
// @Description Set or replace the six-digit transaction PIN
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SetPinRequest true "PIN"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/pin [post]
func (h *AccountHandler) SetPin(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req SetPinRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.pinService.SetPin(c.Context(), userID, req.Pin); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "PIN must be exactly 6 digits")
		case errors.Is(err, domain.ErrAccountLocked):
			return response.Locked(c, "Account is locked")
		default:
			return response.InternalServerError(c, "Failed to set PIN")
		}
	}

	return response.Success(c, "PIN set successfully", nil)
}

// ListAccounts lists the current user's accounts
// @Summary List own accounts
// @Description List all accounts owned by the authenticated user
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	accounts, err := h.profileService.Accounts(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list accounts")
	}

	return response.Success(c, "Accounts retrieved successfully", fiber.Map{
		"accounts": accounts,
	})
}

// GetAccount returns one account owned by the current user
// @Summary Get account detail
// @Description Get one account with its current balance (strict ownership)
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountNo path string true "Account number"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /accounts/{accountNo} [get]
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	accountNo := c.Params("accountNo")
	account, err := h.profileService.Account(c.Context(), userID, accountNo)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			return response.NotFound(c, "Account not found")
		case errors.Is(err, domain.ErrNotAccountOwner):
			// Do not leak the existence of other customers' accounts
			return response.NotFound(c, "Account not found")
		default:
			return response.InternalServerError(c, "Failed to get account")
		}
	}

	return response.Success(c, "Account retrieved successfully", fiber.Map{
		"account": account,
	})
}

// GetTransactions lists ledger history for an owned account
// @Summary Account transaction history
// @Description Paginated append-only history for one owned account
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountNo path string true "Account number"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /accounts/{accountNo}/transactions [get]
func (h *AccountHandler) GetTransactions(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	accountNo := c.Params("accountNo")
	if _, err := h.profileService.Account(c.Context(), userID, accountNo); err != nil {
		return response.NotFound(c, "Account not found")
	}

	params := pagination.GetParams(c)
	entries, total, err := h.ledgerService.History(c.Context(), accountNo, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to get transaction history")
	}

	return response.Success(c, "Transactions retrieved successfully", fiber.Map{
		"transactions": entries,
		"pagination":   pagination.GetMeta(params, total),
	})
}
