package handlers

import (
	"errors"
	"strconv"

	"nexbank/internal/core/domain"
	"nexbank/internal/core/services"
	"nexbank/internal/pkg/pagination"
	"nexbank/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// OfficerHandler handles back-office endpoints
type OfficerHandler struct {
	officerService *services.OfficerService
}

// NewOfficerHandler creates a new officer handler
func NewOfficerHandler(officerService *services.OfficerService) *OfficerHandler {
	return &OfficerHandler{officerService: officerService}
}

// SetKycRequest represents the eKYC review body
type SetKycRequest struct {
	Status string `json:"status"`
}

// LockUserRequest represents the manual lock body
type LockUserRequest struct {
	Reason string `json:"reason"`
}

// ProvisionAccountRequest represents the account provisioning body
type ProvisionAccountRequest struct {
	UserID    uint   `json:"user_id"`
	AccountNo string `json:"account_no"`
	Kind      string `json:"kind"`
	Currency  string `json:"currency"`
}

// ListUsers lists all users
// @Summary List users
// @Description Paginated user list for back-office review
// @Tags Officer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /officer/users [get]
func (h *OfficerHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	result, err := h.officerService.ListUsers(c.Context(), params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", result)
}

// GetUser returns one user
// @Summary Get user
// @Description Get a single user profile for review
// @Tags Officer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /officer/users/{id} [get]
func (h *OfficerHandler) GetUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.officerService.GetUser(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{"user": user})
}

// SetKyc records an eKYC review outcome
// @Summary Set eKYC status
// @Description Record the eKYC review outcome for a user
// @Tags Officer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body SetKycRequest true "Review outcome"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /officer/users/{id}/kyc [patch]
func (h *OfficerHandler) SetKyc(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req SetKycRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.officerService.SetKycStatus(c.Context(), uint(id), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Status must be PENDING, VERIFIED or REJECTED")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to set eKYC status")
		}
	}

	return response.Success(c, "eKYC status updated", fiber.Map{"user": user})
}

// UnlockUser clears a lock and resets failure counters
// @Summary Unlock user
// @Description Clear a lock and reset PIN/biometric failure counters
// @Tags Officer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /officer/users/{id}/unlock [patch]
func (h *OfficerHandler) UnlockUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.officerService.UnlockUser(c.Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to unlock user")
	}

	return response.Success(c, "User unlocked", nil)
}

// LockUser applies a manual lock
// @Summary Lock user
// @Description Apply a manual lock with a stated reason
// @Tags Officer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body LockUserRequest true "Lock reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /officer/users/{id}/lock [patch]
func (h *OfficerHandler) LockUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req LockUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.officerService.LockUser(c.Context(), uint(id), req.Reason); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to lock user")
	}

	return response.Success(c, "User locked", nil)
}

// ListAccounts lists all accounts
// @Summary List accounts
// @Description Paginated account list for back-office review
// @Tags Officer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /officer/accounts [get]
func (h *OfficerHandler) ListAccounts(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	accounts, total, err := h.officerService.ListAccounts(c.Context(), params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list accounts")
	}

	return response.Success(c, "Accounts retrieved successfully", fiber.Map{
		"accounts":   accounts,
		"pagination": pagination.GetMeta(params, total),
	})
}

// ProvisionAccount opens a new account for a customer
// @Summary Provision account
// @Description Open a new account for an existing customer
// @Tags Officer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ProvisionAccountRequest true "Account data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /officer/accounts [post]
func (h *OfficerHandler) ProvisionAccount(c *fiber.Ctx) error {
	var req ProvisionAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 || req.AccountNo == "" {
		return response.BadRequest(c, "User ID and account number are required")
	}

	account, err := h.officerService.ProvisionAccount(c.Context(), &services.ProvisionAccountInput{
		UserID:    req.UserID,
		AccountNo: req.AccountNo,
		Kind:      req.Kind,
		Currency:  req.Currency,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid account kind")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrDuplicateEntry):
			return response.Conflict(c, "Account number already exists")
		default:
			return response.InternalServerError(c, "Failed to provision account")
		}
	}

	return response.Created(c, "Account provisioned", fiber.Map{"account": account})
}

// LockAccount locks one account
// @Summary Lock account
// @Description Lock a single account without touching the owner profile
// @Tags Officer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountNo path string true "Account number"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /officer/accounts/{accountNo}/lock [patch]
func (h *OfficerHandler) LockAccount(c *fiber.Ctx) error {
	accountNo := c.Params("accountNo")

	if err := h.officerService.LockAccount(c.Context(), accountNo); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to lock account")
	}

	return response.Success(c, "Account locked", nil)
}

// UnlockAccount unlocks one account
// @Summary Unlock account
// @Description Unlock a single account
// @Tags Officer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountNo path string true "Account number"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /officer/accounts/{accountNo}/unlock [patch]
func (h *OfficerHandler) UnlockAccount(c *fiber.Ctx) error {
	accountNo := c.Params("accountNo")

	if err := h.officerService.UnlockAccount(c.Context(), accountNo); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to unlock account")
	}

	return response.Success(c, "Account unlocked", nil)
}
