package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// Eligibility & lock errors
var (
	ErrNotEligible   = errors.New("user is not eligible to transact")
	ErrAccountLocked = errors.New("account is locked")
)

// PIN & biometric step-up errors
var (
	ErrPinNotSet            = errors.New("transaction PIN has not been set")
	ErrInvalidPin           = errors.New("invalid transaction PIN")
	ErrBiometricFailed      = errors.New("biometric verification failed")
	ErrBiometricUnavailable = errors.New("biometric capability unavailable on this device")
	ErrBiometricRequired    = errors.New("biometric verification required for this amount")
)

// OTP errors
var (
	ErrOtpMismatch    = errors.New("OTP code does not match")
	ErrOtpExpired     = errors.New("OTP code has expired")
	ErrOtpStillValid  = errors.New("current OTP is still valid")
	ErrOtpRateLimited = errors.New("too many OTP requests, please wait")
)

// Money movement errors
var (
	ErrInvalidAmount         = errors.New("amount must be a positive integer")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrAccountNotFound       = errors.New("account not found")
	ErrNotAccountOwner       = errors.New("account does not belong to this user")
	ErrSameAccount           = errors.New("source and destination accounts are the same")
	ErrTransactionNotFound   = errors.New("pending transaction not found")
	ErrTransactionNotPending = errors.New("transaction is no longer pending")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)
