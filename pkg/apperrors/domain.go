package apperrors

import "net/http"

// Сообщения намеренно одинаковые для "не найден" и "неверный пароль",
// чтобы не раскрывать существование аккаунта.
const (
	MsgIncorrectCredentials = "Incorrect email or password"
	MsgEmptyCredentials     = "Email or password is empty"
	MsgLoginRequired        = "Please login to get access"
	MsgInvalidToken         = "Invalid token. Please log in again"
	MsgUserGone             = "User no longer exists"
	MsgLoginAgain           = "Please log in again"
	MsgNoPermission         = "You do not have permission to access"
	MsgNoAccountForEmail    = "No account exist with that email"
	MsgResetTokenInvalid    = "Token is invalid or has expired"
	MsgEmailDeliveryFailed  = "There was an error sending the email. Try again later!"
	MsgWrongCurrentPassword = "Your current password is wrong"
	MsgPasswordsMismatch    = "Passwords are not the same!"
	MsgDocumentNotFound     = "No document found with that ID"
	MsgEmailTaken           = "Email already exists"
	MsgNotForPasswords      = "This route is not for password updates. Please use /update-password"
)

// =========================================================================
// Фабрики доменных ошибок (каждый вызов - новая ошибка со своим стеком)
// =========================================================================

func ErrIncorrectCredentials() *AppError {
	return New(CodeInvalidCredentials, "auth", MsgIncorrectCredentials, http.StatusUnauthorized)
}

func ErrEmptyCredentials() *AppError {
	return New(CodeValidationFailed, "auth", MsgEmptyCredentials, http.StatusBadRequest)
}

func ErrLoginRequired() *AppError {
	return NewUnauthorizedError(MsgLoginRequired)
}

func ErrInvalidToken(err error) *AppError {
	return Wrap(err, CodeInvalidToken, "auth", MsgInvalidToken, http.StatusUnauthorized)
}

func ErrUserGone() *AppError {
	return NewUnauthorizedError(MsgUserGone)
}

func ErrStaleToken() *AppError {
	return New(CodeStaleToken, "auth", MsgLoginAgain, http.StatusUnauthorized)
}

func ErrNoPermission() *AppError {
	return NewForbiddenError(MsgNoPermission)
}

func ErrNoAccountForEmail() *AppError {
	return New(CodeNotFound, "auth", MsgNoAccountForEmail, http.StatusNotFound)
}

func ErrResetTokenInvalid() *AppError {
	return New(CodeResetTokenInvalid, "auth", MsgResetTokenInvalid, http.StatusBadRequest)
}

func ErrEmailDelivery(err error) *AppError {
	return Wrap(err, CodeDeliveryFailed, "email", MsgEmailDeliveryFailed, http.StatusInternalServerError)
}

func ErrWrongCurrentPassword() *AppError {
	return New(CodeInvalidCredentials, "auth", MsgWrongCurrentPassword, http.StatusUnauthorized)
}

func ErrPasswordsMismatch() *AppError {
	return New(CodeValidationFailed, "validation", MsgPasswordsMismatch, http.StatusBadRequest)
}

// ErrNotFound - фабрика для ошибки "не найдено" (404)
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", MsgDocumentNotFound, http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "user", MsgEmailTaken, http.StatusConflict)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}
