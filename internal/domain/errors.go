package domain

import (
	"errors"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrPasswordMissMatch = errors.New("password mismatch")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrUnknown           = errors.New("unknown error")
	// ErrRetryable временная ошибка хранилища (конфликт сериализации, дедлок, таймаут). Запрос можно повторить.
	ErrRetryable = errors.New("temporary store failure")

	ErrValidation       = errors.New("validation error")
	ErrCourseNotFound   = errors.New("course not found")
	ErrNotEnoughBalance = errors.New("not enough funds on the account")
)

// IsRetryable true, если операцию имеет смысл повторить.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}
