package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrValidation неверные входные данные
	ErrValidation = errors.New("invalid input data")

	// ErrUnauthenticated пользователь не аутентифицирован
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrEmailMismatch email получателя не совпадает с email активирующего
	ErrEmailMismatch = errors.New("email mismatch")

	// ErrAlreadyRedeemed подарок уже активирован
	ErrAlreadyRedeemed = errors.New("gift already redeemed")

	// ErrChildLimitReached достигнут лимит управляемых детских аккаунтов
	ErrChildLimitReached = errors.New("managed child limit reached")

	// ErrSlugExhausted не удалось подобрать уникальный slug за отведенные попытки
	ErrSlugExhausted = errors.New("slug attempts exhausted")

	// ErrWebhookValidationFailed не удалось проверить подпись вебхука
	ErrWebhookValidationFailed = errors.New("webhook validation failed")

	// ErrUpstream внешний сервис вернул ошибку
	ErrUpstream = errors.New("upstream service error")

	// ErrPersistence ошибка записи в хранилище
	ErrPersistence = errors.New("persistence error")
)

// Машинные коды ошибок для тела HTTP-ответа
const (
	ErrorCodeNotFound        = "NotFound"
	ErrorCodeAlreadyRedeemed = "AlreadyRedeemed"
	ErrorCodeEmailMismatch   = "EmailMismatch"
	ErrorCodeValidation      = "ValidationError"
	ErrorCodeSlugExhausted   = "SlugExhausted"
)

// ValidationError представляет ошибку валидации
type ValidationError struct {
	Field   string
	Message string
}

// Error реализует интерфейс error
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
}

// Is проверяет, является ли ошибка ошибкой валидации
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError создает новую ошибку валидации
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError представляет ошибку "не найдено"
type NotFoundError struct {
	Entity string
	ID     string
}

// Error реализует интерфейс error
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// Is проверяет, является ли ошибка ошибкой типа "не найдено"
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError создает новую ошибку "не найдено"
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// UpstreamError представляет ошибку внешнего сервиса (шлюз, identity)
type UpstreamError struct {
	Service     string
	Operation   string
	OriginalErr error
}

// Error реализует интерфейс error
func (e *UpstreamError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s error during %s: %v", e.Service, e.Operation, e.OriginalErr)
	}
	return fmt.Sprintf("%s error during %s", e.Service, e.Operation)
}

// Unwrap возвращает оригинальную ошибку
func (e *UpstreamError) Unwrap() error {
	return e.OriginalErr
}

// Is проверяет, является ли ошибка ошибкой внешнего сервиса
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// NewUpstreamError создает новую ошибку внешнего сервиса
func NewUpstreamError(service, operation string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Operation: operation, OriginalErr: err}
}

// PersistenceError представляет ошибку хранилища.
// Для вебхук-ингресса такая ошибка транслируется в HTTP 500, что сигнализирует
// шлюзу о необходимости повторной доставки события.
type PersistenceError struct {
	Entity      string
	Operation   string
	OriginalErr error
}

// Error реализует интерфейс error
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s %s: %v", e.Operation, e.Entity, e.OriginalErr)
}

// Unwrap возвращает оригинальную ошибку
func (e *PersistenceError) Unwrap() error {
	return e.OriginalErr
}

// Is проверяет, является ли ошибка ошибкой хранилища
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// NewPersistenceError создает новую ошибку хранилища
func NewPersistenceError(entity, operation string, err error) *PersistenceError {
	return &PersistenceError{Entity: entity, Operation: operation, OriginalErr: err}
}
