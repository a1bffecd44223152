package repository

import "errors"

var (
	// ErrNotFound стандартная ошибка для случаев, когда запись не найдена.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyRedeemed условное обновление подарка не прошло: статус уже не pending.
	ErrAlreadyRedeemed = errors.New("gift is not pending")

	// ErrDuplicate нарушение уникальности (например, занятый slug).
	ErrDuplicate = errors.New("duplicate record")
)
