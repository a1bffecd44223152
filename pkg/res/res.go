package res

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse представляет формат JSON-ответа для ошибок.
type ErrorResponse struct {
	Error     string `json:"error"`                // Сообщение об ошибке (для пользователя)
	ErrorCode string `json:"errorCode,omitempty"`  // Машинный код ошибки (NotFound, AlreadyRedeemed, EmailMismatch, ...)
	Details   any    `json:"details,omitempty"`    // Детали ошибки (например, ошибки валидации)
	DebugInfo string `json:"debug_info,omitempty"` // Отладочная информация (ТОЛЬКО в development среде!)
}

// JsonResponse отправляет JSON-ответ с заданным статусом.
func JsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
