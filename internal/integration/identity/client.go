package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
)

// Config конфигурация клиента identity-провайдера
type Config struct {
	BaseURL    string
	ServiceKey string
}

// Client обращается к админскому REST API identity-провайдера.
// Используется только при создании детских аккаунтов: синтетический адрес
// и секрет, выведенный из PIN-кода, регистрируются как учетные данные.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient создает новый клиент identity-провайдера
func NewClient(cfg Config, log *logger.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// createCredentialRequest тело запроса на создание учетных данных
type createCredentialRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  bool   `json:"email_confirm"`
}

// createCredentialResponse тело ответа с ID созданных учетных данных
type createCredentialResponse struct {
	ID string `json:"id"`
}

// CreateCredential создает учетные данные и возвращает их ID
func (c *Client) CreateCredential(ctx context.Context, address, secret string) (string, error) {
	body, err := json.Marshal(createCredentialRequest{
		Email:    address,
		Password: secret,
		Confirm:  true,
	})
	if err != nil {
		return "", fmt.Errorf("identity: failed to marshal credential request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/admin/users", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("identity: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Errorw("Identity credential creation failed", "error", err, "address", address)
		return "", domain.NewUpstreamError("identity", "create credential", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.log.Errorw("Identity provider returned error status", "status", resp.StatusCode, "address", address)
		return "", domain.NewUpstreamError("identity", "create credential",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var created createCredentialResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", domain.NewUpstreamError("identity", "decode credential response", err)
	}

	c.log.Infow("Identity credential created", "credentialID", created.ID, "address", address)
	return created.ID, nil
}

// DeleteCredential удаляет учетные данные (компенсация при неудачном
// создании аккаунта, чтобы не оставить логин без профиля)
func (c *Client) DeleteCredential(ctx context.Context, credentialID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.cfg.BaseURL+"/admin/users/"+credentialID, nil)
	if err != nil {
		return fmt.Errorf("identity: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewUpstreamError("identity", "delete credential", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return domain.NewUpstreamError("identity", "delete credential",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	c.log.Infow("Identity credential deleted", "credentialID", credentialID)
	return nil
}
