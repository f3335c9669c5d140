package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"homego/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrNetwork            = errors.New("network error")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// Credentials es el payload que devuelven login y register.
type Credentials struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// AuthAPI es el contrato contra el endpoint de autenticación remoto.
// El core trata el token como opaco; no valida su estructura.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (Credentials, error)
	Register(ctx context.Context, email, password, fullName, role string) (Credentials, error)
	Profile(ctx context.Context, token string) (domain.User, error)
}

// HTTPAuthAPI implementa AuthAPI contra la API REST de la tienda.
type HTTPAuthAPI struct {
	baseURL string
	client  *http.Client
}

func NewHTTPAuthAPI(baseURL string) *HTTPAuthAPI {
	return &HTTPAuthAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *HTTPAuthAPI) Login(ctx context.Context, email, password string) (Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	return a.postCredentials(ctx, "/auth/login", body)
}

func (a *HTTPAuthAPI) Register(ctx context.Context, email, password, fullName, role string) (Credentials, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
		"fullName": fullName,
		"role":     role,
	}
	return a.postCredentials(ctx, "/auth/register", body)
}

func (a *HTTPAuthAPI) Profile(ctx context.Context, token string) (domain.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/user/profile", nil)
	if err != nil {
		return domain.User{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.User{}, ErrNotAuthenticated
	}

	var user domain.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return domain.User{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return user, nil
}

// postCredentials envía el request y mapea los códigos de respuesta:
// 401 a ErrInvalidCredentials, 409 a ErrUserAlreadyExists, el resto de
// los 4xx conserva el mensaje del servidor, 5xx y fallos de transporte
// van a ErrNetwork.
func (a *HTTPAuthAPI) postCredentials(ctx context.Context, path string, body map[string]string) (Credentials, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Credentials{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return Credentials{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusUnauthorized:
		return Credentials{}, ErrInvalidCredentials
	case resp.StatusCode == http.StatusConflict:
		return Credentials{}, ErrUserAlreadyExists
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return Credentials{}, fmt.Errorf("request rejected: %s (status=%d)", apiErr.Error, resp.StatusCode)
		}
		return Credentials{}, fmt.Errorf("request rejected: status=%d", resp.StatusCode)
	default:
		return Credentials{}, fmt.Errorf("%w: status=%d", ErrNetwork, resp.StatusCode)
	}

	var creds Credentials
	if err := json.Unmarshal(payload, &creds); err != nil {
		return Credentials{}, fmt.Errorf("unmarshal credentials: %w", err)
	}
	if creds.Token == "" {
		return Credentials{}, fmt.Errorf("%w: empty token", ErrNetwork)
	}
	return creds, nil
}
