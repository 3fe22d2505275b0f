package service

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"expense-bot/pkg/config"

	"github.com/Role1776/gigago"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Completer runs a single completion with a system instruction and one user
// message. Implementations do not retry.
type Completer interface {
	Complete(ctx context.Context, system, input string) (string, error)
}

const (
	gigaChatBaseURL  = "https://gigachat.devices.sberbank.ru/api/v1"
	gigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
)

// LLMService talks to GigaChat: completions through gigago, file upload and
// vision through the REST API.
type LLMService struct {
	client     *gigago.Client
	config     *config.GigaChatConfig
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
	oauthURL   string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewLLMService(ctx context.Context, cfg *config.GigaChatConfig, logger *zap.Logger) (*LLMService, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	httpClient := &http.Client{Timeout: 2 * time.Minute}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	logger.Info("GigaChat client initialized", zap.String("model", cfg.Model))

	return &LLMService{
		client:     client,
		config:     cfg,
		logger:     logger,
		httpClient: httpClient,
		baseURL:    gigaChatBaseURL,
		oauthURL:   gigaChatOAuthURL,
	}, nil
}

// Complete builds a fresh model per call so concurrent messages never share
// a system instruction.
func (s *LLMService) Complete(ctx context.Context, system, input string) (string, error) {
	model := s.client.GenerativeModel(s.config.Model)
	model.SystemInstruction = system
	model.Temperature = 0.1

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: input},
	}

	resp, err := model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// token returns a cached OAuth access token for the REST endpoints,
// requesting a new one when it is missing or about to expire.
func (s *LLMService) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Add(time.Minute).Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	rqUID := uuid.New().String()
	form := url.Values{}
	form.Set("scope", s.config.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	// the key is issued already Base64-encoded
	req.Header.Set("Authorization", "Basic "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(body)),
			zap.String("rq_uid", rqUID),
		)
		return "", fmt.Errorf("OAuth failed with status %d", resp.StatusCode)
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in OAuth response")
	}

	switch {
	case oauthResp.ExpiresAt > 0:
		s.tokenExpiry = time.UnixMilli(oauthResp.ExpiresAt)
	case oauthResp.ExpiresIn > 0:
		s.tokenExpiry = time.Now().Add(time.Duration(oauthResp.ExpiresIn) * time.Second)
	default:
		s.tokenExpiry = time.Now().Add(25 * time.Minute)
	}
	s.accessToken = oauthResp.AccessToken

	s.logger.Info("Access token obtained", zap.Time("expires_at", s.tokenExpiry))
	return s.accessToken, nil
}

// invalidateToken forces the next call to request a fresh token.
func (s *LLMService) invalidateToken() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
