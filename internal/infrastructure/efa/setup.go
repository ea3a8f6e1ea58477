package efa

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/efa-transit/internal/config"
)

// New - клиент для провайдера из конфигурации сервиса.
// EFA_BASE_URL переопределяет адрес из реестра.
func New(cfg *config.EFAConfig, logger *zap.Logger) (*Client, error) {
	providerCfg, err := Lookup(ProviderID(cfg.Provider))
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL != "" {
		providerCfg = providerCfg.WithBaseURL(cfg.BaseURL)
	}

	client, err := NewClient(providerCfg, &http.Client{Timeout: cfg.Timeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", cfg.Provider, err)
	}

	logger.Info("EFA client initialized",
		zap.String("provider", string(providerCfg.ID)),
		zap.String("base_url", providerCfg.BaseURL),
		zap.Duration("timeout", cfg.Timeout),
	)
	return client, nil
}
