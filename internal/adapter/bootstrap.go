package adapter

import (
	"go.uber.org/zap"

	"cityos/internal/cache"
	"cityos/internal/config"
)

// Bootstrap builds a registry holding one client per government source,
// configured from cfg. Transparência is only probed when an API key is set,
// since the portal rejects anonymous calls.
func Bootstrap(cfg config.UpstreamConfig, cc cache.Cache, ttl config.Duration, logger *zap.Logger, onStatus StatusFunc) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := NewRegistry(logger.Named("registry"), onStatus)

	common := []ClientOption{
		WithTimeout(cfg.Timeout.Duration()),
		WithCache(cc, ttl.Duration()),
		WithLogger(logger.Named("govapi")),
	}
	probe := AdapterConfig{Enabled: cfg.ProbeEnabled, ProbeInterval: cfg.ProbeInterval.Duration()}

	clients := []struct {
		client *Client
		config AdapterConfig
	}{
		{NewCamara(cfg.CamaraURL, common...), probe},
		{NewSenado(cfg.SenadoURL, common...), probe},
		{
			NewTransparencia(cfg.TransparenciaURL, cfg.TransparenciaAPIKey, common...),
			AdapterConfig{Enabled: probe.Enabled && cfg.TransparenciaAPIKey != "", ProbeInterval: probe.ProbeInterval},
		},
	}
	for _, c := range clients {
		if err := registry.Register(c.client, c.config); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
