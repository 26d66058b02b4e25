package realtime

import (
	"context"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/cache"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/repository/productrepo"
)

// StartInvalidator assina o feed de mudanças de movimentações e invalida a
// chave de cache do produto movimentado. Assim, painéis que leem o catálogo em
// cache enxergam o efeito de uma movimentação na leitura seguinte, sem esperar
// o TTL expirar.
//
// Roda em uma goroutine própria até o contexto ser cancelado.
func StartInvalidator(ctx context.Context, cacheClient cache.Client, channel string, log logger.Logger) {
	events := cacheClient.Subscribe(ctx, channel)

	go func() {
		log.Info("Consumidor do feed de mudanças iniciado.", map[string]interface{}{"channel": channel})
		for productID := range events {
			key := productrepo.CacheKey(productID)
			if err := cacheClient.Delete(ctx, key); err != nil {
				log.Warn("Falha ao invalidar chave de cache do produto.", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
				continue
			}
			log.Debug("Chave de cache de produto invalidada pelo feed de mudanças.", map[string]interface{}{"key": key})
		}
		log.Info("Consumidor do feed de mudanças encerrado.", nil)
	}()
}
