package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/config"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/cache"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/database"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/realtime"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/token"

	// Camadas por módulo para Injeção de Dependências
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/api/manifest"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/api/movement"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/api/position"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/api/product"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/api/router"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/api/user"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/repository/manifestrepo"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/repository/movementrepo"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/repository/positionrepo"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/repository/productrepo"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/repository/userrepo"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/service/manifestservice"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/service/movementservice"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/service/positionservice"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/service/productservice"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço ProLoad...")

	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	if err := godotenv.Load(); err != nil {
		// Se o arquivo .env não for encontrado, as variáveis essenciais podem
		// estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache e feed de mudanças (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	appLog.Info("Conexão Redis estabelecida.", nil)

	// C. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	appLog.Debug("Serviço de Tokens JWT inicializado.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Montagem da Clean Architecture)
	// Ordem: Repository -> Service -> Handler

	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.ProductCacheTTL, appLog)
	productSvc := productservice.NewService(productRepo, appLog)
	productHandler := product.NewHandler(productSvc, appLog)
	appLog.Debug("Módulo de Produto inicializado.", nil)

	positionRepo := positionrepo.NewPositionRepository(db, cfg.DBTimeout, appLog)
	positionSvc := positionservice.NewService(positionRepo, appLog)
	positionHandler := position.NewHandler(positionSvc, appLog)
	appLog.Debug("Módulo de Posições inicializado.", nil)

	movementRepo := movementrepo.NewMovementRepository(db, cfg.DBTimeout, appLog)
	movementSvc := movementservice.NewService(movementRepo, cacheClient, cfg.MovementsChannel, appLog)
	movementHandler := movement.NewHandler(movementSvc, appLog)
	appLog.Debug("Módulo de Movimentações inicializado.", nil)

	manifestRepo := manifestrepo.NewManifestRepository(db, cfg.DBTimeout, appLog)
	manifestSvc := manifestservice.NewService(manifestRepo, appLog)
	manifestHandler := manifest.NewHandler(manifestSvc, appLog)
	appLog.Debug("Módulo de Romaneios inicializado.", nil)

	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)
	userSvc := userservice.NewService(userRepo, tokenSvc, appLog)
	userHandler := user.NewHandler(userSvc, appLog)
	appLog.Debug("Módulo de Usuários inicializado.", nil)

	// 4. Feed de mudanças: invalida o cache de produtos a cada movimentação.
	invalidatorCtx, stopInvalidator := context.WithCancel(context.Background())
	defer stopInvalidator()
	realtime.StartInvalidator(invalidatorCtx, cacheClient, cfg.MovementsChannel, appLog)

	// 5. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(router.Handlers{
		Product:  productHandler,
		Position: positionHandler,
		Movement: movementHandler,
		Manifest: manifestHandler,
		User:     userHandler,
	}, tokenSvc, cacheClient, router.RateLimit{
		MaxRequests: cfg.RateLimitMaxRequests,
		Period:      cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 6. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor ProLoad ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	// Lógica do Graceful Shutdown (captura de sinal)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
