package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/api/manifest"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/api/movement"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/api/position"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/api/product"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/api/user"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/cache"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/middleware"
)

// Handlers agrupa os handlers já inicializados por injeção de dependências.
type Handlers struct {
	Product  *product.Handler
	Position *position.Handler
	Movement *movement.Handler
	Manifest *manifest.Handler
	User     *user.Handler
}

// RateLimit agrupa os parâmetros do rate limiter global.
type RateLimit struct {
	MaxRequests int
	Period      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Usamos o ServeMux padrão do net/http com os patterns de método e path
// (Go 1.22+); as rotas de escrita passam pelo middleware de autenticação.
func NewRouter(h Handlers, tokenSvc middleware.TokenService, cacheClient cache.Client, rl RateLimit) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(tokenSvc)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)

	// --- 1. Health Check e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.Handler())

	// --- 2. Usuários (registro e login são públicos) ---
	mux.HandleFunc("POST /v1/users/register", h.User.RegisterHandler)
	mux.HandleFunc("POST /v1/users/login", h.User.LoginHandler)
	mux.HandleFunc("GET /v1/users", auth(adminOnly(h.User.ListUsersHandler)))

	// --- 3. Catálogo de Produtos ---
	mux.HandleFunc("POST /v1/products", auth(h.Product.CreateProductHandler))
	mux.HandleFunc("GET /v1/products", h.Product.ListProductsHandler)
	mux.HandleFunc("GET /v1/products/{id}", h.Product.GetProductByIDHandler)
	mux.HandleFunc("PUT /v1/products/{id}", auth(h.Product.UpdateProductHandler))
	mux.HandleFunc("DELETE /v1/products/{id}", auth(adminOnly(h.Product.DeleteProductHandler)))

	// --- 4. Posições de Armazenagem ---
	mux.HandleFunc("POST /v1/positions", auth(h.Position.CreatePositionHandler))
	mux.HandleFunc("GET /v1/positions", h.Position.ListPositionsHandler)
	mux.HandleFunc("GET /v1/positions/suggest", h.Position.SuggestPositionHandler)

	// --- 5. Movimentações de Estoque ---
	mux.HandleFunc("POST /v1/movements", auth(h.Movement.RecordMovementHandler))
	mux.HandleFunc("GET /v1/movements", h.Movement.ListMovementsHandler)

	// --- 6. Romaneios (conferência por bipagem) ---
	mux.HandleFunc("POST /v1/manifests", auth(h.Manifest.CreateManifestHandler))
	mux.HandleFunc("GET /v1/manifests", h.Manifest.ListManifestsHandler)
	mux.HandleFunc("GET /v1/manifests/{id}", h.Manifest.GetManifestHandler)
	mux.HandleFunc("DELETE /v1/manifests/{id}", auth(h.Manifest.DeleteManifestHandler))
	mux.HandleFunc("POST /v1/manifests/{id}/items", auth(h.Manifest.AddItemHandler))
	mux.HandleFunc("POST /v1/manifests/{id}/scan", auth(h.Manifest.ScanHandler))
	mux.HandleFunc("POST /v1/manifests/{id}/finalize", auth(h.Manifest.FinalizeHandler))

	// --- 7. Middlewares Globais ---
	return middleware.RateLimiter(cacheClient, rl.MaxRequests, rl.Period)(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
