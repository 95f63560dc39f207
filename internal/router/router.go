package router

import (
	"time"

	"github.com/strabagdev/control-costos-contrato-app/internal/config"
	"github.com/strabagdev/control-costos-contrato-app/internal/handler"
	"github.com/strabagdev/control-costos-contrato-app/internal/middleware"
	"github.com/strabagdev/control-costos-contrato-app/internal/repository"
	"github.com/strabagdev/control-costos-contrato-app/internal/service"
	"github.com/strabagdev/control-costos-contrato-app/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	contratoRepo := repository.NewContratoRepository(db)
	partidaRepo := repository.NewPartidaRepository(db)
	nocRepo := repository.NewNocRepository(db)
	userContractRepo := repository.NewUserContractRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	accesoSvc := service.NewAccesoService(userContractRepo, contratoRepo, usuarioRepo)
	contratoSvc := service.NewContratoService(contratoRepo, partidaRepo, nocRepo, userContractRepo)
	partidaSvc := service.NewPartidaService(partidaRepo, accesoSvc)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	nocSvc := service.NewNocService(nocRepo, partidaRepo, accesoSvc, dispatcher)
	dashboardSvc := service.NewDashboardService(contratoRepo, accesoSvc, rdb)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	contratosH := handler.NewContratosHandler(contratoSvc)
	partidasH := handler.NewPartidasHandler(partidaSvc)
	nocsH := handler.NewNocsHandler(nocSvc)
	userContractsH := handler.NewUserContractsHandler(accesoSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes. Roles: admin, editor, viewer. Per-contrato grants are
	// enforced inside the services via the access gate.
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		contratos := v1.Group("/contratos", middleware.RequireRole("admin"))
		{
			contratos.POST("", contratosH.Crear)
			contratos.GET("", contratosH.Listar)
			contratos.PUT("/:id", contratosH.Actualizar)
			contratos.DELETE("/:id", contratosH.Eliminar)
		}

		// Reads open to every role; the gate checks the contrato grant.
		v1.GET("/partidas", middleware.RequireRole("admin", "editor", "viewer"), partidasH.Listar)
		v1.GET("/partidas/:id/versions", middleware.RequireRole("admin", "editor", "viewer"), partidasH.Versiones)
		partidas := v1.Group("/partidas", middleware.RequireRole("admin", "editor"))
		{
			partidas.POST("", partidasH.Crear)
			partidas.PUT("/:id", partidasH.Actualizar)
			partidas.PATCH("/:id/vigente", partidasH.CambiarVigente)
		}

		v1.GET("/nocs", middleware.RequireRole("admin", "editor", "viewer"), nocsH.Listar)
		v1.GET("/nocs/:id", middleware.RequireRole("admin", "editor", "viewer"), nocsH.Obtener)
		v1.GET("/nocs/:id/lineas", middleware.RequireRole("admin", "editor", "viewer"), nocsH.ListarLineas)
		nocs := v1.Group("/nocs", middleware.RequireRole("admin", "editor"))
		{
			nocs.POST("", nocsH.Crear)
			nocs.PUT("/:id", nocsH.Actualizar)
			nocs.DELETE("/:id", nocsH.Eliminar)
			nocs.POST("/:id/lineas", nocsH.CrearLinea)
			nocs.PUT("/:id/lineas", nocsH.ActualizarLinea)
			nocs.DELETE("/:id/lineas", nocsH.EliminarLinea)
			nocs.POST("/:id/apply", nocsH.Aplicar)
		}

		usuarios := v1.Group("/usuarios", middleware.RequireRole("admin"))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}

		grants := v1.Group("/user-contracts", middleware.RequireRole("admin"))
		{
			grants.POST("", userContractsH.Asignar)
			grants.DELETE("", userContractsH.Revocar)
			grants.GET("", userContractsH.UsuariosDelContrato)
		}

		v1.GET("/me/contratos", middleware.RequireRole("admin", "editor", "viewer"), userContractsH.MisContratos)
		v1.GET("/dashboard/kpis", middleware.RequireRole("admin", "editor", "viewer"), dashboardH.KPIs)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
