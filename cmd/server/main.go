package main

import (
	"errors"
	"strings"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/audit"
	"uretim-backend/internal/auth"
	"uretim-backend/internal/bom"
	"uretim-backend/internal/catalog"
	"uretim-backend/internal/config"
	"uretim-backend/internal/database"
	"uretim-backend/internal/ledger"
	"uretim-backend/internal/models"
	"uretim-backend/internal/notify"
	"uretim-backend/internal/orders"
	"uretim-backend/internal/planning"
	"uretim-backend/internal/production"
	"uretim-backend/internal/stockcount"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			var ae *apperr.Error
			if errors.As(err, &ae) {
				return c.Status(ae.HTTPStatus()).JSON(fiber.Map{
					"error": ae.Message,
				})
			}
			config.LogError("cmd/server/main.go", "ErrorHandler", "unexpected_error", c.Path(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin: kullanıcı ve katalog yönetimi
	adminRoutes := protected.Group("")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/users", auth.CreateUserHandler())

	adminRoutes.Post("/raw-materials", catalog.CreateRawMaterialHandler())
	adminRoutes.Put("/raw-materials/:id", catalog.UpdateRawMaterialHandler())
	adminRoutes.Post("/products", catalog.CreateProductHandler())
	adminRoutes.Put("/products/:id", catalog.UpdateProductHandler())

	// Katalog listeleri (tüm roller)
	protected.Get("/raw-materials", catalog.ListRawMaterialsHandler())
	protected.Get("/products", catalog.ListProductsHandler())

	// Reçete yönetimi (planlama + admin)
	planningRoutes := protected.Group("")
	planningRoutes.Use(auth.RequireRole(models.RoleAdmin, models.RolePlanlama))

	planningRoutes.Put("/bom/:productId", bom.SetActiveBomHandler())
	planningRoutes.Get("/bom/:productId/versions", bom.ListBomVersionsHandler())

	protected.Get("/bom/:productId", bom.GetActiveBomHandler())
	protected.Post("/bom/:productId/calculate", bom.CalculateBatchHandler())

	// Siparişler
	planningRoutes.Post("/orders", orders.CreateOrderHandler())
	planningRoutes.Put("/orders/:id/status", orders.UpdateOrderStatusHandler())
	protected.Get("/orders", orders.ListOrdersHandler())

	// Üretim planlama
	planningRoutes.Get("/production/plan", planning.GeneratePlanHandler())
	planningRoutes.Post("/production/plan", planning.CommitPlanHandler())

	// İş emirleri
	protected.Get("/work-orders", planning.ListWorkOrdersHandler())
	protected.Get("/work-orders/:id", planning.GetWorkOrderHandler())
	planningRoutes.Post("/work-orders/:id/cancel", planning.CancelWorkOrderHandler())

	// Üretim raporu (üretim operatörü + admin)
	productionRoutes := protected.Group("")
	productionRoutes.Use(auth.RequireRole(models.RoleAdmin, models.RoleUretim))

	productionRoutes.Post("/production/report", production.ReportProductionHandler())

	// Stok hareketleri ve bakiyeler
	protected.Get("/inventory/movements", ledger.ListMovementsHandler())
	protected.Get("/inventory/balances", ledger.ListBalancesHandler())
	protected.Get("/inventory/low-stock", ledger.LowStockHandler())
	productionRoutes.Post("/inventory/movements", ledger.CreateMovementHandler())

	// Stok sayımı
	productionRoutes.Post("/inventory/counts", stockcount.StartCountHandler())
	protected.Get("/inventory/counts", stockcount.ListCountsHandler())
	protected.Get("/inventory/counts/:id", stockcount.GetCountHandler())
	productionRoutes.Put("/inventory/counts/:id", stockcount.SaveCountHandler())
	productionRoutes.Post("/inventory/counts/:id/submit", stockcount.SubmitCountHandler())
	planningRoutes.Post("/inventory/counts/:id/approve", stockcount.ApproveCountHandler())

	// Bildirimler
	protected.Get("/notifications", notify.ListNotificationsHandler())
	protected.Put("/notifications/:id/read", notify.MarkReadHandler())

	// Audit logs
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())

	config.Logger.Info("Server çalışıyor port: ", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		config.Logger.Fatal(err)
	}
}
