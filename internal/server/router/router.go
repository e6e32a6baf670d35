package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/metrics"
	"github.com/mamadbah2/rental/internal/server/handlers"
	"github.com/mamadbah2/rental/internal/server/middleware"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Accounts    *handlers.AccountHandler
	Properties  *handlers.PropertyHandler
	Electricity *handlers.ElectricityHandler
	Rent        *handlers.RentHandler
	Payments    *handlers.PaymentHandler
	Maintenance *handlers.MaintenanceHandler
	Agreements  *handlers.AgreementHandler
	Records     *handlers.RecordsHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, auth *middleware.Authenticator, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	if err := handlers.RegisterValidators(); err != nil {
		logger.Error("failed to register request validators", zap.Error(err))
	}
	m = metrics.OrNew(m)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Rental backend is running"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	ownerOnly := middleware.RequireRole(models.RoleOwner)
	managers := middleware.RequireRole(models.RoleOwner, models.RoleStaff)

	api := r.Group("/api", auth.Require())

	authGroup := api.Group("/auth")
	authGroup.POST("/sync", h.Accounts.Sync)
	authGroup.GET("/me", h.Accounts.Me)
	authGroup.POST("/fcm-token", h.Accounts.SetFCMToken)
	authGroup.POST("/create-tenant", ownerOnly, h.Accounts.CreateTenant)

	properties := api.Group("/properties")
	properties.GET("", managers, h.Properties.List)
	properties.POST("", ownerOnly, h.Properties.Create)
	properties.POST("/units", ownerOnly, h.Properties.AddUnit)
	properties.GET("/:propertyId/units", managers, h.Properties.ListUnits)
	properties.PATCH("/unit-status", managers, h.Properties.UpdateUnitStatus)

	electricity := api.Group("/electricity")
	electricity.GET("/status/:propertyId/:unitId", h.Electricity.Status)
	electricity.POST("/toggle", ownerOnly, h.Electricity.Toggle)

	rent := api.Group("/rent")
	rent.GET("/tenant", h.Rent.Tenant)
	rent.GET("/owner", managers, h.Rent.Owner)
	rent.POST("/generate", ownerOnly, h.Rent.Generate)

	payments := api.Group("/payments")
	payments.POST("/create-order", h.Payments.CreateOrder)
	payments.POST("/verify", h.Payments.Verify)

	maintenance := api.Group("/maintenance")
	maintenance.POST("/tickets", h.Maintenance.Create)
	maintenance.PATCH("/tickets/status", managers, h.Maintenance.UpdateStatus)
	maintenance.GET("/tenant", h.Maintenance.Tenant)
	maintenance.GET("/owner", managers, h.Maintenance.Owner)

	agreements := api.Group("/agreements")
	agreements.POST("", ownerOnly, h.Agreements.Create)
	agreements.GET("/unit/:unitId", h.Agreements.ByUnit)
	agreements.GET("/my-agreements", h.Agreements.Mine)

	api.GET("/analytics/summary", ownerOnly, h.Records.Summary)

	v2 := api.Group("/v2")
	v2.POST("/kyc/submit", h.Accounts.SubmitKYC)
	v2.POST("/kyc/verify", ownerOnly, h.Accounts.VerifyKYC)
	v2.POST("/expenses", ownerOnly, h.Records.CreateExpense)
	v2.GET("/expenses", ownerOnly, h.Records.ListExpenses)
	v2.DELETE("/expenses/:id", ownerOnly, h.Records.DeleteExpense)
	v2.POST("/handovers", managers, h.Records.CreateHandover)
	v2.GET("/handovers/unit/:unitId", h.Records.HandoverHistory)
	v2.POST("/notifications/broadcast", ownerOnly, h.Properties.Broadcast)
	v2.POST("/staff", ownerOnly, h.Accounts.CreateStaff)
	v2.GET("/staff", ownerOnly, h.Accounts.ListStaff)

	logger.Info("router initialized")

	return r
}
