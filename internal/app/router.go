package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"fleetops/internal/domain"
	"fleetops/internal/handler"
	"fleetops/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AssignmentHandler *handler.AssignmentHandler
	CabHandler        *handler.CabHandler
	ExpenseHandler    *handler.ExpenseHandler
	AdminHandler      *handler.AdminHandler
	RedisClient       redis.Cmdable
	NewRelicApp       *newrelic.Application
	JWTSecret         string
	Logger            logrus.FieldLogger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	v1.Use(
		middleware.Authenticate(deps.JWTSecret),
		middleware.NewRelicActor(),
		middleware.IdempotencyMiddleware(deps.RedisClient, deps.Logger),
	)

	// Driver routes.
	driver := v1.Group("/driver", middleware.RequireRole(domain.RoleDriver))
	{
		driver.POST("/assignments", deps.AssignmentHandler.DriverAssignCab)
		driver.GET("/assignments", deps.AssignmentHandler.ListForDriver)
		driver.POST("/assignments/:id/complete", deps.AssignmentHandler.Complete)
		driver.PATCH("/trip", deps.AssignmentHandler.UpdateTrip)
	}

	admin := v1.Group("/admin", middleware.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin))
	{
		assignments := admin.Group("/assignments")
		{
			assignments.POST("", deps.AssignmentHandler.AssignCab)
			assignments.GET("", deps.AssignmentHandler.ListForAdmin)
			assignments.POST("/:id/complete", deps.AssignmentHandler.Complete)
			assignments.DELETE("/:id", deps.AssignmentHandler.Unassign)
		}

		cabs := admin.Group("/cabs")
		{
			cabs.POST("", deps.CabHandler.Create)
			cabs.GET("", deps.CabHandler.List)
			cabs.GET("/:id", deps.CabHandler.Get)
			cabs.PATCH("/:id", deps.CabHandler.Update)
			cabs.DELETE("/:id", deps.CabHandler.Delete)
		}

		expenses := admin.Group("/expenses")
		{
			expenses.POST("", deps.ExpenseHandler.Add)
			expenses.PUT("/:id", deps.ExpenseHandler.Update)
			expenses.DELETE("/:id", deps.ExpenseHandler.Delete)
			expenses.GET("/cabs", deps.ExpenseHandler.CabTotals)
			expenses.GET("/cabs/report.xlsx", deps.ExpenseHandler.CabReport)
			expenses.GET("/subadmins", deps.ExpenseHandler.SubAdminTotals)
			expenses.GET("/driver/:driverId", deps.ExpenseHandler.ByDriver)
			expenses.GET("/cab/:cabNumber", deps.ExpenseHandler.ByCab)
		}

		admin.GET("/analytics", deps.AdminHandler.LatestAnalytics)
		admin.POST("/analytics", deps.AdminHandler.AddAnalytics)

		admin.DELETE("/subadmins/:id", middleware.RequireRole(domain.RoleSuperAdmin), deps.AdminHandler.DeleteSubAdmin)
	}

	return router
}
