package api

import (
	"database/sql"
	"net/http"

	"agrimarket-be/internal/batch"
	"agrimarket-be/internal/cart"
	"agrimarket-be/internal/logger"
	"agrimarket-be/internal/metrics"
	"agrimarket-be/internal/middleware"
	"agrimarket-be/internal/notify"
	"agrimarket-be/internal/order"
	"agrimarket-be/internal/product"
	"agrimarket-be/internal/review"
	"agrimarket-be/internal/storage"
	"agrimarket-be/internal/user"

	"github.com/gin-gonic/gin"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	DB       *sql.DB
	Users    user.Service
	Products product.Service
	Carts    cart.Service
	Orders   order.Service
	Reviews  review.Service
	Batches  batch.Service
	Store    *storage.Store
	Hub      *notify.Hub
}

// NewRouter assembles the full HTTP surface: REST marketplace routes, the
// batch trace functions, uploads, the websocket change feed and health.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestIDMiddleware())
	r.Use(logger.LoggingMiddleware())
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit())

	users := &userHandler{users: deps.Users}
	products := &productHandler{products: deps.Products, reviews: deps.Reviews}
	carts := &cartHandler{carts: deps.Carts}
	orders := &orderHandler{orders: deps.Orders}
	reviews := &reviewHandler{reviews: deps.Reviews}
	batches := &batchHandler{batches: deps.Batches}
	uploads := &uploadHandler{store: deps.Store}

	r.GET("/healthz", healthHandler(deps.DB))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", users.register)
		authGroup.POST("/login", users.login)
		authGroup.POST("/reset-password", users.requestPasswordReset)
		authGroup.POST("/reset-password/confirm", users.confirmPasswordReset)
		authGroup.GET("/me", middleware.RequireAuth(), users.me)
	}

	productGroup := r.Group("/products")
	{
		productGroup.GET("", products.list)
		productGroup.GET("/categories", products.categories)
		productGroup.GET("/:id", products.get)
		productGroup.GET("/:id/reviews", products.listReviews)

		supplierOnly := productGroup.Group("", middleware.RequireAuth(), middleware.RequireRole(string(user.RoleSupplier)))
		supplierOnly.POST("", products.create)
		supplierOnly.PUT("/:id", products.update)
		supplierOnly.DELETE("/:id", products.delete)
	}

	cartGroup := r.Group("/cart", middleware.RequireAuth(), middleware.RequireRole(string(user.RoleVendor)))
	{
		cartGroup.GET("", carts.get)
		cartGroup.POST("", carts.add)
		cartGroup.PUT("/:product_id", carts.updateQuantity)
		cartGroup.DELETE("/:product_id", carts.remove)
		cartGroup.DELETE("", carts.clear)
	}

	orderGroup := r.Group("/orders", middleware.RequireAuth())
	{
		orderGroup.GET("", orders.list)
		orderGroup.GET("/:id", orders.get)
		orderGroup.POST("/checkout", middleware.RequireRole(string(user.RoleVendor)), orders.checkout)
		orderGroup.POST("/:id/accept", middleware.RequireRole(string(user.RoleSupplier)), orders.accept)
		orderGroup.POST("/:id/decline", middleware.RequireRole(string(user.RoleSupplier)), orders.decline)
		orderGroup.POST("/:id/advance", middleware.RequireRole(string(user.RoleSupplier)), orders.advance)
		orderGroup.POST("/:id/cancel", middleware.RequireRole(string(user.RoleVendor)), orders.cancel)
		orderGroup.POST("/:id/reorder", middleware.RequireRole(string(user.RoleVendor)), orders.reorder)
	}

	r.POST("/reviews", middleware.RequireAuth(), middleware.RequireRole(string(user.RoleVendor)), reviews.submit)
	r.GET("/reviews/eligibility", middleware.RequireAuth(), reviews.eligibility)

	functions := r.Group("/functions", middleware.RequireAuth())
	{
		functions.POST("/create-batch", batches.create)
		functions.GET("/get-batches", batches.list)
		functions.POST("/buy-batch", batches.buy)
		functions.POST("/sell-to-retailer", batches.sellToRetailer)
		functions.POST("/create-order", batches.createOrder)
		functions.GET("/get-trace", batches.trace)
	}

	r.POST("/uploads", middleware.RequireAuth(), uploads.upload)
	r.Static("/uploads", deps.Store.Dir())

	r.GET("/ws/changes", notify.ServeWS(deps.Hub))

	return r
}

func healthHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"counters": metrics.Snapshot(),
		})
	}
}
