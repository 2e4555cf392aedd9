package api

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/khadijabh/cafe-store/internal/config"
	"go.uber.org/zap"
)

func NewRouter(db *sql.DB, cfg *config.Config, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	registerValidators()

	a := &API{DB: db, Cfg: cfg, Logger: logger}
	secret := []byte(cfg.Auth.JWTSecret)

	r := gin.New()
	r.Use(RequestLogger(logger), gin.Recovery())

	// Public catalog.
	r.GET("/products", a.listProducts)
	r.GET("/products/:id", a.getProduct)
	r.GET("/categories", a.listCategories)
	r.GET("/categories/:id/products", a.listCategoryProducts)

	// Authenticated storefront.
	user := r.Group("", Authenticate(secret))
	{
		user.GET("/cart", a.getCart)
		user.POST("/cart/items", a.addCartItem)
		user.PUT("/cart/items/:productId", a.updateCartItem)
		user.DELETE("/cart/items/:productId", a.removeCartItem)
		user.DELETE("/cart", a.clearCart)

		user.POST("/orders", a.placeOrder)
		user.GET("/orders", a.listOrders)
		user.GET("/orders/:id", a.getOrder)
		user.POST("/orders/:id/cancel", a.cancelOrder)
	}

	// Catalog maintenance.
	admin := r.Group("", Authenticate(secret), RequireAdmin())
	{
		admin.POST("/products", a.createProduct)
		admin.PUT("/products/:id", a.updateProduct)
		admin.DELETE("/products/:id", a.deleteProduct)

		admin.POST("/categories", a.createCategory)
		admin.PUT("/categories/:id", a.updateCategory)
		admin.DELETE("/categories/:id", a.deleteCategory)
	}

	return r
}
