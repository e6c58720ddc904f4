package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/newrestaurant/controllers"
	"github.com/yeremiapane/newrestaurant/events"
	"github.com/yeremiapane/newrestaurant/middlewares"
	"github.com/yeremiapane/newrestaurant/services"
	"github.com/yeremiapane/newrestaurant/tokenstore"
	"github.com/yeremiapane/newrestaurant/utils"
	"gorm.io/gorm"
)

type Options struct {
	Tokens   *utils.TokenManager
	Store    tokenstore.Store // defaults to a MemoryStore
	Hub      *events.Hub      // defaults to a fresh hub
	Payment  services.PaymentSimulator
	Currency string

	CORSOrigins    []string
	TrustedProxies []string
	RateLimiter    *middlewares.RateLimiter // nil disables
	AuthLimiter    *middlewares.RateLimiter // nil disables
	Checkout       gin.HandlerFunc          // extra throttle on checkout, optional
}

// Services is everything the HTTP layer calls into.
type Services struct {
	Hub           *events.Hub
	Users         *services.UserService
	Auth          *services.AuthService
	Categories    *services.CategoryService
	Plats         *services.PlatService
	Tables        *services.TableService
	Reservations  *services.ReservationService
	Carts         *services.CartService
	Checkout      *services.CheckoutService
	Notifications *services.NotificationService
	Statistics    *services.StatisticsService
}

func NewServices(db *gorm.DB, opts *Options) *Services {
	if opts.Hub == nil {
		opts.Hub = events.NewHub()
	}
	if opts.Store == nil {
		opts.Store = tokenstore.NewMemoryStore()
	}
	if opts.Payment == nil {
		opts.Payment = services.SimulatedPayment{}
	}
	if opts.Currency == "" {
		opts.Currency = "$"
	}

	users := services.NewUserService(db)
	carts := services.NewCartService(db, opts.Hub)
	return &Services{
		Hub:           opts.Hub,
		Users:         users,
		Auth:          services.NewAuthService(users, opts.Tokens, opts.Store, opts.Hub),
		Categories:    services.NewCategoryService(db),
		Plats:         services.NewPlatService(db),
		Tables:        services.NewTableService(db, opts.Hub),
		Reservations:  services.NewReservationService(db, opts.Hub),
		Carts:         carts,
		Checkout:      services.NewCheckoutService(carts, opts.Payment, opts.Currency),
		Notifications: services.NewNotificationService(db, opts.Hub),
		Statistics:    services.NewStatisticsService(db),
	}
}

func SetupRouter(svc *Services, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		utils.ErrorLogger.WithError(err).Warn("Invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(opts.CORSOrigins))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.MetricsMiddleware())
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.RateLimit())
	}

	userCtrl := controllers.NewUserController(svc.Users, svc.Auth)
	adminCtrl := controllers.NewAdminController(svc.Users, svc.Statistics)
	categoryCtrl := controllers.NewMenuCategoryController(svc.Categories)
	menuCtrl := controllers.NewMenuController(svc.Plats)
	tableCtrl := controllers.NewTableController(svc.Tables)
	reservationCtrl := controllers.NewReservationController(svc.Reservations)
	orderCtrl := controllers.NewOrderController(svc.Carts, svc.Checkout)
	notificationCtrl := controllers.NewNotificationController(svc.Notifications)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/")
	if opts.AuthLimiter != nil {
		public.Use(opts.AuthLimiter.RateLimit())
	}
	public.Use(middlewares.OptionalAuth(svc.Auth))
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	r.GET("/categories", categoryCtrl.GetAllCategories)
	r.GET("/categories/:cat_id", categoryCtrl.GetCategoryByID)
	r.GET("/plats", menuCtrl.GetAllPlats)
	r.GET("/plats/:plat_id", menuCtrl.GetPlatByID)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(svc.Auth))

	auth.POST("/logout", userCtrl.Logout)
	auth.GET("/profile", userCtrl.GetProfile)
	auth.PATCH("/profile", userCtrl.UpdateProfile)
	auth.GET("/me/permissions", userCtrl.GetPermissions)

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)

	// RESERVATIONS
	auth.GET("/reservations", reservationCtrl.GetAllReservations)
	auth.POST("/reservations", reservationCtrl.CreateReservation)
	auth.GET("/reservations/:reservation_id", reservationCtrl.GetReservationByID)
	auth.PUT("/reservations/:reservation_id", reservationCtrl.UpdateReservation)
	auth.DELETE("/reservations/:reservation_id", reservationCtrl.DeleteReservation)

	// CART & ORDERS
	auth.GET("/cart", orderCtrl.GetCart)
	auth.POST("/cart/items", orderCtrl.AddItem)
	auth.PATCH("/cart/items/:plat_id", orderCtrl.UpdateItem)
	auth.DELETE("/cart/items/:plat_id", orderCtrl.RemoveItem)
	auth.GET("/orders", orderCtrl.GetOrders)
	checkout := auth.Group("/cart/checkout")
	checkout.Use(middlewares.LogCheckoutRequest())
	if opts.Checkout != nil {
		checkout.Use(opts.Checkout)
	}
	checkout.POST("", orderCtrl.Checkout)

	// NOTIFICATIONS
	auth.GET("/notifications", notificationCtrl.GetAllNotifications)
	auth.GET("/notifications/unread-count", notificationCtrl.GetUnreadCount)
	auth.POST("/notifications/read-all", notificationCtrl.MarkAllAsRead)
	auth.POST("/notifications/:notif_id/read", notificationCtrl.MarkAsRead)

	// ----------------------------------------------------------------
	//                      STAFF / ADMIN ROUTES
	// ----------------------------------------------------------------
	menu := auth.Group("/")
	menu.Use(middlewares.RequireResource(services.ResourceCategory))
	{
		menu.POST("/categories", categoryCtrl.CreateCategory)
		menu.PATCH("/categories/:cat_id", categoryCtrl.UpdateCategory)
		menu.DELETE("/categories/:cat_id", categoryCtrl.DeleteCategory)
		menu.POST("/plats", menuCtrl.CreatePlat)
		menu.PATCH("/plats/:plat_id", menuCtrl.UpdatePlat)
		menu.DELETE("/plats/:plat_id", menuCtrl.DeletePlat)
	}

	tables := auth.Group("/tables")
	tables.Use(middlewares.RequireResource(services.ResourceTable))
	{
		tables.POST("", tableCtrl.CreateTable)
		tables.PATCH("/:table_id", tableCtrl.UpdateTable)
		tables.DELETE("/:table_id", tableCtrl.DeleteTable)
	}

	auth.POST("/notifications", middlewares.RequireResource(services.ResourceNotificationSend), notificationCtrl.CreateNotification)
	auth.GET("/statistics", middlewares.RequireResource(services.ResourceStatistics), adminCtrl.GetDashboardStats)
	auth.GET("/users", middlewares.RequireResource(services.ResourceUsers), adminCtrl.GetAllUsers)
	auth.POST("/users", middlewares.RequireResource(services.ResourceUserRole), adminCtrl.CreateUser)
	auth.PATCH("/users/:user_id/role", middlewares.RequireResource(services.ResourceUserRole), adminCtrl.ChangeRole)

	return r
}
