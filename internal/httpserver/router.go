package httpserver

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore/internal/domain"
	orderrepo "shopcore/internal/repository/order"
	cartsvc "shopcore/internal/service/cart"
	catalogsvc "shopcore/internal/service/catalog"
	checkoutsvc "shopcore/internal/service/checkout"
	customersvc "shopcore/internal/service/customer"
	staffsvc "shopcore/internal/service/staff"
)

// CatalogService is the catalog surface the handlers need.
type CatalogService interface {
	ListProducts(ctx context.Context, in catalogsvc.ListInput) ([]domain.Product, error)
	GetProduct(ctx context.Context, idOrSlug string, includeInactive bool) (*domain.Product, error)
	CreateProduct(ctx context.Context, in catalogsvc.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in catalogsvc.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AddProductImages(ctx context.Context, id string, urls []string) (*domain.Product, error)
	RemoveProductImage(ctx context.Context, id, url string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, in catalogsvc.CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id string, in catalogsvc.CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type CartService interface {
	Create(ctx context.Context, in cartsvc.CreateInput, acc cartsvc.Accessor) (*domain.Cart, error)
	Get(ctx context.Context, id string, acc cartsvc.Accessor) (*domain.Cart, error)
	Update(ctx context.Context, id string, in cartsvc.UpdateInput, acc cartsvc.Accessor) (*domain.Cart, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, in checkoutsvc.Input) (*domain.Order, error)
}

type CustomerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, string, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Customer, string, string, error)
	Logout(ctx context.Context, accessToken, refreshToken string)
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	AccessTTLSeconds() int
	UpdateProfile(ctx context.Context, customerID string, in customersvc.ProfileInput) (*domain.Customer, error)
	AddAddress(ctx context.Context, customerID string, in customersvc.AddressInput) (*domain.Customer, error)
	RemoveAddress(ctx context.Context, customerID, addressID string) (*domain.Customer, error)
	List(ctx context.Context, query string, limit, offset int) ([]domain.Customer, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	AdminUpdate(ctx context.Context, id string, in customersvc.AdminUpdateInput) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
}

type OrderService interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	GetForCustomer(ctx context.Context, id, customerID string) (*domain.Order, error)
	ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	List(ctx context.Context, filter orderrepo.ListFilter) ([]domain.Order, error)
	ChangeStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error)
	Capture(ctx context.Context, id string) (*domain.Order, error)
	Refund(ctx context.Context, id string) (*domain.Order, error)
}

type StaffService interface {
	Login(ctx context.Context, email, password string) (string, *domain.StaffUser, error)
	ParseToken(tokenString string) (*staffsvc.Claims, error)
	ListUsers(ctx context.Context) ([]domain.StaffUser, error)
	CreateUser(ctx context.Context, in staffsvc.UserInput) (*domain.StaffUser, error)
	UpdateUser(ctx context.Context, id, actorID string, in staffsvc.UserInput) (*domain.StaffUser, error)
	DeleteUser(ctx context.Context, id, actorID string) error
	ListRoles(ctx context.Context) ([]domain.Role, error)
	Permissions() []string
	CreateRole(ctx context.Context, in staffsvc.RoleInput) (*domain.Role, error)
	UpdateRole(ctx context.Context, id string, in staffsvc.RoleInput) (*domain.Role, error)
	DeleteRole(ctx context.Context, id string) error
}

type SegmentRepo interface {
	List(ctx context.Context) ([]domain.Segment, error)
	GetByID(ctx context.Context, id string) (*domain.Segment, error)
	Create(ctx context.Context, s domain.Segment) (*domain.Segment, error)
	Update(ctx context.Context, s domain.Segment) (*domain.Segment, error)
	Delete(ctx context.Context, id string) error
	MemberIDs(ctx context.Context, id string) ([]string, error)
	ReplaceMembers(ctx context.Context, id string, customerIDs []string) error
	AddMember(ctx context.Context, id, customerID string) error
	RemoveMember(ctx context.Context, id, customerID string) error
}

type SettingsRepo interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Upsert(ctx context.Context, s domain.Settings) (*domain.Settings, error)
}

// MediaStorage is satisfied by media.Storage. It stays nil when no bucket is
// configured, which turns image uploads into a 503.
type MediaStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	KeyFromURL(url string) (string, bool)
}

// Deps carries everything the route handlers call.
type Deps struct {
	CatalogSvc  CatalogService
	CartSvc     CartService
	CheckoutSvc CheckoutService
	CustomerSvc CustomerService
	OrderSvc    OrderService
	StaffSvc    StaffService
	Segments    SegmentRepo
	Settings    SettingsRepo
	Media       MediaStorage
}

// Options holds the router's own knobs, split from Deps so tests can leave
// it zero-valued.
type Options struct {
	CORSOrigins   []string
	CSRFSecret    string
	AuthRateLimit float64
	AuthRateBurst int
}

// buildRouter wires routes for the storefront and admin APIs.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, opts Options) (*gin.Engine, error) {
	if deps.CatalogSvc == nil || deps.CartSvc == nil || deps.CheckoutSvc == nil ||
		deps.CustomerSvc == nil || deps.OrderSvc == nil || deps.StaffSvc == nil ||
		deps.Segments == nil || deps.Settings == nil {
		return nil, errors.New("httpserver: missing dependency")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	if len(opts.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = opts.CORSOrigins
		corsCfg.AllowCredentials = true
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", headerCartToken, headerCSRFToken)
		router.Use(cors.New(corsCfg))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	csrf := newCSRFSigner(opts.CSRFSecret)
	limit := newRateLimiter(opts.AuthRateLimit, opts.AuthRateBurst)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth", limit.middleware())
		{
			auth.POST("/signup", signupHandler(deps.CustomerSvc))
			auth.POST("/login", loginHandler(deps.CustomerSvc))
			auth.POST("/refresh", refreshHandler(deps.CustomerSvc))
			auth.POST("/logout", logoutHandler(deps.CustomerSvc))
		}

		me := api.Group("/me", requireCustomer(deps.CustomerSvc))
		{
			me.GET("", meHandler())
			me.PATCH("", updateProfileHandler(deps.CustomerSvc))
			me.POST("/addresses", addAddressHandler(deps.CustomerSvc))
			me.DELETE("/addresses/:addressId", removeAddressHandler(deps.CustomerSvc))
		}

		api.GET("/products", listProductsHandler(deps.CatalogSvc))
		api.GET("/products/:idOrSlug", getProductHandler(deps.CatalogSvc))
		api.GET("/categories", listCategoriesHandler(deps.CatalogSvc))

		carts := api.Group("/carts", optionalCustomer(deps.CustomerSvc))
		{
			carts.POST("", createCartHandler(deps.CartSvc))
			carts.GET("/:id", getCartHandler(deps.CartSvc))
			carts.POST("/:id", updateCartHandler(deps.CartSvc))
		}

		api.POST("/checkout", optionalCustomer(deps.CustomerSvc), checkoutHandler(deps.CheckoutSvc))

		orders := api.Group("/orders", requireCustomer(deps.CustomerSvc))
		{
			orders.GET("", listMyOrdersHandler(deps.OrderSvc))
			orders.GET("/:id", getMyOrderHandler(deps.OrderSvc))
		}
	}

	admin := router.Group("/api/v1/admin")
	{
		admin.POST("/auth/login", limit.middleware(), staffLoginHandler(deps.StaffSvc, csrf))

		protected := admin.Group("", requireStaff(deps.StaffSvc), csrfProtect(csrf))
		{
			protected.GET("/auth/me", staffMeHandler())
			protected.GET("/auth/csrf", csrfTokenHandler(csrf))

			products := protected.Group("/products")
			{
				products.GET("", requirePermission(domain.PermCatalogRead), adminListProductsHandler(deps.CatalogSvc))
				products.GET("/:id", requirePermission(domain.PermCatalogRead), adminGetProductHandler(deps.CatalogSvc))
				products.POST("", requirePermission(domain.PermCatalogWrite), adminCreateProductHandler(deps.CatalogSvc))
				products.PATCH("/:id", requirePermission(domain.PermCatalogWrite), adminUpdateProductHandler(deps.CatalogSvc))
				products.DELETE("/:id", requirePermission(domain.PermCatalogWrite), adminDeleteProductHandler(deps.CatalogSvc, deps.Media))
				products.POST("/:id/images", requirePermission(domain.PermMediaWrite), uploadProductImageHandler(deps.CatalogSvc, deps.Media))
				products.DELETE("/:id/images", requirePermission(domain.PermMediaWrite), removeProductImageHandler(deps.CatalogSvc, deps.Media))
			}

			categories := protected.Group("/categories")
			{
				categories.GET("", requirePermission(domain.PermCatalogRead), adminListCategoriesHandler(deps.CatalogSvc))
				categories.POST("", requirePermission(domain.PermCatalogWrite), adminCreateCategoryHandler(deps.CatalogSvc))
				categories.PATCH("/:id", requirePermission(domain.PermCatalogWrite), adminUpdateCategoryHandler(deps.CatalogSvc))
				categories.DELETE("/:id", requirePermission(domain.PermCatalogWrite), adminDeleteCategoryHandler(deps.CatalogSvc))
			}

			orders := protected.Group("/orders")
			{
				orders.GET("", requirePermission(domain.PermOrdersRead), adminListOrdersHandler(deps.OrderSvc))
				orders.GET("/:id", requirePermission(domain.PermOrdersRead), adminGetOrderHandler(deps.OrderSvc))
				orders.POST("/:id/status", requirePermission(domain.PermOrdersWrite), orderStatusHandler(deps.OrderSvc))
				orders.POST("/:id/capture", requirePermission(domain.PermOrdersWrite), orderCaptureHandler(deps.OrderSvc))
				orders.POST("/:id/refund", requirePermission(domain.PermOrdersWrite), orderRefundHandler(deps.OrderSvc))
			}

			customers := protected.Group("/customers")
			{
				customers.GET("", requirePermission(domain.PermCustomersRead), adminListCustomersHandler(deps.CustomerSvc))
				customers.GET("/:id", requirePermission(domain.PermCustomersRead), adminGetCustomerHandler(deps.CustomerSvc))
				customers.PATCH("/:id", requirePermission(domain.PermCustomersWrite), adminUpdateCustomerHandler(deps.CustomerSvc))
				customers.DELETE("/:id", requirePermission(domain.PermCustomersWrite), adminDeleteCustomerHandler(deps.CustomerSvc))
			}

			staff := protected.Group("/staff", requirePermission(domain.PermRolesWrite))
			{
				staff.GET("", listStaffHandler(deps.StaffSvc))
				staff.POST("", createStaffHandler(deps.StaffSvc))
				staff.PATCH("/:id", updateStaffHandler(deps.StaffSvc))
				staff.DELETE("/:id", deleteStaffHandler(deps.StaffSvc))
			}

			roles := protected.Group("/roles", requirePermission(domain.PermRolesWrite))
			{
				roles.GET("", listRolesHandler(deps.StaffSvc))
				roles.POST("", createRoleHandler(deps.StaffSvc))
				roles.PATCH("/:id", updateRoleHandler(deps.StaffSvc))
				roles.DELETE("/:id", deleteRoleHandler(deps.StaffSvc))
			}
			protected.GET("/permissions", requirePermission(domain.PermRolesWrite), listPermissionsHandler(deps.StaffSvc))

			segments := protected.Group("/segments", requirePermission(domain.PermSegmentsWrite))
			{
				segments.GET("", listSegmentsHandler(deps.Segments))
				segments.POST("", createSegmentHandler(deps.Segments))
				segments.GET("/:id", getSegmentHandler(deps.Segments))
				segments.PATCH("/:id", updateSegmentHandler(deps.Segments))
				segments.DELETE("/:id", deleteSegmentHandler(deps.Segments))
				segments.GET("/:id/members", listSegmentMembersHandler(deps.Segments, deps.CustomerSvc))
				segments.PUT("/:id/members", replaceSegmentMembersHandler(deps.Segments))
				segments.POST("/:id/members", addSegmentMemberHandler(deps.Segments))
				segments.DELETE("/:id/members/:customerId", removeSegmentMemberHandler(deps.Segments))
			}

			settings := protected.Group("/settings", requirePermission(domain.PermSettingsWrite))
			{
				settings.GET("", getSettingsHandler(deps.Settings))
				settings.PUT("", updateSettingsHandler(deps.Settings))
			}
		}
	}

	return router, nil
}
