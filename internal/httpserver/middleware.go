package httpserver

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"shopcore/internal/domain"
	staffsvc "shopcore/internal/service/staff"
)

const (
	headerCartToken = "X-Cart-Token"
	headerCSRFToken = "X-CSRF-Token"

	ctxCustomer    = "customer"
	ctxStaffClaims = "staffClaims"
)

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// requireCustomer resolves the bearer token to a customer or aborts with 401.
func requireCustomer(svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			errorJSON(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		cust, err := svc.LookupByToken(c.Request.Context(), token)
		if err != nil {
			errorJSON(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set(ctxCustomer, cust)
		c.Next()
	}
}

// optionalCustomer resolves the bearer token when present. Guests pass
// through; a token that is present but invalid is still a 401 so callers
// never silently act as a guest.
func optionalCustomer(svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		cust, err := svc.LookupByToken(c.Request.Context(), token)
		if err != nil {
			errorJSON(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set(ctxCustomer, cust)
		c.Next()
	}
}

func currentCustomer(c *gin.Context) *domain.Customer {
	v, ok := c.Get(ctxCustomer)
	if !ok {
		return nil
	}
	cust, _ := v.(*domain.Customer)
	return cust
}

// requireStaff validates the admin JWT and stores its claims.
func requireStaff(svc StaffService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			errorJSON(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		claims, err := svc.ParseToken(token)
		if err != nil {
			errorJSON(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set(ctxStaffClaims, claims)
		c.Next()
	}
}

func staffClaims(c *gin.Context) *staffsvc.Claims {
	v, ok := c.Get(ctxStaffClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*staffsvc.Claims)
	return claims
}

func requirePermission(perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := staffClaims(c)
		if claims == nil || !claims.HasPermission(perm) {
			errorJSON(c, http.StatusForbidden, "missing permission "+perm)
			c.Abort()
			return
		}
		c.Next()
	}
}

// csrfProtect checks the X-CSRF-Token header on mutating admin requests.
func csrfProtect(signer *csrfSigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		claims := staffClaims(c)
		if claims == nil || !signer.verify(claims.UserID, c.GetHeader(headerCSRFToken)) {
			errorJSON(c, http.StatusForbidden, "missing or invalid csrf token")
			c.Abort()
			return
		}
		c.Next()
	}
}

// rateLimiter keeps a token bucket per client IP. Entries are never evicted;
// the auth endpoints see few distinct IPs per process lifetime.
type rateLimiter struct {
	mu      sync.Mutex
	perIP   map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
	enabled bool
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	return &rateLimiter{
		perIP:   make(map[string]*rate.Limiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		enabled: perSecond > 0 && burst > 0,
	}
}

func (r *rateLimiter) allow(ip string) bool {
	if !r.enabled {
		return true
	}
	r.mu.Lock()
	lim, ok := r.perIP[ip]
	if !ok {
		lim = rate.NewLimiter(r.limit, r.burst)
		r.perIP[ip] = lim
	}
	r.mu.Unlock()
	return lim.Allow()
}

func (r *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.allow(c.ClientIP()) {
			errorJSON(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
