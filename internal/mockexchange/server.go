// Package mockexchange is an in-process fake CLOB exchange used by
// gateway tests. It checks the literal POLY_* header sets and replays
// scripted responses.
package mockexchange

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// TestSecret is a valid base64 HMAC secret the fake exchange hands out.
const TestSecret = "dGVzdC1zZWNyZXQtdGVzdC1zZWNyZXQtMTIzNDU2Nzg="

// Response is a scripted reply. A zero Response means "use the default".
type Response struct {
	Status int
	Body   any
}

func (r Response) or(status int, body any) (int, any) {
	if r.Status == 0 && r.Body == nil {
		return status, body
	}
	s := r.Status
	if s == 0 {
		s = status
	}
	b := r.Body
	if b == nil {
		b = body
	}
	return s, b
}

// Server scripts the exchange surface the trading gateway talks to.
type Server struct {
	Derive       Response
	Create       Response
	Place        Response
	Cancel       Response
	CancelAll    Response
	CancelBulk   Response
	CancelMarket Response
	OpenOrders   Response
	Trades       Response

	DeriveCount       atomic.Int32
	CreateCount       atomic.Int32
	PlaceCount        atomic.Int32
	CancelCount       atomic.Int32
	CancelMarketCount atomic.Int32

	// LastOrderBody holds the most recent decoded POST /order payload
	LastOrderBody map[string]any
}

// New returns a fake exchange with default happy-path behavior.
func New() *Server {
	gin.SetMode(gin.TestMode)
	return &Server{}
}

// Router builds the gin engine serving the exchange endpoints.
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	r.GET("/auth/derive-api-key", func(c *gin.Context) {
		if !hasL1Headers(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED"})
			return
		}
		s.DeriveCount.Add(1)
		status, body := s.Derive.or(http.StatusOK, gin.H{
			"apiKey":     "derived-key",
			"secret":     TestSecret,
			"passphrase": "derived-pass",
		})
		c.JSON(status, body)
	})

	r.POST("/auth/api-key", func(c *gin.Context) {
		if !hasL1Headers(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED"})
			return
		}
		s.CreateCount.Add(1)
		status, body := s.Create.or(http.StatusOK, gin.H{
			"apiKey":     "created-key",
			"secret":     TestSecret,
			"passphrase": "created-pass",
		})
		c.JSON(status, body)
	})

	r.POST("/order", func(c *gin.Context) {
		if !hasL2Headers(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED"})
			return
		}
		s.PlaceCount.Add(1)
		var payload map[string]any
		_ = c.ShouldBindJSON(&payload)
		s.LastOrderBody = payload
		status, body := s.Place.or(http.StatusOK, gin.H{
			"success": true,
			"orderId": "0xorder1",
			"status":  "live",
		})
		c.JSON(status, body)
	})

	r.DELETE("/order", func(c *gin.Context) {
		if !hasL2Headers(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED"})
			return
		}
		s.CancelCount.Add(1)
		var payload struct {
			OrderID string `json:"orderID"`
		}
		_ = c.ShouldBindJSON(&payload)
		status, body := s.Cancel.or(http.StatusOK, gin.H{
			"canceled":     []string{payload.OrderID},
			"not_canceled": gin.H{},
		})
		c.JSON(status, body)
	})

	r.DELETE("/cancel-all", func(c *gin.Context) {
		if !hasL2Headers(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED"})
			return
		}
		status, body := s.CancelAll.or(http.StatusOK, gin.H{
			"canceled":     []string{},
			"not_canceled": gin.H{},
		})
		c.JSON(status, body)
	})

	r.DELETE("/orders", func(c *gin.Context) {
		if !hasL2Headers(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED"})
			return
		}
		var ids []string
		_ = c.ShouldBindJSON(&ids)
		status, body := s.CancelBulk.or(http.StatusOK, gin.H{
			"canceled":     ids,
			"not_canceled": gin.H{},
		})
		c.JSON(status, body)
	})

	r.DELETE("/cancel-market-orders", func(c *gin.Context) {
		if !hasL2Headers(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED"})
			return
		}
		s.CancelMarketCount.Add(1)
		status, body := s.CancelMarket.or(http.StatusOK, gin.H{
			"canceled":     []string{},
			"not_canceled": gin.H{},
		})
		c.JSON(status, body)
	})

	r.GET("/data/orders", func(c *gin.Context) {
		if !hasL2Headers(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED"})
			return
		}
		status, body := s.OpenOrders.or(http.StatusOK, []any{})
		c.JSON(status, body)
	})

	r.GET("/data/trades", func(c *gin.Context) {
		if !hasL2Headers(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED"})
			return
		}
		status, body := s.Trades.or(http.StatusOK, []any{})
		c.JSON(status, body)
	})

	return r
}

func hasL1Headers(c *gin.Context) bool {
	for _, h := range []string{"POLY_ADDRESS", "POLY_SIGNATURE", "POLY_TIMESTAMP", "POLY_NONCE"} {
		if c.GetHeader(h) == "" {
			return false
		}
	}
	return true
}

func hasL2Headers(c *gin.Context) bool {
	for _, h := range []string{"POLY_ADDRESS", "POLY_SIGNATURE", "POLY_TIMESTAMP", "POLY_API_KEY", "POLY_PASSPHRASE"} {
		if c.GetHeader(h) == "" {
			return false
		}
	}
	return true
}
