package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/newrestaurant/utils"
	"golang.org/x/time/rate"
)

// CheckoutRateLimiter throttles checkout attempts across all clients, since
// each one holds a simulated payment open.
func CheckoutRateLimiter(perSecond float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			utils.RespondJSON(c, http.StatusTooManyRequests, "please wait before making another checkout request", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func LogCheckoutRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"user_id":  c.GetUint("user_id"),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}
		if c.Writer.Status() == http.StatusOK {
			utils.InfoLogger.WithFields(fields).Info("Checkout completed")
		} else {
			utils.ErrorLogger.WithFields(fields).Warn("Checkout not completed")
		}
	}
}
