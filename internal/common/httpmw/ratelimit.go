package httpmw

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/noriskclient/launcherd/internal/common/errors"
)

// RateLimit rejects requests with 429 once the token bucket is empty.
// A non-positive rate disables limiting.
func RateLimit(perSecond float64, burst int) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			appErr := errors.RateLimited("Too many requests, please try again later")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}
		c.Next()
	}
}
