// Package ginadapter exposes the payment middleware as a Gin handler.
package ginadapter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlibx402/go-x402/pkg/middleware/payment"
)

// PaymentMiddleware creates a Gin handler guarding routes behind an x402
// payment demand.
func PaymentMiddleware(opts payment.Options) (gin.HandlerFunc, error) {
	standardMiddleware, err := payment.New(opts)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		handler := standardMiddleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, c.Request)

		if c.Writer.Written() {
			c.Abort()
		}
	}, nil
}
