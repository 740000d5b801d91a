package handler

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// Billing clients call /api/billing/invoices, not /api/invoices.
func TestBillingRoutesMountedUnderBillingPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewBillingHandler(nil).RegisterRoutes(&router.RouterGroup)

	mounted := make(map[string]bool)
	for _, route := range router.Routes() {
		mounted[route.Method+" "+route.Path] = true
	}

	assert.True(t, mounted["GET /api/billing/invoices"])
	assert.True(t, mounted["GET /api/billing/invoices/:id"])
	assert.True(t, mounted["POST /api/billing/invoices"])
	assert.True(t, mounted["GET /api/billing/invoices/:id/pdf"])
	assert.True(t, mounted["GET /api/billing/invoices/:id/payments"])
	assert.True(t, mounted["POST /api/billing/invoices/:id/payments"])
}
