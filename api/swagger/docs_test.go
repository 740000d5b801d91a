package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredSpecRendersValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var spec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &spec))
	require.Equal(t, "2.0", spec["swagger"])

	paths, ok := spec["paths"].(map[string]interface{})
	require.True(t, ok)
	require.Contains(t, paths, "/api/purchase-orders/{id}")
	require.Contains(t, paths, "/api/billing/invoices/{id}/pdf")
	require.Contains(t, paths, "/api/billing/invoices/{id}/payments")
}
