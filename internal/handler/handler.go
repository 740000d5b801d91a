package handler

import (
	"github.com/chainsense/backend/pkg/apperror"
	"github.com/chainsense/backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Role groupings reused across route registrations
var (
	staffRoles = []string{"admin", "manager", "staff"}
	allRoles   = []string{"admin", "manager", "staff", "vendor"}
	adminRoles = []string{"admin", "manager"}
)

// fail maps a service error onto the standard envelope
func fail(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// parseID extracts and validates the :id path parameter. On failure the
// 400 has already been written and ok is false.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(400, response.Error(400, "Invalid id parameter"))
		return uuid.Nil, false
	}
	return id, true
}
