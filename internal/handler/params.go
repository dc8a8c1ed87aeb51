package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/unirecords/university-api/pkg/errors"
	"github.com/unirecords/university-api/pkg/response"
)

// pathID parses a positive integer path parameter, responding with a
// validation error and returning false when it is malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" parameter"))
		return 0, false
	}
	return id, true
}
