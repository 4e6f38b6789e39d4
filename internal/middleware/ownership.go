package middleware

import (
	"context"
	"errors"
	"net/http"

	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrResourceNotFound is returned by OwnerLookup implementations for unknown ids.
var ErrResourceNotFound = errors.New("resource not found")

// OwnerLookup resolves the owner of a resource.
type OwnerLookup interface {
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// RequireOwner verifies the caller owns the resource named by URL param.
func RequireOwner(lookup OwnerLookup, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
			return
		}

		resourceID, err := uuid.Parse(c.Param(param))
		if err != nil {
			response.Abort(c, http.StatusBadRequest, response.CodeValidation, "Invalid "+param)
			return
		}

		ownerID, err := lookup.OwnerOf(c.Request.Context(), resourceID)
		if errors.Is(err, ErrResourceNotFound) {
			response.Abort(c, http.StatusNotFound, response.CodeNotFound, "Resource not found")
			return
		}
		if err != nil {
			_ = c.Error(err)
			response.Abort(c, http.StatusInternalServerError, response.CodeInternal, "Failed to resolve owner")
			return
		}

		if ownerID != userID {
			response.Abort(c, http.StatusForbidden, response.CodeForbidden, "You don't own this resource")
			return
		}

		c.Next()
	}
}
