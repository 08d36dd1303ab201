package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/party-planner-api/internal/errors"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/services"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing field", services.ErrFriendNameRequired, http.StatusBadRequest, apierrors.ErrCodeMissingField},
		{"bad format", fmt.Errorf("%w: %q", models.ErrInvalidRSVPStatus, "perhaps"), http.StatusBadRequest, apierrors.ErrCodeInvalidFormat},
		{"invalid input", services.ErrMessageTooLong, http.StatusBadRequest, apierrors.ErrCodeInvalidInput},
		{"admin only", services.ErrAdminRequired, http.StatusForbidden, apierrors.ErrCodeInsufficientPermissions},
		{"acting for another", services.ErrCannotActForOther, http.StatusForbidden, apierrors.ErrCodeForbidden},
		{"already invited", services.ErrAlreadyInvited, http.StatusConflict, apierrors.ErrCodeAlreadyExists},
		{"last admin", services.ErrCannotRemoveLastAdmin, http.StatusConflict, apierrors.ErrCodeConflict},
		{"friends disabled", services.ErrFriendInvitesDisabled, http.StatusConflict, apierrors.ErrCodeInvalidOperation},
		{"read only", services.ErrEventReadOnly, http.StatusConflict, apierrors.ErrCodeReadOnly},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, apierrors.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondServiceError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var apiErr apierrors.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}
