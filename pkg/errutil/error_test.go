package errutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeClassification(t *testing.T) {
	require.Equal(t, StatusNotFound, Code(NotFound("sku not found", nil)))
	require.Equal(t, StatusConflict, Code(fmt.Errorf("wrapped: %w", Conflict("busy", nil))))
	require.Equal(t, StatusTimeout, Code(context.DeadlineExceeded))
	require.Equal(t, StatusInternal, Code(errors.New("boom")))
	require.Equal(t, CoreStatus(""), Code(nil))
}

func TestInternalJSONHidesCause(t *testing.T) {
	err := Internal("failed to update booking", errors.New("pq: deadlock detected"))

	var be BaseError
	require.True(t, errors.As(err, &be))

	body := be.JSON().(map[string]interface{})["error"].(map[string]interface{})
	require.Equal(t, "failed to update booking", body["message"])
	require.Contains(t, be.Error(), "deadlock")
}

func TestConflictJSONKeepsCause(t *testing.T) {
	err := Conflict("invalid transition", errors.New("completed -> accepted"))

	var be BaseError
	require.True(t, errors.As(err, &be))

	body := be.JSON().(map[string]interface{})["error"].(map[string]interface{})
	require.Equal(t, "invalid transition: completed -> accepted", body["message"])
}

func TestHTTPStatus(t *testing.T) {
	require.Equal(t, http.StatusNotFound, StatusNotFound.HTTPStatus())
	require.Equal(t, http.StatusConflict, StatusConflict.HTTPStatus())
	require.Equal(t, http.StatusUnprocessableEntity, StatusValidationFailed.HTTPStatus())
	require.Equal(t, http.StatusInternalServerError, StatusInternal.HTTPStatus())
}
