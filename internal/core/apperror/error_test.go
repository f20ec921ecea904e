package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusByKind(t *testing.T) {
	cases := map[int]*AppError{
		http.StatusBadRequest:          NewValidation("bad"),
		http.StatusNotFound:            NewNotFound("GoodsReceipt", "x"),
		http.StatusConflict:            NewInvalidTransition("GoodsReceipt", "COMPLETED", "approve"),
		http.StatusUnprocessableEntity: NewQuantityMismatch("10", "5", "4"),
		http.StatusInternalServerError: NewInternal(errors.New("boom")),
		http.StatusUnauthorized:        NewUnauthorized("no token"),
	}
	for status, err := range cases {
		assert.Equal(t, status, err.HTTPStatus, err.Code)
	}
	assert.Equal(t, http.StatusConflict, NewDuplicateNumber("GoodsReceipt", "GRN-202610-0001").HTTPStatus)
	assert.Equal(t, http.StatusUnprocessableEntity, NewBusinessRule(CodeConflict, "closed").HTTPStatus)
}

func TestWrappedErrorsKeepTheirCode(t *testing.T) {
	err := fmt.Errorf("approve: %w", NewNotReadyForApproval([]string{"item-1"}))

	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"item-1"}, appErr.Details["pending_items"])
	assert.True(t, IsCode(err, CodeNotReadyForApproval))
	assert.ErrorIs(t, err, New(CodeNotReadyForApproval, ""))
	assert.False(t, IsNotFound(err))

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}

func TestCauseIsNotRendered(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error", err.Message)
	assert.Contains(t, err.Error(), "connection reset")
}
