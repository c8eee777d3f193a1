package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	cases := []struct {
		status int
		code   string
		kind   Kind
	}{
		{http.StatusBadRequest, ErrValidation.Code, KindValidation},
		{http.StatusUnprocessableEntity, ErrValidation.Code, KindValidation},
		{http.StatusNotFound, ErrNotFound.Code, KindNotFound},
		{http.StatusConflict, ErrConflict.Code, KindConflict},
		{http.StatusUnauthorized, ErrUnauthorized.Code, KindAuth},
		{http.StatusInternalServerError, ErrUpstream.Code, KindOther},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d", tc.status), func(t *testing.T) {
			err := FromStatus(tc.status, "")
			assert.Equal(t, tc.code, err.Code)
			assert.Equal(t, tc.status, err.Status)
			assert.Equal(t, tc.kind, err.Kind())
			assert.Equal(t, fmt.Sprintf("request failed with status %d", tc.status), err.Message)
		})
	}
}

func TestFromStatusKeepsServerMessage(t *testing.T) {
	err := FromStatus(http.StatusConflict, "  request already approved ")
	assert.Equal(t, "request already approved", err.Message)
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := Clone(ErrNotFound, "program not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))

	wrapped := fmt.Errorf("loading: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestWithFieldsCopies(t *testing.T) {
	fields := []FieldError{{Field: "title", Message: "is required"}}
	err := WithFields(ErrValidation, fields)
	require.Len(t, err.Fields, 1)
	assert.Empty(t, ErrValidation.Fields)

	fields[0].Message = "changed"
	assert.Equal(t, "is required", err.Fields[0].Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Nil(t, FromError(nil))
	assert.Equal(t, KindTransport, Clone(ErrTransport, "").Kind())
}
