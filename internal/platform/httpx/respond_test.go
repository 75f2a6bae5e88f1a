package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("lead 7: %w", ErrNotFound):    http.StatusNotFound,
		fmt.Errorf("sku taken: %w", ErrDuplicate): http.StatusConflict,
		ErrConflict:                               http.StatusConflict,
		ErrValidation:                             http.StatusBadRequest,
		ErrForbidden:                              http.StatusForbidden,
		ErrUnauthorized:                           http.StatusUnauthorized,
		fmt.Errorf("boom"):                        http.StatusInternalServerError,
	}
	for err, want := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, err)
		assert.Equal(t, want, rr.Code, err.Error())
	}
}

func TestValidationProblemUsesJSONNames(t *testing.T) {
	type payload struct {
		ProductSKU string `json:"productSku" validate:"required"`
	}
	err := NewValidator().Struct(payload{})
	require.Error(t, err)

	rr := httptest.NewRecorder()
	ValidationProblem(rr, err)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "required", body.Fields["productSku"])
}

func TestDecodeJSONEmptyBodyIsNoop(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	var target struct{ Name string }
	require.NoError(t, DecodeJSON(req, &target))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, ErrValidation)
}
