package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainErrors "github.com/cassiomorais/storefront/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		payload      any
		expectedBody string
	}{
		{
			name:         "simple map",
			status:       http.StatusOK,
			payload:      map[string]string{"message": "hello"},
			expectedBody: `{"message":"hello"}`,
		},
		{
			name:         "error response",
			status:       http.StatusBadRequest,
			payload:      ErrorResponse{Error: "bad request", Code: "invalid_input"},
			expectedBody: `{"error":"bad request","code":"invalid_input"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.status, tt.payload)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestWriteError_ValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainErrors.NewValidationError("email", "must be valid email")

	writeError(w, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	json.NewDecoder(w.Body).Decode(&response)
	assert.Equal(t, "validation_error", response.Code)
	assert.Contains(t, response.Error, "email")
}

func TestWriteError_DomainErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "product not found",
			err:            domainErrors.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   "not_found",
		},
		{
			name:           "order not found",
			err:            domainErrors.ErrOrderNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   "not_found",
		},
		{
			name: "insufficient stock via wrapped error",
			err: &domainErrors.OutOfStockError{
				ProductID:   3,
				ProductName: "Shirt",
				Requested:   2,
				Available:   1,
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "insufficient_stock",
		},
		{
			name:           "invalid state transition",
			err:            domainErrors.ErrInvalidStateTransition,
			expectedStatus: http.StatusConflict,
			expectedCode:   "invalid_state_transition",
		},
		{
			name:           "not requeueable",
			err:            domainErrors.ErrEventNotRequeueable,
			expectedStatus: http.StatusConflict,
			expectedCode:   "not_requeueable",
		},
		{
			name:           "unknown error is masked",
			err:            errors.New("pq: connection reset"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedCode, response.Code)
		})
	}
}

func TestWriteError_InternalErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, errors.New("password=hunter2 leaked into error"))

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "internal server error", response.Error)
	assert.NotContains(t, w.Body.String(), "hunter2")
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		body := `{"customer_id":1,"items":[{"product_id":2,"quantity":3}]}`
		r := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))

		var req PlaceOrderRequest
		require.NoError(t, decodeAndValidate(r, &req))
		assert.Equal(t, int64(1), req.CustomerID)
		require.Len(t, req.Items, 1)
		assert.Equal(t, 3, req.Items[0].Quantity)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{`))

		var req PlaceOrderRequest
		err := decodeAndValidate(r, &req)
		var ve *domainErrors.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("missing items", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"customer_id":1}`))

		var req PlaceOrderRequest
		err := decodeAndValidate(r, &req)
		var ve *domainErrors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Field, "Items")
	})

	t.Run("zero quantity", func(t *testing.T) {
		body := `{"customer_id":1,"items":[{"product_id":2,"quantity":0}]}`
		r := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte(body)))

		var req PlaceOrderRequest
		err := decodeAndValidate(r, &req)
		var ve *domainErrors.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestFloatCentsRoundTrip(t *testing.T) {
	assert.Equal(t, int64(5950), floatToCents(59.50))
	assert.Equal(t, int64(19), floatToCents(0.19))
	assert.Equal(t, 59.5, centsToFloat(5950))
}
