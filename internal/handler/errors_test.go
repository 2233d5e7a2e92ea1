package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"configuration", &service.CheckoutError{Kind: service.KindConfiguration, Message: "x"}, http.StatusServiceUnavailable, "configuration"},
		{"validation", &service.CheckoutError{Kind: service.KindValidation, Message: "x"}, http.StatusBadRequest, "validation"},
		{"transport", &service.CheckoutError{Kind: service.KindGatewayTransport, Message: "x"}, http.StatusBadGateway, "gateway_transport"},
		{"cancelled", &service.CheckoutError{Kind: service.KindUserCancelled, Message: "x"}, http.StatusConflict, "user_cancelled"},
		{"verification", &service.CheckoutError{Kind: service.KindVerificationFailure, Message: "x"}, http.StatusBadRequest, "verification_failure"},
		{"commit", fmt.Errorf("wrapped: %w", &service.CheckoutError{Kind: service.KindPostPaymentCommitFailure, Message: "x", PaymentID: "pay_9"}), http.StatusInternalServerError, "post_payment_commit_failure"},
		{"in progress", service.ErrCheckoutInProgress, http.StatusConflict, "Conflict"},
		{"not found", service.ErrOrderNotFound, http.StatusNotFound, "Not Found"},
	}

	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, respondError(c, tc.err))
			assert.Equal(t, tc.status, rec.Code)

			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.kind, body.Error)
		})
	}

	t.Run("commit failure carries payment id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, respondError(c, &service.CheckoutError{Kind: service.KindPostPaymentCommitFailure, Message: "m", PaymentID: "pay_9"}))
		assert.Contains(t, rec.Body.String(), `"payment_id":"pay_9"`)
	})

	t.Run("unknown errors pass through", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		boom := errors.New("boom")
		assert.Equal(t, boom, respondError(c, boom))
	})
}
