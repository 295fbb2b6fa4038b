package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"checkout/entity"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"
)

type testHarness struct {
	router   *httprouter.Router
	checkout *Checkout
	store    *MemoryStore
}

func newTestHarness(secrets *Secrets) *testHarness {
	conf := testConfig()
	store := NewMemoryStore()

	checkout := NewCheckout(conf, secrets)
	checkout.SetLogger(NewLogger("test", false, nil))
	checkout.SetDatabase(store)

	server := &Server{conf: conf}
	server.SetCheckoutService(checkout)
	server.SetLogger(NewLogger("test", false, nil))

	router := httprouter.New()
	server.Register(router)

	return &testHarness{router: router, checkout: checkout, store: store}
}

func (h *testHarness) post(t *testing.T, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	h.router.ServeHTTP(w, req)
	return w
}

func TestGetShasign(t *testing.T) {
	h := newTestHarness(&Secrets{ShaPhrase: "secretphrase"})

	w := h.post(t, "/get-shasign", `{"ORDERID":"ABC","AMOUNT":100}`)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Shasign string `json:"shasign"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, fixtureDigest, response.Shasign)
}

func TestGetShasignWithoutSecret(t *testing.T) {
	h := newTestHarness(&Secrets{})

	w := h.post(t, "/get-shasign", `{"ORDERID":"ABC"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetShasignBadBody(t *testing.T) {
	h := newTestHarness(&Secrets{ShaPhrase: "secretphrase"})

	w := h.post(t, "/get-shasign", `not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRedirectUrlEndpoint(t *testing.T) {
	h := newTestHarness(&Secrets{ShaPhrase: "secretphrase"})

	w := h.post(t, "/redirect-url", `{"orderId":"HLX-00042","acceptUrl":"`+testAcceptUrl+`","exceptionUrl":"`+testExceptionUrl+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Url string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Contains(t, response.Url, "SHASIGNATURE.SHASIGN")

	w = h.post(t, "/redirect-url", `{"orderId":"HLX-00042"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmPaymentMissingParameters(t *testing.T) {
	var calls int32
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer gateway.Close()

	h := newTestHarness(&Secrets{ShaPhrase: "secretphrase", GatewayUser: "u", GatewayPassword: "p"})
	h.checkout.directUrl = gateway.URL

	w := h.post(t, "/confirm-payment", `{"aliasId":"tok-1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.post(t, "/confirm-payment", `{"orderId":"ord-9"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// a caller error must never reach the gateway
	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestConfirmPayment(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "ord-9", r.PostForm.Get("ORDERID"))
		require.Equal(t, "tok-1", r.PostForm.Get("ALIAS"))
		require.Equal(t, "SAL", r.PostForm.Get("OPERATION"))
		require.NotEmpty(t, r.PostForm.Get("SHASIGN"))
		_, _ = w.Write([]byte(`<ncresponse orderID="ord-9" PAYID="3014093" STATUS="9" NCERROR="0"/>`))
	}))
	defer gateway.Close()

	h := newTestHarness(&Secrets{ShaPhrase: "secretphrase", GatewayUser: "u", GatewayPassword: "p"})
	h.checkout.directUrl = gateway.URL

	// snapshot captured from the accept redirect, with a valid inbound signature
	inbound, err := Sign(map[string]string{
		entity.ReturnAliasId: "tok-1",
		entity.ReturnOrderId: "ord-9",
	}, "secretphrase")
	require.NoError(t, err)
	require.NoError(t, h.store.SaveSnapshot(context.Background(), &entity.PaymentSessionSnapshot{
		OrderId: "ord-9",
		AliasId: "tok-1",
		ShaSign: inbound,
		Outcome: entity.OutcomeSucceeded,
		SavedAt: time.Now(),
	}))

	w := h.post(t, "/confirm-payment", `{"aliasId":"tok-1","orderId":"ord-9"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Success bool   `json:"success"`
		Result  string `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.True(t, response.Success)
	require.Contains(t, response.Result, `STATUS="9"`)

	records := h.store.Confirmations()
	require.Len(t, records, 1)
	require.Equal(t, "ord-9", records[0].OrderId)
	require.True(t, records[0].Success)
}

func TestConfirmPaymentRejectsTamperedSignature(t *testing.T) {
	var calls int32
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer gateway.Close()

	h := newTestHarness(&Secrets{ShaPhrase: "secretphrase", GatewayUser: "u", GatewayPassword: "p"})
	h.checkout.directUrl = gateway.URL

	require.NoError(t, h.store.SaveSnapshot(context.Background(), &entity.PaymentSessionSnapshot{
		OrderId: "ord-9",
		AliasId: "tok-1",
		ShaSign: "0000000000000000000000000000000000000000000000000000000000000000",
		Outcome: entity.OutcomeSucceeded,
		SavedAt: time.Now(),
	}))

	w := h.post(t, "/confirm-payment", `{"aliasId":"tok-1","orderId":"ord-9"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestConfirmPaymentProviderFailure(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer gateway.Close()

	h := newTestHarness(&Secrets{ShaPhrase: "secretphrase", GatewayUser: "u", GatewayPassword: "p"})
	h.checkout.directUrl = gateway.URL

	w := h.post(t, "/confirm-payment", `{"aliasId":"tok-1","orderId":"ord-9"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	// provider detail stays server-side
	require.NotContains(t, w.Body.String(), "gateway exploded")
	require.Contains(t, w.Body.String(), "payment provider unavailable")
}

func TestFrameEventEndpoint(t *testing.T) {
	h := newTestHarness(&Secrets{ShaPhrase: "secretphrase"})

	w := h.post(t, "/frame-event/ord-9", `{"flexMsg":"ready"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var status struct {
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Equal(t, "form_ready", status.State)

	w = h.post(t, "/frame-event/ord-9", `{"flexMsg":"submit"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Equal(t, "submitting", status.State)

	// submit again out of order: conflict, state unchanged
	w = h.post(t, "/frame-event/ord-9", `{"flexMsg":"submit"}`)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestSessionEndpoint(t *testing.T) {
	h := newTestHarness(&Secrets{ShaPhrase: "secretphrase"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session/ord-9", nil)
	h.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, h.store.SaveSnapshot(context.Background(), &entity.PaymentSessionSnapshot{
		OrderId: "ord-9",
		AliasId: "tok-1",
		Outcome: entity.OutcomeSucceeded,
		SavedAt: time.Now(),
	}))

	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session/ord-9", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot entity.PaymentSessionSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	require.Equal(t, "tok-1", snapshot.AliasId)
}
