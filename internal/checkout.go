package internal

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"checkout/config"
	"checkout/entity"
	"checkout/services"
)

var (
	// ErrMissingParameters means the confirmation call lacked an alias
	// or order identifier. No network call is made in that case.
	ErrMissingParameters = errors.New("missing alias or order id")
	// ErrProvider wraps gateway or network failures on the direct API.
	// Callers see a redacted message; the full detail is logged.
	ErrProvider = errors.New("payment provider error")
)

// Checkout is the payment core: SHASIGN computation, redirect building,
// per-order frame controllers and server-to-server confirmation.
// One instance serves the whole process.
type Checkout struct {
	conf        *config.Config
	secrets     *Secrets
	database    services.Database
	logger      services.LogHandler
	builder     *RedirectBuilder
	controllers sync.Map // map[string]*FrameController keyed by order id
	httpClient  *http.Client
	directUrl   string
}

// NewCheckout creates the payment core with a tuned HTTP client for
// direct API calls. The confirmation POST is bounded by the client
// timeout; a confirmation that outlives it surfaces as a provider
// error rather than hanging the request.
func NewCheckout(conf *config.Config, secrets *Secrets) *Checkout {
	return &Checkout{
		conf:      conf,
		secrets:   secrets,
		builder:   NewRedirectBuilder(conf, secrets),
		directUrl: conf.Gateway.DirectApiUrl,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Checkout) SetDatabase(database services.Database) {
	c.database = database
}

func (c *Checkout) SetLogger(logger services.LogHandler) {
	c.logger = logger
}

// Shasign computes the gateway signature over an arbitrary flat
// parameter set using the cached secret phrase.
func (c *Checkout) Shasign(_ context.Context, params map[string]string) (string, error) {
	if c.secrets == nil || c.secrets.ShaPhrase == "" {
		return "", ErrSecretsNotLoaded
	}
	return Sign(params, c.secrets.ShaPhrase)
}

// BuildRedirectUrl returns a signed hosted-payment-page URL for one
// payment session.
func (c *Checkout) BuildRedirectUrl(_ context.Context, request *entity.RedirectRequest) (string, error) {
	return c.builder.BuildRedirectUrl(request)
}

// FrameEvent routes one cross-frame message to the controller owning
// the order, creating and starting the controller on first contact.
// A submit message comes from the application side and triggers the
// FormReady -> Submitting transition; everything else is frame output.
func (c *Checkout) FrameEvent(ctx context.Context, orderId string, raw []byte, origin string) (*services.FrameStatus, error) {
	controller := c.controller(ctx, orderId)

	if msg, err := entity.DecodeFrameMessage(raw); err == nil && msg.FlexMsg == entity.FrameSubmit {
		if _, err := controller.Submit(); err != nil {
			return nil, err
		}
	} else if err := controller.Handle(ctx, raw, origin); err != nil {
		return nil, err
	}

	return &services.FrameStatus{
		State:     controller.State().String(),
		Height:    controller.Height(),
		ErrorCode: controller.ErrorCode(),
	}, nil
}

// Session returns the persisted snapshot for an order, if any.
func (c *Checkout) Session(ctx context.Context, orderId string) (*entity.PaymentSessionSnapshot, error) {
	if c.database == nil {
		return nil, fmt.Errorf("database not set")
	}
	return c.database.GetSnapshot(ctx, orderId)
}

func (c *Checkout) controller(ctx context.Context, orderId string) *FrameController {
	value, loaded := c.controllers.LoadOrStore(orderId, NewFrameController(
		orderId,
		c.conf.Gateway.AcceptUrl,
		c.conf.Gateway.ExceptionUrl,
		c.conf.FrameOriginList(),
		c.database,
		c.logger,
	))
	controller := value.(*FrameController)
	if !loaded {
		controller.Start(ctx)
	}
	return controller
}

// ConfirmPayment replays a minimal signed request to the gateway's
// direct API to finalize the payment for an alias/order pair extracted
// from the accept redirect. The inbound redirect signature is verified
// against the persisted snapshot before any capture is issued; the
// alias is never relayed to the gateway on mere client say-so.
func (c *Checkout) ConfirmPayment(ctx context.Context, aliasId, orderId string) (*entity.ConfirmResult, error) {
	if aliasId == "" || orderId == "" {
		return nil, ErrMissingParameters
	}
	if c.secrets == nil || c.secrets.ShaPhrase == "" {
		return nil, ErrSecretsNotLoaded
	}

	if err := c.verifyInbound(ctx, aliasId, orderId); err != nil {
		return nil, err
	}

	params := map[string]string{
		"PSPID":      c.conf.Merchant.Pspid,
		"USERID":     c.secrets.GatewayUser,
		"PSWD":       c.secrets.GatewayPassword,
		"ORDERID":    orderId,
		"ALIAS":      aliasId,
		"AMOUNT":     c.conf.Merchant.Amount,
		"CURRENCY":   c.conf.Merchant.Currency,
		"OPERATION":  c.conf.Merchant.Operation,
		"ALIASUSAGE": c.conf.Merchant.AliasUsage,
	}
	signature, err := Sign(params, c.secrets.ShaPhrase)
	if err != nil {
		return nil, fmt.Errorf("sign confirmation: %w", err)
	}

	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}
	form.Set("SHASIGN", signature)

	body, err := c.postForm(ctx, form)
	if err != nil {
		c.logger.Error(fmt.Sprintf("confirm order %s", orderId), err)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	result := c.readDirectResponse(body)
	c.saveConfirmation(ctx, aliasId, orderId, result)

	return result, nil
}

// verifyInbound checks the SHASIGN the gateway attached to the accept
// redirect, as captured in the session snapshot. A missing snapshot or
// an unsigned snapshot is tolerated (the gateway contract does not
// sign every return leg); a present signature that fails to verify is
// fatal for the confirmation.
func (c *Checkout) verifyInbound(ctx context.Context, aliasId, orderId string) error {
	if c.database == nil {
		return nil
	}
	snapshot, err := c.database.GetSnapshot(ctx, orderId)
	if err != nil || snapshot == nil || snapshot.ShaSign == "" {
		return nil
	}

	params := map[string]string{
		entity.ReturnAliasId: aliasId,
		entity.ReturnOrderId: orderId,
		entity.ReturnShaSign: snapshot.ShaSign,
	}
	if err := VerifySignature(params, entity.ReturnShaSign, c.secrets.ShaPhrase); err != nil {
		c.logger.Warn(fmt.Sprintf("order %s: inbound signature rejected", orderId))
		return err
	}
	return nil
}

func (c *Checkout) postForm(ctx context.Context, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.directUrl, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request timeout or cancelled: %v", ctx.Err())
		}
		return nil, fmt.Errorf("post request: %v", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Error("close response body", err)
		}
	}(response.Body)

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %v", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("gateway status %d: %s", response.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// readDirectResponse parses the ncresponse XML; an unparseable body is
// still returned raw so the caller can reconcile manually.
func (c *Checkout) readDirectResponse(body []byte) *entity.ConfirmResult {
	raw := string(body)

	var parsed entity.DirectResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		c.logger.Warn(fmt.Sprintf("unrecognized direct response: %s", raw))
		return &entity.ConfirmResult{Success: false, Raw: raw}
	}

	c.logger.Info(fmt.Sprintf("direct response: order %s; status %s; ncerror %s", parsed.OrderId, parsed.Status, parsed.NcError))
	return &entity.ConfirmResult{
		Success: parsed.Accepted(),
		Status:  parsed.Status,
		PayId:   parsed.PayId,
		Raw:     raw,
	}
}

func (c *Checkout) saveConfirmation(ctx context.Context, aliasId, orderId string, result *entity.ConfirmResult) {
	if c.database == nil {
		return
	}
	record := &entity.ConfirmRecord{
		OrderId: orderId,
		AliasId: aliasId,
		Status:  result.Status,
		PayId:   result.PayId,
		Raw:     result.Raw,
		Success: result.Success,
		SavedAt: time.Now(),
	}
	if err := c.database.SaveConfirmation(ctx, record); err != nil {
		c.logger.Error("save confirmation record", err)
	}
}
