package internal

import (
	"errors"
	"fmt"
	"net/url"

	"checkout/config"
	"checkout/entity"
)

// ErrInvalidConfig means a required redirect field is missing or empty.
var ErrInvalidConfig = errors.New("invalid redirect configuration")

// RedirectBuilder assembles signed hosted-payment-page URLs. Signing is
// local; the builder performs no network calls — loading the resulting
// URL into the frame is the caller's responsibility.
type RedirectBuilder struct {
	conf    *config.Config
	secrets *Secrets
}

func NewRedirectBuilder(conf *config.Config, secrets *Secrets) *RedirectBuilder {
	return &RedirectBuilder{
		conf:    conf,
		secrets: secrets,
	}
}

// BuildRedirectUrl composes the hosted tokenization page URL for one
// payment session: the full gateway parameter set, signed, with the
// signature appended as SHASIGNATURE.SHASIGN.
func (b *RedirectBuilder) BuildRedirectUrl(request *entity.RedirectRequest) (string, error) {
	if err := b.validate(request); err != nil {
		return "", err
	}
	if b.secrets == nil || b.secrets.ShaPhrase == "" {
		return "", ErrSecretsNotLoaded
	}

	method := request.PaymentMethod
	if method == "" {
		method = "CreditCard"
	}

	params := map[string]string{
		entity.ParamPspid:            b.conf.Merchant.Pspid,
		entity.ParamOrderId:          request.OrderId,
		entity.ParamAcceptUrl:        request.AcceptUrl,
		entity.ParamExceptionUrl:     request.ExceptionUrl,
		entity.ParamPaymentMethod:    method,
		entity.ParamTemplate:         b.conf.Merchant.Template,
		entity.ParamLanguage:         b.conf.Merchant.Language,
		entity.ParamStorePermanently: "Y",
	}

	signature, err := Sign(params, b.secrets.ShaPhrase)
	if err != nil {
		return "", fmt.Errorf("sign redirect parameters: %w", err)
	}

	query := url.Values{}
	for key, value := range params {
		query.Set(key, value)
	}
	query.Set(entity.ParamShaSignature, signature)

	pageUrl, err := url.Parse(b.conf.Gateway.HostedPageUrl)
	if err != nil {
		return "", fmt.Errorf("parse hosted page url: %w", err)
	}
	pageUrl.RawQuery = query.Encode()

	return pageUrl.String(), nil
}

func (b *RedirectBuilder) validate(request *entity.RedirectRequest) error {
	if request == nil {
		return fmt.Errorf("empty request: %w", ErrInvalidConfig)
	}
	if b.conf.Merchant.Pspid == "" {
		return fmt.Errorf("merchant id not configured: %w", ErrInvalidConfig)
	}
	if request.OrderId == "" {
		return fmt.Errorf("missing order id: %w", ErrInvalidConfig)
	}
	if request.AcceptUrl == "" {
		return fmt.Errorf("missing accept url: %w", ErrInvalidConfig)
	}
	if request.ExceptionUrl == "" {
		return fmt.Errorf("missing exception url: %w", ErrInvalidConfig)
	}
	return nil
}
