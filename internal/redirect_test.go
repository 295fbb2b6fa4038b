package internal

import (
	"net/url"
	"testing"

	"checkout/config"
	"checkout/entity"

	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	conf := &config.Config{}
	conf.Gateway.HostedPageUrl = "https://payments.epdq.co.uk/Tokenization/HostedPage"
	conf.Gateway.DirectApiUrl = "https://payments.epdq.co.uk/ncol/prod/orderdirect.asp"
	conf.Gateway.AcceptUrl = testAcceptUrl
	conf.Gateway.ExceptionUrl = testExceptionUrl
	conf.Merchant.Pspid = "epdq1234"
	conf.Merchant.Template = "master-template"
	conf.Merchant.Language = "en_GB"
	conf.Merchant.Currency = "GBP"
	conf.Merchant.Amount = "1"
	conf.Merchant.Operation = "SAL"
	conf.Merchant.AliasUsage = "Client intake payment"
	return conf
}

func TestBuildRedirectUrl(t *testing.T) {
	secrets := &Secrets{ShaPhrase: "secretphrase"}
	builder := NewRedirectBuilder(testConfig(), secrets)

	composed, err := builder.BuildRedirectUrl(&entity.RedirectRequest{
		OrderId:      "HLX-00042",
		AcceptUrl:    testAcceptUrl,
		ExceptionUrl: testExceptionUrl,
	})
	require.NoError(t, err)

	parsed, err := url.Parse(composed)
	require.NoError(t, err)
	require.Equal(t, "payments.epdq.co.uk", parsed.Host)

	query := parsed.Query()
	require.Equal(t, "epdq1234", query.Get(entity.ParamPspid))
	require.Equal(t, "HLX-00042", query.Get(entity.ParamOrderId))
	require.Equal(t, testAcceptUrl, query.Get(entity.ParamAcceptUrl))
	require.Equal(t, testExceptionUrl, query.Get(entity.ParamExceptionUrl))
	require.Equal(t, "CreditCard", query.Get(entity.ParamPaymentMethod))
	require.Equal(t, "Y", query.Get(entity.ParamStorePermanently))

	// the appended signature must cover exactly the other parameters
	params := map[string]string{}
	for key, values := range query {
		if key == entity.ParamShaSignature {
			continue
		}
		params[key] = values[0]
	}
	expected, err := Sign(params, "secretphrase")
	require.NoError(t, err)
	require.Equal(t, expected, query.Get(entity.ParamShaSignature))
}

func TestBuildRedirectUrlMissingFields(t *testing.T) {
	builder := NewRedirectBuilder(testConfig(), &Secrets{ShaPhrase: "secretphrase"})

	cases := []entity.RedirectRequest{
		{AcceptUrl: testAcceptUrl, ExceptionUrl: testExceptionUrl},
		{OrderId: "HLX-00042", ExceptionUrl: testExceptionUrl},
		{OrderId: "HLX-00042", AcceptUrl: testAcceptUrl},
	}
	for _, request := range cases {
		request := request
		_, err := builder.BuildRedirectUrl(&request)
		require.ErrorIs(t, err, ErrInvalidConfig)
	}

	_, err := builder.BuildRedirectUrl(nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBuildRedirectUrlWithoutSecrets(t *testing.T) {
	builder := NewRedirectBuilder(testConfig(), &Secrets{})

	_, err := builder.BuildRedirectUrl(&entity.RedirectRequest{
		OrderId:      "HLX-00042",
		AcceptUrl:    testAcceptUrl,
		ExceptionUrl: testExceptionUrl,
	})
	require.ErrorIs(t, err, ErrSecretsNotLoaded)
}
