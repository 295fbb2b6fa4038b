package entity

// Gateway parameter names for the hosted tokenization page. The names are
// part of the gateway's SHASIGN contract and must be reproduced exactly:
// they participate in signing byte-for-byte.
const (
	ParamPspid            = "ACCOUNT.PSPID"
	ParamOrderId          = "ALIAS.ORDERID"
	ParamStorePermanently = "ALIAS.STOREPERMANENTLY"
	ParamPaymentMethod    = "CARD.PAYMENTMETHOD"
	ParamTemplate         = "LAYOUT.TEMPLATENAME"
	ParamLanguage         = "LAYOUT.LANGUAGE"
	ParamAcceptUrl        = "PARAMETERS.ACCEPTURL"
	ParamExceptionUrl     = "PARAMETERS.EXCEPTIONURL"
	ParamShaSignature     = "SHASIGNATURE.SHASIGN"
)

// Redirect query parameters appended by the gateway when it navigates
// back to the accept or exception URL.
const (
	ReturnAliasId = "Alias.AliasId"
	ReturnOrderId = "Alias.OrderId"
	ReturnShaSign = "SHASign"
)

// RedirectRequest carries the per-session fields for building a hosted
// payment page URL. Merchant-level fields (PSPID, template, language)
// come from configuration; only the order binding and redirect targets
// vary per session.
type RedirectRequest struct {
	OrderId      string `json:"orderId"`
	AcceptUrl    string `json:"acceptUrl"`
	ExceptionUrl string `json:"exceptionUrl"`
	// Card payment method filter for the hosted form, e.g. "CreditCard"
	PaymentMethod string `json:"paymentMethod"`
}
