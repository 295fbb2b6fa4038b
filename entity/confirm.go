package entity

import "time"

// DirectResponse is the XML body returned by the gateway's direct
// (server-to-server) API.
//
//	<ncresponse orderID="ord-1" PAYID="123" STATUS="9" NCERROR="0" .../>
//
// STATUS "9" is payment requested; "5" is authorized. Anything else is
// treated as a declined or errored capture.
type DirectResponse struct {
	OrderId string `xml:"orderID,attr"`
	PayId   string `xml:"PAYID,attr"`
	Status  string `xml:"STATUS,attr"`
	NcError string `xml:"NCERROR,attr"`
}

// Accepted reports whether the direct API accepted the operation.
func (r *DirectResponse) Accepted() bool {
	return r != nil && (r.Status == "9" || r.Status == "5")
}

// ConfirmResult is returned to the caller of the confirmation endpoint.
// Raw carries the unparsed provider body so the caller can reconcile
// against gateway reports.
type ConfirmResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	PayId   string `json:"pay_id,omitempty"`
	Raw     string `json:"result"`
}

// ConfirmRecord is the stored trace of one confirmation call.
type ConfirmRecord struct {
	OrderId string    `json:"order_id" bson:"order_id"`
	AliasId string    `json:"alias_id" bson:"alias_id"`
	Status  string    `json:"status" bson:"status"`
	PayId   string    `json:"pay_id" bson:"pay_id"`
	Raw     string    `json:"raw" bson:"raw"`
	Success bool      `json:"success" bson:"success"`
	SavedAt time.Time `json:"saved_at" bson:"saved_at"`
}
