package internal

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gitee.com/golang-module/dongle"
)

var (
	// ErrNoSecret means the SHA phrase is empty. Signing must never
	// proceed without it: the result would verify against nothing.
	ErrNoSecret = errors.New("secret phrase not configured")
	// ErrBadSignature means an inbound signature did not match the
	// recomputed value.
	ErrBadSignature = errors.New("signature mismatch")
)

// Sign computes the gateway SHASIGN over a flat parameter set.
//
// The canonicalization is part of the gateway contract and must be
// reproduced exactly: keys sorted byte-wise ascending (case-sensitive,
// not locale-aware), each entry appended as "key=value" followed
// immediately by the secret phrase, no separators, SHA-256 over the
// UTF-8 bytes, hex digest uppercased.
func Sign(params map[string]string, secret string) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		if strings.Contains(key, secret) {
			return "", fmt.Errorf("parameter key %q embeds the secret phrase", key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(key)
		builder.WriteString("=")
		builder.WriteString(params[key])
		builder.WriteString(secret)
	}

	digest := dongle.Encrypt.FromString(builder.String()).BySha256().ToHexString()
	return strings.ToUpper(digest), nil
}

// VerifySignature recomputes the SHASIGN over params minus the
// signature field itself and compares it against the received value.
// Comparison is case-insensitive; gateways are not consistent about
// digest casing on the return leg.
func VerifySignature(params map[string]string, signatureField, secret string) error {
	received := ""
	filtered := make(map[string]string, len(params))
	for key, value := range params {
		if key == signatureField {
			received = value
			continue
		}
		filtered[key] = value
	}
	if received == "" {
		return fmt.Errorf("missing %s parameter: %w", signatureField, ErrBadSignature)
	}

	expected, err := Sign(filtered, secret)
	if err != nil {
		return err
	}
	if !strings.EqualFold(expected, received) {
		return ErrBadSignature
	}
	return nil
}

// FlattenParams converts a decoded JSON object into the flat string
// map the signing routine requires. JSON numbers arrive as float64 and
// are rendered without exponent notation so "100" stays "100".
func FlattenParams(params map[string]interface{}) map[string]string {
	flat := make(map[string]string, len(params))
	for key, value := range params {
		switch v := value.(type) {
		case string:
			flat[key] = v
		case float64:
			flat[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			flat[key] = strconv.FormatBool(v)
		case nil:
			flat[key] = ""
		default:
			flat[key] = fmt.Sprintf("%v", v)
		}
	}
	return flat
}
