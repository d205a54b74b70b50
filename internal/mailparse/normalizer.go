// Package mailparse absorbs the field-name drift of inbound-email providers.
// Every provider-specific key variant is listed in one precedence table; the
// rest of the pipeline only ever sees the canonical InboundMessage shape.
package mailparse

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// InboundMessage is the canonical, per-request shape of an inbound email.
// String fields are always defined, possibly empty. ProviderTimestamp is a
// unix timestamp, zero when the provider sent none.
type InboundMessage struct {
	SenderRaw         string
	SenderEmail       string
	SenderDisplayName string
	Subject           string
	BodyText          string
	BodyHTML          string
	RecipientAddress  string
	ProviderTimestamp int64
	ProviderToken     string
}

// fieldPrecedence lists accepted key variants per logical field, highest
// priority first. Providers disagree on naming and casing; extending this
// table is the supported way to absorb a new variant.
var fieldPrecedence = struct {
	sender    []string
	subject   []string
	bodyPlain []string
	bodyHTML  []string
	recipient []string
	timestamp []string
	token     []string
}{
	sender:    []string{"sender", "From", "from"},
	subject:   []string{"subject", "Subject"},
	bodyPlain: []string{"body-plain", "stripped-text", "text"},
	bodyHTML:  []string{"body-html", "html"},
	recipient: []string{"recipient", "To", "to"},
	timestamp: []string{"timestamp"},
	token:     []string{"token", "signature"},
}

// Normalize maps a provider form payload onto the canonical message.
func Normalize(form url.Values) InboundMessage {
	msg := InboundMessage{
		SenderRaw:        firstNonEmpty(form, fieldPrecedence.sender),
		Subject:          firstNonEmpty(form, fieldPrecedence.subject),
		RecipientAddress: firstNonEmpty(form, fieldPrecedence.recipient),
		ProviderToken:    firstNonEmpty(form, fieldPrecedence.token),
	}

	msg.SenderDisplayName, msg.SenderEmail = SplitAddress(msg.SenderRaw)

	msg.BodyText = firstNonEmpty(form, fieldPrecedence.bodyPlain)
	msg.BodyHTML = firstNonEmpty(form, fieldPrecedence.bodyHTML)
	if msg.BodyText == "" && msg.BodyHTML != "" {
		msg.BodyText = StripHTML(msg.BodyHTML)
	}

	if raw := firstNonEmpty(form, fieldPrecedence.timestamp); raw != "" {
		// Some providers send fractional seconds.
		if ts, err := strconv.ParseFloat(raw, 64); err == nil && ts > 0 {
			msg.ProviderTimestamp = int64(ts)
		}
	}

	return msg
}

func firstNonEmpty(form url.Values, keys []string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(form.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

// addressPattern tolerates the common `Display Name <email>` composite; the
// display part may be quoted and the angle brackets may hug the address.
var addressPattern = regexp.MustCompile(`^\s*"?([^"<>]*?)"?\s*<\s*([^<>\s]+@[^<>\s]+)\s*>\s*$`)

// SplitAddress separates a sender string into display name and bare address.
// Without an angle-bracket pattern the whole string is treated as the
// address; the display name is empty when nothing useful precedes it.
func SplitAddress(raw string) (displayName, email string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	if m := addressPattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), strings.ToLower(strings.TrimSpace(m[2]))
	}
	return "", strings.ToLower(raw)
}
