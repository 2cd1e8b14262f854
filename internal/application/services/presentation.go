package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MaxDisplayNameLength is the longest name shown in a list card
	MaxDisplayNameLength = 16

	// DefaultMessagingBaseURL is the WhatsApp deep link host
	DefaultMessagingBaseURL = "https://wa.me"

	// DefaultCurrencyLabel follows every displayed price
	DefaultCurrencyLabel = "kz"

	contactGreeting = "Olá"
)

// Presenter renders discovery results for display and builds contact links
type Presenter struct {
	currencyLabel    string
	messagingBaseURL string
}

// NewPresenter creates a presenter. Empty values fall back to the defaults.
func NewPresenter(currencyLabel, messagingBaseURL string) *Presenter {
	if currencyLabel == "" {
		currencyLabel = DefaultCurrencyLabel
	}
	if messagingBaseURL == "" {
		messagingBaseURL = DefaultMessagingBaseURL
	}
	return &Presenter{
		currencyLabel:    currencyLabel,
		messagingBaseURL: strings.TrimRight(messagingBaseURL, "/"),
	}
}

// FormatPrice renders price with the configured currency label
func (p *Presenter) FormatPrice(price float64) string {
	return FormatPrice(price, p.currencyLabel)
}

// ContactLink builds the deep link for phone and message
func (p *Presenter) ContactLink(phone, message string) string {
	return BuildContactLink(p.messagingBaseURL, phone, message)
}

// TruncateName shortens names longer than MaxDisplayNameLength characters
// and marks the cut with "...".
func TruncateName(name string) string {
	if utf8.RuneCountInString(name) <= MaxDisplayNameLength {
		return name
	}
	runes := []rune(name)
	return string(runes[:MaxDisplayNameLength]) + "..."
}

// FormatPrice renders price as a bare number followed by label, e.g. "1500 kz".
func FormatPrice(price float64, label string) string {
	return fmt.Sprintf("%s %s", strconv.FormatFloat(price, 'f', -1, 64), label)
}

// DigitsOnly strips every non-digit character from phone
func DigitsOnly(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// EncodeMessage percent-encodes message for a query value, with spaces as %20.
func EncodeMessage(message string) string {
	return strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}

// BuildContactLink returns "<base>/<digits>?text=<encoded message>".
// The phone number is not validated.
func BuildContactLink(base, phone, message string) string {
	return fmt.Sprintf("%s/%s?text=%s", strings.TrimRight(base, "/"), DigitsOnly(phone), EncodeMessage(message))
}

// ServiceContactMessage is the message sent when contacting about a service.
// The institution id prefix lets the institution attribute the lead.
func ServiceContactMessage(institutionID, serviceName string) string {
	return fmt.Sprintf("%s %s, tenho interesse no serviço: %s", institutionID, contactGreeting, serviceName)
}

// InstitutionContactMessage is the message sent when contacting an institution
func InstitutionContactMessage(institutionName string) string {
	return strings.TrimSpace(contactGreeting + " " + institutionName)
}
