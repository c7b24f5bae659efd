package ghasedak

import "strings"

// Symbolic codes raised locally. They describe the same condition in every API
// generation.
const (
	CodeAPIKeyMissing      = "apikey_missing"
	CodeEmptyMessage       = "empty_message"
	CodeEmptyReceptor      = "empty_receptor"
	CodeInvalidPhoneNumber = "invalid_phone_number"
	CodeTemplateNotFound   = "template_not_found_in_config"
	CodeHTTPError          = "http_error"
	CodeSendFailed         = "send_failed"
	CodeSystemError        = "system_error"
	CodeMethodNotFound     = "method_not_found"
	CodeUnknown            = "unknown"
)

var symbolicMessages = map[string]string{
	CodeAPIKeyMissing:      "Ghasedak API key is not configured",
	CodeEmptyMessage:       "Message text cannot be empty",
	CodeEmptyReceptor:      "Recipient number cannot be empty",
	CodeInvalidPhoneNumber: "Invalid Iranian mobile number",
	CodeTemplateNotFound:   "Template not found in configuration",
	CodeHTTPError:          "HTTP request error",
	CodeSendFailed:         "SMS sending failed",
	CodeSystemError:        "System error occurred",
	CodeMethodNotFound:     "Request type is not supported by the Ghasedak channel",
}

// legacyMessages covers the form-encoded API. Besides numeric codes it answers
// with a handful of plain-text reasons.
var legacyMessages = map[string]string{
	"1":  "Invalid username or password",
	"2":  "Arrays are empty",
	"3":  "Array length is more than 100",
	"4":  "Sender, recipient and message text arrays do not match",
	"5":  "Unable to get new message",
	"6":  "Account is inactive or username/password is incorrect",
	"7":  "No access to the desired line",
	"8":  "Invalid recipient number",
	"9":  "Insufficient account balance",
	"10": "System error occurred. Please try again",
	"11": "Invalid IP address",
	"20": "Recipient number is filtered",
	"21": "Connection to service provider is disconnected",

	"invalid template":     "Invalid template name",
	"apikey is invalid":    "Invalid API key",
	"insufficient balance": "Insufficient balance",
	"invalid number":       "Invalid phone number",
}

// currentMessages covers the JSON gateway. Codes are HTTP-style and are not
// comparable with legacy codes.
var currentMessages = map[string]string{
	"400": "Invalid request parameters",
	"401": "Invalid or missing API key",
	"402": "Operation failed",
	"403": "Access denied",
	"404": "Requested resource not found",
	"405": "Method not allowed",
	"406": "Required fields are empty",
	"407": "Access to the requested line is not allowed",
	"408": "Sender line is not valid",
	"409": "Server is unable to respond at this time",
	"412": "Recipient count exceeds the allowed limit",
	"413": "Message text is too long",
	"414": "Request volume exceeds the allowed limit",
	"415": "Recipient number is not valid",
	"416": "Request IP address is not allowed",
	"417": "Send date is not valid",
	"418": "Insufficient account credit",
	"419": "Template parameters do not match",
	"420": "Links are not allowed in the message text",
	"421": "Template is not approved",
	"422": "Data could not be processed",
	"423": "Template not found",
	"424": "Template is inactive",
	"425": "Voice messages are not allowed for this template",
	"426": "Line is inactive",
	"428": "Duplicate client reference id",
	"429": "Too many requests",
	"500": "Gateway internal error",
	"503": "Gateway temporarily unavailable",
}

// Describe maps a code to a human readable message. Symbolic codes are looked up
// first, then the numeric table of the given generation. It never fails.
func Describe(gen Generation, code string) string {
	if msg, ok := lookup(gen, code); ok {
		return msg
	}
	return "Unknown error: " + strings.TrimSpace(code)
}

func lookup(gen Generation, code string) (string, bool) {
	code = strings.TrimSpace(code)
	if msg, ok := symbolicMessages[code]; ok {
		return msg, true
	}
	table := currentMessages
	if gen == GenerationLegacy {
		table = legacyMessages
		code = strings.ToLower(code)
	}
	msg, ok := table[code]
	return msg, ok
}
