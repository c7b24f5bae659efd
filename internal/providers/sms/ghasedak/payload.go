package ghasedak

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	maxCurrentTemplateParams = 10
	maxLegacyTemplateParams  = 3
)

// outbound is a fully built provider request.
type outbound struct {
	kind        RequestKind
	method      string
	endpoint    string
	contentType string
	header      http.Header
	body        []byte
}

// dialect builds requests and interprets responses for one API generation.
// Recipients passed to a dialect are already normalized and parameters already
// sanitized.
type dialect interface {
	template(recipient, templateName string, params []string) (*outbound, error)
	simple(recipient, message, sender string, sendAt *time.Time, referenceIDs []string) (*outbound, error)
	otp(receptors []Receptor, templateName string, req OTPSend) (*outbound, error)
	accountInfo() (*outbound, error)
	interpret(kind RequestKind, status int, body []byte) (*Response, error)
}

func newDialect(cfg Config, logger zerolog.Logger, newID func() string) dialect {
	if cfg.Generation == GenerationLegacy {
		return &legacyDialect{apiKey: cfg.APIKey, endpoints: cfg.Endpoints, logger: logger}
	}
	return &currentDialect{apiKey: cfg.APIKey, endpoints: cfg.Endpoints, logger: logger, newID: newID}
}

type currentDialect struct {
	apiKey    string
	endpoints Endpoints
	logger    zerolog.Logger
	newID     func() string
}

type currentSimpleBody struct {
	Message           string `json:"message"`
	Receptor          string `json:"receptor"`
	Sender            string `json:"sender"`
	ClientReferenceID string `json:"clientReferenceId"`
	UDH               bool   `json:"udh"`
	SendDate          string `json:"sendDate,omitempty"`
}

type currentOTPBody struct {
	Receptors    []Receptor `json:"receptors"`
	TemplateName string     `json:"templateName"`
	Inputs       []Input    `json:"inputs"`
	IsVoice      bool       `json:"isVoice"`
	UDH          bool       `json:"udh"`
	SendDate     string     `json:"sendDate,omitempty"`
}

func (d *currentDialect) template(recipient, templateName string, params []string) (*outbound, error) {
	if len(params) > maxCurrentTemplateParams {
		d.logger.Warn().
			Int("given", len(params)).
			Int("max", maxCurrentTemplateParams).
			Str("template", templateName).
			Msg("ghasedak: extra template parameters dropped")
		params = params[:maxCurrentTemplateParams]
	}

	body := map[string]any{
		"receptors":    []Receptor{{Mobile: recipient, ClientReferenceID: d.newID()}},
		"templateName": templateName,
		"isVoice":      false,
		"udh":          false,
	}
	for i, p := range params {
		body["param"+strconv.Itoa(i+1)] = p
	}
	return d.jsonRequest(KindTemplate, d.endpoints.Template, body)
}

func (d *currentDialect) simple(recipient, message, sender string, sendAt *time.Time, referenceIDs []string) (*outbound, error) {
	body := currentSimpleBody{
		Message:           message,
		Receptor:          recipient,
		Sender:            sender,
		ClientReferenceID: firstNonEmpty(referenceIDs),
		SendDate:          formatSendDate(sendAt),
	}
	if body.ClientReferenceID == "" {
		body.ClientReferenceID = d.newID()
	}
	return d.jsonRequest(KindSimple, d.endpoints.Simple, body)
}

func (d *currentDialect) otp(receptors []Receptor, templateName string, req OTPSend) (*outbound, error) {
	filled := make([]Receptor, len(receptors))
	for i, r := range receptors {
		if strings.TrimSpace(r.ClientReferenceID) == "" {
			r.ClientReferenceID = d.newID()
		}
		filled[i] = r
	}
	inputs := req.Inputs
	if inputs == nil {
		inputs = []Input{}
	}
	body := currentOTPBody{
		Receptors:    filled,
		TemplateName: templateName,
		Inputs:       inputs,
		IsVoice:      req.IsVoice,
		UDH:          req.UseUDH,
		SendDate:     formatSendDate(req.SendAt),
	}
	return d.jsonRequest(KindOTP, d.endpoints.OTP, body)
}

func (d *currentDialect) accountInfo() (*outbound, error) {
	return &outbound{
		method:   http.MethodGet,
		endpoint: d.endpoints.AccountInfo,
		header:   d.header(),
	}, nil
}

func (d *currentDialect) jsonRequest(kind RequestKind, endpoint string, body any) (*outbound, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ghasedak: encode %s request: %w", kind, err)
	}
	return &outbound{
		kind:        kind,
		method:      http.MethodPost,
		endpoint:    endpoint,
		contentType: "application/json",
		header:      d.header(),
		body:        encoded,
	}, nil
}

func (d *currentDialect) header() http.Header {
	h := http.Header{}
	h.Set("ApiKey", d.apiKey)
	h.Set("Accept", "application/json")
	return h
}

type legacyDialect struct {
	apiKey    string
	endpoints Endpoints
	logger    zerolog.Logger
}

func (d *legacyDialect) template(recipient, templateName string, params []string) (*outbound, error) {
	if len(params) > maxLegacyTemplateParams {
		d.logger.Warn().
			Int("given", len(params)).
			Int("max", maxLegacyTemplateParams).
			Str("template", templateName).
			Msg("ghasedak: legacy api accepts at most 3 template parameters")
		params = params[:maxLegacyTemplateParams]
	}

	form := url.Values{}
	form.Set("type", "1")
	form.Set("receptor", recipient)
	form.Set("template", templateName)
	for i, p := range params {
		form.Set("param"+strconv.Itoa(i+1), p)
	}
	return d.formRequest(KindTemplate, d.endpoints.Template, form), nil
}

func (d *legacyDialect) simple(recipient, message, sender string, sendAt *time.Time, referenceIDs []string) (*outbound, error) {
	form := url.Values{}
	form.Set("message", message)
	form.Set("receptor", recipient)
	form.Set("sender", sender)
	if sendAt != nil && !sendAt.IsZero() {
		form.Set("senddate", strconv.FormatInt(sendAt.Unix(), 10))
	}
	if ids := nonEmpty(referenceIDs); len(ids) > 0 {
		form.Set("checkingids", strings.Join(ids, ","))
	}
	return d.formRequest(KindSimple, d.endpoints.Simple, form), nil
}

func (d *legacyDialect) otp([]Receptor, string, OTPSend) (*outbound, error) {
	return nil, NewError(GenerationLegacy, KindMethodNotFound, CodeMethodNotFound)
}

func (d *legacyDialect) accountInfo() (*outbound, error) {
	return nil, NewError(GenerationLegacy, KindMethodNotFound, CodeMethodNotFound)
}

func (d *legacyDialect) formRequest(kind RequestKind, endpoint string, form url.Values) *outbound {
	h := http.Header{}
	h.Set("apikey", d.apiKey)
	h.Set("cache-control", "no-cache")
	return &outbound{
		kind:        kind,
		method:      http.MethodPost,
		endpoint:    endpoint,
		contentType: "application/x-www-form-urlencoded",
		header:      h,
		body:        []byte(form.Encode()),
	}
}

func formatSendDate(at *time.Time) string {
	if at == nil || at.IsZero() {
		return ""
	}
	return at.Format(time.RFC3339)
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
