package ghasedak

import (
	"context"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Option customises the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used to talk to the gateway.
func WithHTTPClient(client HTTPClient) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithIDGenerator overrides how client reference ids are generated.
func WithIDGenerator(next func() string) Option {
	return func(c *Client) {
		if next != nil {
			c.newID = next
		}
	}
}

// WithBodyLimit adjusts how many bytes are read from a provider response.
func WithBodyLimit(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxBodyBytes = limit
		}
	}
}

// Client sends SMS through the Ghasedak gateway. It is safe for concurrent use
// and never retries a request.
type Client struct {
	cfg          Config
	logger       zerolog.Logger
	httpClient   HTTPClient
	newID        func() string
	maxBodyBytes int64
	dialect      dialect
}

// NewClient validates cfg and builds a client. A missing API key is not an error
// here; every send fails with KindAPIKeyMissing until one is configured.
func NewClient(cfg Config, logger zerolog.Logger, opts ...Option) (*Client, error) {
	normalized, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	if reflect.ValueOf(logger).IsZero() || !normalized.LoggingEnabled {
		logger = zerolog.Nop()
	}

	c := &Client{
		cfg:          normalized,
		logger:       logger.With().Str("provider", "ghasedak").Str("generation", string(normalized.Generation)).Logger(),
		httpClient:   &http.Client{Timeout: normalized.Timeout},
		newID:        func() string { return uuid.NewString() },
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.dialect = newDialect(c.cfg, c.logger, c.newID)

	if c.cfg.APIKey == "" {
		c.logger.Warn().Msg("ghasedak: api key is not configured; sends will fail")
	}
	return c, nil
}

// Generation reports the API generation the client speaks.
func (c *Client) Generation() Generation { return c.cfg.Generation }

// Send validates, builds and dispatches req. The returned error is always a
// *DeliveryError.
func (c *Client) Send(ctx context.Context, req SendRequest) (*Response, error) {
	if IsNilRequest(req) {
		return nil, NewError(c.cfg.Generation, KindMethodNotFound, CodeMethodNotFound)
	}
	kind := req.Kind()
	log := c.logger.With().Str("kind", string(kind)).Logger()

	if c.cfg.APIKey == "" {
		err := NewError(c.cfg.Generation, KindAPIKeyMissing, CodeAPIKeyMissing)
		log.Error().Err(err).Msg("ghasedak: send rejected")
		return nil, err
	}

	out, err := c.build(req)
	if err != nil {
		err = wrapUnexpected(err)
		log.Warn().Err(err).Msg("ghasedak: request rejected before dispatch")
		return nil, err
	}

	log.Info().Str("endpoint", out.endpoint).Msg("ghasedak: dispatching request")

	status, body, err := c.roundTrip(ctx, out)
	if err != nil {
		err = wrapUnexpected(err)
		log.Error().Int("status", status).Err(err).Msg("ghasedak: transport failure")
		return nil, err
	}

	resp, err := c.dialect.interpret(kind, status, body)
	if err != nil {
		err = wrapUnexpected(err)
		log.Error().Int("status", status).Err(err).Msg("ghasedak: provider did not accept message")
		return nil, err
	}

	log.Info().Int64("message_id", resp.MessageID).Msg("ghasedak: message accepted")
	return resp, nil
}

func (c *Client) build(req SendRequest) (*outbound, error) {
	switch r := req.(type) {
	case TemplateSend:
		return c.buildTemplate(r)
	case *TemplateSend:
		return c.buildTemplate(*r)
	case SimpleSend:
		return c.buildSimple(r)
	case *SimpleSend:
		return c.buildSimple(*r)
	case OTPSend:
		return c.buildOTP(r)
	case *OTPSend:
		return c.buildOTP(*r)
	default:
		return nil, NewError(c.cfg.Generation, KindMethodNotFound, CodeMethodNotFound)
	}
}

func (c *Client) buildTemplate(req TemplateSend) (*outbound, error) {
	name, err := c.cfg.ResolveTemplate(req.TemplateKey)
	if err != nil {
		return nil, err
	}
	recipient, err := c.recipient(req.Recipient)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("template", name).
		Str("recipient", maskPhone(recipient)).
		Int("params", len(req.Parameters)).
		Msg("ghasedak: building template request")
	return c.dialect.template(recipient, name, sanitizeAll(req.Parameters))
}

func (c *Client) buildSimple(req SimpleSend) (*outbound, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, NewError(c.cfg.Generation, KindEmptyMessage, CodeEmptyMessage)
	}
	recipient, err := c.recipient(req.Recipient)
	if err != nil {
		return nil, err
	}
	sender := strings.TrimSpace(req.Sender)
	if sender == "" {
		sender = c.cfg.Sender
	}
	c.logger.Debug().
		Str("recipient", maskPhone(recipient)).
		Bool("scheduled", req.SendAt != nil).
		Msg("ghasedak: building simple request")
	return c.dialect.simple(recipient, req.Message, sender, req.SendAt, req.ReferenceIDs)
}

func (c *Client) buildOTP(req OTPSend) (*outbound, error) {
	if c.cfg.Generation == GenerationLegacy {
		return c.dialect.otp(nil, "", req)
	}
	name, err := c.cfg.ResolveTemplate(req.TemplateKey)
	if err != nil {
		return nil, err
	}
	if len(req.Receptors) == 0 {
		return nil, NewError(c.cfg.Generation, KindEmptyReceptor, CodeEmptyReceptor)
	}
	receptors := make([]Receptor, len(req.Receptors))
	for i, r := range req.Receptors {
		mobile, err := c.recipient(r.Mobile)
		if err != nil {
			return nil, err
		}
		receptors[i] = Receptor{Mobile: mobile, ClientReferenceID: strings.TrimSpace(r.ClientReferenceID)}
	}
	inputs := make([]Input, len(req.Inputs))
	for i, in := range req.Inputs {
		inputs[i] = Input{Param: in.Param, Value: SanitizeParam(in.Value)}
	}
	req.Inputs = inputs
	c.logger.Debug().
		Str("template", name).
		Int("receptors", len(receptors)).
		Int("inputs", len(inputs)).
		Msg("ghasedak: building otp request")
	return c.dialect.otp(receptors, name, req)
}

func (c *Client) recipient(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", NewError(c.cfg.Generation, KindEmptyReceptor, CodeEmptyReceptor)
	}
	return NormalizePhone(phone)
}

// referenceIDs spreads one caller supplied id over several phones. A single phone
// keeps the id as is; several phones get "<id>-<n>" so ids stay unique.
func referenceIDs(id string, count int) []string {
	id = strings.TrimSpace(id)
	out := make([]string, count)
	if id == "" {
		return out
	}
	if count == 1 {
		out[0] = id
		return out
	}
	for i := range out {
		out[i] = id + "-" + strconv.Itoa(i+1)
	}
	return out
}

// IsNilRequest reports whether req is nil or a typed nil pointer.
func IsNilRequest(req SendRequest) bool {
	if req == nil {
		return true
	}
	v := reflect.ValueOf(req)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
