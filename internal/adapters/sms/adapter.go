package sms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	common "github.com/ajayykmr/ghasedak-sms-go/internal/adapters/common"
	"github.com/ajayykmr/ghasedak-sms-go/internal/metrics"
	"github.com/ajayykmr/ghasedak-sms-go/internal/models"
	smsprovider "github.com/ajayykmr/ghasedak-sms-go/internal/providers/sms"
	"github.com/ajayykmr/ghasedak-sms-go/internal/providers/sms/ghasedak"
)

// Provider codes on a rejected response that indicate gateway pressure rather
// than a bad request.
var transientProviderCodes = map[string]struct{}{
	"409": {},
	"429": {},
	"500": {},
	"503": {},
}

// Option modifies adapter behaviour.
type Option func(*Adapter)

// WithRawBodyLimit overrides how much of the provider body to keep in responses.
func WithRawBodyLimit(limit int) Option {
	return func(a *Adapter) {
		if limit > 0 {
			a.maxRawChars = limit
		}
	}
}

// Adapter implements common.Adapter for the SMS channel.
type Adapter struct {
	logger      zerolog.Logger
	provider    smsprovider.Provider
	maxRawChars int
}

// NewAdapter constructs an SMS adapter using the supplied provider.
func NewAdapter(provider smsprovider.Provider, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if provider == nil {
		return nil, errors.New("sms adapter: provider dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	a := &Adapter{
		logger:      logger,
		provider:    provider,
		maxRawChars: common.DefaultRawBodyLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Send converts the validated message into a gateway request and performs one
// provider call.
func (a *Adapter) Send(ctx context.Context, msg *common.ValidatedMessage) (*common.ProviderResponse, error) {
	if msg == nil || msg.Request == nil {
		return nil, common.WrapPermanent(errors.New("sms adapter: message request is nil"))
	}
	req := msg.Request

	sendReq, err := BuildSendRequest(req)
	if err != nil {
		return &common.ProviderResponse{Status: common.StatusRejected, Message: err.Error()}, common.WrapPermanent(err)
	}

	if scenario := msg.Metadata["scenario"]; scenario != "" {
		ctx = smsprovider.ContextWithScenario(ctx, smsprovider.Scenario(strings.ToLower(scenario)))
	}

	start := time.Now()
	rawResp, err := a.provider.Send(ctx, sendReq)
	elapsed := time.Since(start)

	if err != nil {
		status, wrapped := classify(err)
		resp := a.buildErrorResponse(err, status)
		metrics.RecordSend(req.Kind, status, elapsed)
		metrics.RecordProviderError(resp.ErrorCode)
		a.logger.Warn().
			Str("message_id", req.MessageID).
			Str("kind", req.Kind).
			Str("provider_status", resp.Status).
			Str("error_code", resp.ErrorCode).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("sms adapter send failed")
		return resp, wrapped
	}

	resp := a.buildSuccessResponse(rawResp)
	metrics.RecordSend(req.Kind, resp.Status, elapsed)
	a.logger.Debug().
		Str("message_id", req.MessageID).
		Str("kind", req.Kind).
		Str("provider_id", resp.Meta["provider_id"]).
		Dur("elapsed", elapsed).
		Msg("sms adapter send succeeded")
	return resp, nil
}

// BuildSendRequest maps the Kafka envelope onto the gateway request type for its
// kind.
func BuildSendRequest(req *models.SMSRequest) (ghasedak.SendRequest, error) {
	switch req.Kind {
	case models.SMSKindTemplate:
		if req.Template == nil {
			return nil, errors.New("sms adapter: template request has no template")
		}
		return ghasedak.TemplateSend{
			Recipient:   first(req.To),
			TemplateKey: req.Template.Key,
			Parameters:  append([]string(nil), req.Template.Params...),
		}, nil
	case models.SMSKindSimple:
		return ghasedak.SimpleSend{
			Recipient:    first(req.To),
			Message:      req.Body,
			Sender:       req.From,
			SendAt:       req.SendAt,
			ReferenceIDs: append([]string(nil), req.ReferenceIDs...),
		}, nil
	case models.SMSKindOTP:
		if req.Template == nil {
			return nil, errors.New("sms adapter: otp request has no template")
		}
		receptors := make([]ghasedak.Receptor, len(req.To))
		for i, to := range req.To {
			receptors[i] = ghasedak.Receptor{Mobile: to}
			if i < len(req.ReferenceIDs) {
				receptors[i].ClientReferenceID = req.ReferenceIDs[i]
			}
		}
		inputs := make([]ghasedak.Input, len(req.Template.Inputs))
		for i, in := range req.Template.Inputs {
			inputs[i] = ghasedak.Input{Param: in.Param, Value: in.Value}
		}
		return ghasedak.OTPSend{
			Receptors:   receptors,
			TemplateKey: req.Template.Key,
			Inputs:      inputs,
			SendAt:      req.SendAt,
			IsVoice:     req.IsVoice,
			UseUDH:      req.UseUDH,
		}, nil
	default:
		return nil, fmt.Errorf("sms adapter: unsupported request kind %q", req.Kind)
	}
}

func (a *Adapter) buildSuccessResponse(raw *ghasedak.Response) *common.ProviderResponse {
	resp := &common.ProviderResponse{Status: common.StatusOK, Message: "sent"}
	if raw == nil {
		return resp
	}
	resp.Code = optionalInt(raw.StatusCode)
	resp.Raw = common.TruncateRaw(string(raw.Raw), a.maxRawChars)
	resp.Meta = map[string]string{
		"provider_id": strconv.FormatInt(raw.MessageID, 10),
		"generation":  string(raw.Generation),
		"kind":        string(raw.Kind),
	}
	return resp
}

func (a *Adapter) buildErrorResponse(err error, status string) *common.ProviderResponse {
	resp := &common.ProviderResponse{Status: status, Message: err.Error()}
	de, ok := ghasedak.AsDeliveryError(err)
	if !ok {
		return resp
	}
	resp.Code = optionalInt(de.Status)
	resp.ErrorCode = de.Code
	resp.Message = de.Message
	resp.Raw = common.TruncateRaw(de.Detail, a.maxRawChars)
	resp.Meta = map[string]string{"error_kind": string(de.Kind)}
	return resp
}

// classify maps a provider failure to a normalized status and wraps it with the
// matching sentinel. Outcomes where the gateway may have accepted the message
// carry neither sentinel.
func classify(err error) (string, error) {
	de, ok := ghasedak.AsDeliveryError(err)
	if !ok {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return common.StatusRateLimited, common.WrapTransient(err)
		}
		return common.StatusUnknown, fmt.Errorf("sms adapter: %w", err)
	}

	switch de.Kind {
	case ghasedak.KindHTTPError:
		if de.Status == 0 || de.Status == http.StatusTooManyRequests || de.Status >= http.StatusInternalServerError {
			return common.StatusRateLimited, common.WrapTransient(err)
		}
		return common.StatusRejected, common.WrapPermanent(err)
	case ghasedak.KindProviderRejected:
		if _, transient := transientProviderCodes[de.Code]; transient {
			return common.StatusRateLimited, common.WrapTransient(err)
		}
		return common.StatusRejected, common.WrapPermanent(err)
	case ghasedak.KindSendFailed, ghasedak.KindSystemError:
		return common.StatusUnknown, fmt.Errorf("sms adapter: %w", err)
	default:
		return common.StatusRejected, common.WrapPermanent(err)
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func optionalInt(code int) *int {
	if code == 0 {
		return nil
	}
	c := code
	return &c
}
