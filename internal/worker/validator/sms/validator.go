package smsvalidator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	common "github.com/ajayykmr/ghasedak-sms-go/internal/adapters/common"
	"github.com/ajayykmr/ghasedak-sms-go/internal/config"
	"github.com/ajayykmr/ghasedak-sms-go/internal/models"
	"github.com/ajayykmr/ghasedak-sms-go/internal/util"
)

// Validator implements worker.Validator for SMS payloads.
type Validator struct {
	logger zerolog.Logger
	cfg    config.ValidationConfig
}

// New constructs a Validator.
func New(cfg config.ValidationConfig, logger zerolog.Logger) *Validator {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Validator{logger: logger, cfg: cfg}
}

// ParseAndValidate decodes an SMSRequest envelope, normalizes it and checks it
// against the configured limits. On failure the returned message carries
// whatever identifiers could be decoded.
func (v *Validator) ParseAndValidate(ctx context.Context, payload []byte) (*common.ValidatedMessage, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(payload) == 0 {
		return nil, errors.New("sms validator: payload is empty")
	}

	var req models.SMSRequest
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("sms validator: decode: %w", err)
	}

	validated := &common.ValidatedMessage{
		MessageID:  strings.TrimSpace(req.MessageID),
		TraceID:    strings.TrimSpace(req.TraceID),
		TenantID:   strings.TrimSpace(req.TenantID),
		RawPayload: append([]byte(nil), payload...),
	}

	if err := v.applyDefaultsAndValidate(&req); err != nil {
		v.logger.Debug().Str("message_id", validated.MessageID).Err(err).Msg("sms validator: rejected")
		return validated, err
	}

	validated.CreatedAt = req.CreatedAt
	validated.Metadata = req.Meta
	validated.Request = &req
	return validated, nil
}

func (v *Validator) applyDefaultsAndValidate(req *models.SMSRequest) error {
	req.Channel = strings.TrimSpace(strings.ToLower(req.Channel))
	if req.Channel == "" {
		req.Channel = models.ChannelSMS
	}
	if req.Channel != models.ChannelSMS {
		return fmt.Errorf("sms validator: channel mismatch: expected %s, got %s", models.ChannelSMS, req.Channel)
	}

	if _, err := util.ParseUUIDv4(req.MessageID); err != nil {
		return fmt.Errorf("sms validator: message_id: %w", err)
	}
	req.MessageID = strings.TrimSpace(req.MessageID)
	req.TraceID = strings.TrimSpace(req.TraceID)
	req.TenantID = strings.TrimSpace(req.TenantID)

	if req.CreatedAt.IsZero() {
		return errors.New("sms validator: created_at is required")
	}
	req.CreatedAt = req.CreatedAt.UTC()
	if req.SendAt != nil {
		at := req.SendAt.UTC()
		req.SendAt = &at
	}

	req.Kind = strings.TrimSpace(strings.ToLower(req.Kind))
	if req.Kind == "" {
		req.Kind = models.SMSKindSimple
		if req.Template != nil {
			req.Kind = models.SMSKindTemplate
		}
	}

	from, err := util.ValidateSender(req.From)
	if err != nil {
		return fmt.Errorf("sms validator: from: %w", err)
	}
	req.From = from

	maxRecipients := 1
	if req.Kind == models.SMSKindOTP {
		maxRecipients = v.cfg.RecipientsMax
	}
	to, err := util.NormalizeMobileList(req.To, 1, maxRecipients)
	if err != nil {
		return fmt.Errorf("sms validator: to: %w", err)
	}
	req.To = to

	if err := v.validateContent(req); err != nil {
		return err
	}

	if len(req.ReferenceIDs) > len(req.To) {
		return fmt.Errorf("sms validator: reference_ids: got %d for %d recipient(s)", len(req.ReferenceIDs), len(req.To))
	}
	for i, id := range req.ReferenceIDs {
		normalized, err := util.ValidateReferenceID(id)
		if err != nil {
			return fmt.Errorf("sms validator: reference_ids[%d]: %w", i, err)
		}
		req.ReferenceIDs[i] = normalized
	}

	meta, err := util.ValidateMetadata(req.Meta, v.cfg.MetaMaxEntries, v.cfg.MetaMaxKeyLen, v.cfg.MetaMaxValueLen)
	if err != nil {
		return fmt.Errorf("sms validator: metadata: %w", err)
	}
	req.Meta = meta

	return nil
}

func (v *Validator) validateContent(req *models.SMSRequest) error {
	switch req.Kind {
	case models.SMSKindSimple:
		if req.Template != nil {
			return errors.New("sms validator: simple request must not carry a template")
		}
		if strings.TrimSpace(req.Body) == "" {
			return errors.New("sms validator: body is required")
		}
		if err := util.EnsureMaxRunes("sms validator: body", req.Body, v.cfg.BodyMax); err != nil {
			return err
		}
	case models.SMSKindTemplate, models.SMSKindOTP:
		if req.Template == nil {
			return fmt.Errorf("sms validator: %s request requires a template", req.Kind)
		}
		if req.Body != "" {
			return fmt.Errorf("sms validator: %s request must not carry a body", req.Kind)
		}
		key, err := util.ValidateTemplateKey(req.Template.Key)
		if err != nil {
			return fmt.Errorf("sms validator: template.key: %w", err)
		}
		req.Template.Key = key
		if req.Kind == models.SMSKindTemplate {
			return v.validateParams(req.Template)
		}
		return v.validateInputs(req.Template)
	default:
		return fmt.Errorf("sms validator: unsupported kind %q", req.Kind)
	}
	return nil
}

func (v *Validator) validateParams(tpl *models.TemplateContent) error {
	if len(tpl.Inputs) > 0 {
		return errors.New("sms validator: template request uses params, not inputs")
	}
	if v.cfg.TemplateParamsMax > 0 && len(tpl.Params) > v.cfg.TemplateParamsMax {
		return fmt.Errorf("sms validator: template.params: got %d, max %d", len(tpl.Params), v.cfg.TemplateParamsMax)
	}
	for i, p := range tpl.Params {
		if err := util.EnsureMaxRunes(fmt.Sprintf("sms validator: template.params[%d]", i), p, v.cfg.BodyMax); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateInputs(tpl *models.TemplateContent) error {
	if len(tpl.Params) > 0 {
		return errors.New("sms validator: otp request uses inputs, not params")
	}
	if v.cfg.TemplateParamsMax > 0 && len(tpl.Inputs) > v.cfg.TemplateParamsMax {
		return fmt.Errorf("sms validator: template.inputs: got %d, max %d", len(tpl.Inputs), v.cfg.TemplateParamsMax)
	}
	seen := make(map[string]struct{}, len(tpl.Inputs))
	for i := range tpl.Inputs {
		in := &tpl.Inputs[i]
		in.Param = strings.TrimSpace(in.Param)
		if in.Param == "" {
			return fmt.Errorf("sms validator: template.inputs[%d]: param is required", i)
		}
		if _, dup := seen[in.Param]; dup {
			return fmt.Errorf("sms validator: template.inputs[%d]: duplicate param %q", i, in.Param)
		}
		seen[in.Param] = struct{}{}
	}
	return nil
}
