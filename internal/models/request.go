package models

import "time"

// ChannelSMS is the only channel this service consumes.
const ChannelSMS = "sms"

// SMS request kinds.
const (
	SMSKindTemplate = "template"
	SMSKindSimple   = "simple"
	SMSKindOTP      = "otp"
)

// BaseRequest captures attributes shared by every inbound request.
type BaseRequest struct {
	MessageID string            `json:"message_id"`
	Channel   string            `json:"channel"`
	TenantID  string            `json:"tenant_id,omitempty"`
	TraceID   string            `json:"trace_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// TemplateContent names a provider template and its parameters. Params are
// positional (template kind); Inputs are named (otp kind).
type TemplateContent struct {
	Key    string     `json:"key"`
	Params []string   `json:"params,omitempty"`
	Inputs []OTPInput `json:"inputs,omitempty"`
}

// OTPInput is one named OTP template parameter.
type OTPInput struct {
	Param string `json:"param"`
	Value string `json:"value"`
}

// SMSRequest is the Kafka envelope for an outbound SMS.
type SMSRequest struct {
	BaseRequest
	Kind         string           `json:"kind"`
	From         string           `json:"from,omitempty"`
	To           []string         `json:"to"`
	Body         string           `json:"body,omitempty"`
	Template     *TemplateContent `json:"template,omitempty"`
	SendAt       *time.Time       `json:"send_at,omitempty"`
	ReferenceIDs []string         `json:"reference_ids,omitempty"`
	IsVoice      bool             `json:"is_voice,omitempty"`
	UseUDH       bool             `json:"udh,omitempty"`
}

// MessageRequest exposes the metadata that is common to all request types.
type MessageRequest interface {
	GetMessageID() string
	GetChannel() string
	GetTraceID() string
	GetCreatedAt() time.Time
	GetMeta() map[string]string
}

func (b BaseRequest) GetMessageID() string       { return b.MessageID }
func (b BaseRequest) GetChannel() string         { return b.Channel }
func (b BaseRequest) GetTraceID() string         { return b.TraceID }
func (b BaseRequest) GetCreatedAt() time.Time    { return b.CreatedAt }
func (b BaseRequest) GetMeta() map[string]string { return b.Meta }
