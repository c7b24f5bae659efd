package ghasedak

import "time"

// RequestKind names the three request shapes.
type RequestKind string

const (
	KindTemplate RequestKind = "template"
	KindSimple   RequestKind = "simple"
	KindOTP      RequestKind = "otp"
)

// SendRequest is implemented by TemplateSend, SimpleSend and OTPSend only.
type SendRequest interface {
	Kind() RequestKind
	sendRequest()
}

// TemplateSend sends a provider template to one recipient with positional
// parameters.
type TemplateSend struct {
	Recipient   string
	TemplateKey string
	Parameters  []string
}

// SimpleSend sends free text to one recipient. An empty Sender uses the
// configured default line; a nil SendAt means immediate delivery.
type SimpleSend struct {
	Recipient    string
	Message      string
	Sender       string
	SendAt       *time.Time
	ReferenceIDs []string
}

// Receptor is one recipient of an OTP send.
type Receptor struct {
	Mobile            string `json:"mobile"`
	ClientReferenceID string `json:"clientReferenceId"`
}

// Input is a named OTP template parameter.
type Input struct {
	Param string `json:"param"`
	Value string `json:"value"`
}

// OTPSend sends a template with named inputs to one or more recipients.
type OTPSend struct {
	Receptors   []Receptor
	TemplateKey string
	Inputs      []Input
	SendAt      *time.Time
	IsVoice     bool
	UseUDH      bool
}

func (TemplateSend) Kind() RequestKind { return KindTemplate }
func (SimpleSend) Kind() RequestKind   { return KindSimple }
func (OTPSend) Kind() RequestKind      { return KindOTP }

func (TemplateSend) sendRequest() {}
func (SimpleSend) sendRequest()   {}
func (OTPSend) sendRequest()      {}
