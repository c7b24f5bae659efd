package ghasedak

import (
	"context"
	"time"
)

// Template keys used by the convenience helpers.
const (
	TemplateVerifyCode     = "phoneVerifyCode"
	TemplateOrderConfirmed = "orderConfirmed"
)

// SendTemplate sends a template with positional parameters to one phone.
func (c *Client) SendTemplate(ctx context.Context, phone, templateKey string, params ...string) (*Response, error) {
	return c.Send(ctx, TemplateSend{Recipient: phone, TemplateKey: templateKey, Parameters: params})
}

// SendSimple sends free text. An empty sender uses the configured line.
func (c *Client) SendSimple(ctx context.Context, phone, message, sender string) (*Response, error) {
	return c.Send(ctx, SimpleSend{Recipient: phone, Message: message, Sender: sender})
}

// SendScheduled sends free text for delivery at sendAt.
func (c *Client) SendScheduled(ctx context.Context, phone, message string, sendAt time.Time, sender string) (*Response, error) {
	return c.Send(ctx, SimpleSend{Recipient: phone, Message: message, Sender: sender, SendAt: &sendAt})
}

// SendOTP sends a named-input template to every phone. See referenceIDs for how
// clientReferenceID is applied.
func (c *Client) SendOTP(ctx context.Context, templateKey string, inputs []Input, clientReferenceID string, phones ...string) (*Response, error) {
	ids := referenceIDs(clientReferenceID, len(phones))
	receptors := make([]Receptor, len(phones))
	for i, phone := range phones {
		receptors[i] = Receptor{Mobile: phone, ClientReferenceID: ids[i]}
	}
	return c.Send(ctx, OTPSend{Receptors: receptors, TemplateKey: templateKey, Inputs: inputs})
}

// SendVerificationCode sends code with the verification template.
func (c *Client) SendVerificationCode(ctx context.Context, phone, code string) (*Response, error) {
	return c.SendTemplate(ctx, phone, TemplateVerifyCode, code)
}

// SendOrderConfirmed sends the order confirmation template.
func (c *Client) SendOrderConfirmed(ctx context.Context, phone, orderID, amount, date string) (*Response, error) {
	return c.SendTemplate(ctx, phone, TemplateOrderConfirmed, orderID, amount, date)
}
