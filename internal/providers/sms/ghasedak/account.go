package ghasedak

import "context"

// Account is the subset of account information the gateway reports.
type Account struct {
	Credit     float64
	ExpireDate string
	PlanName   string
	Lines      []string
	Body       map[string]any
}

// AccountInfo queries the account endpoint. Only the current generation exposes
// it; a legacy client returns KindMethodNotFound.
func (c *Client) AccountInfo(ctx context.Context) (*Account, error) {
	if c.cfg.APIKey == "" {
		return nil, NewError(c.cfg.Generation, KindAPIKeyMissing, CodeAPIKeyMissing)
	}
	out, err := c.dialect.accountInfo()
	if err != nil {
		return nil, wrapUnexpected(err)
	}

	_, body, err := c.roundTrip(ctx, out)
	if err != nil {
		c.logger.Warn().Err(err).Msg("ghasedak: account info request failed")
		return nil, wrapUnexpected(err)
	}

	doc := decodeObject(body)
	if ok, _ := asBool(field(doc, "IsSuccess")); !ok {
		code := codeString(field(doc, "StatusCode"))
		if code == "" {
			code = CodeUnknown
		}
		detail, _ := field(doc, "Message").(string)
		return nil, rejected(c.cfg.Generation, code, detail)
	}

	data, _ := field(doc, "Data").(map[string]any)
	account := &Account{Body: doc}
	if credit, ok := field(data, "Credit").(float64); ok {
		account.Credit = credit
	}
	account.ExpireDate, _ = field(data, "ExpireDate").(string)
	account.PlanName, _ = field(data, "PlanName").(string)
	if lines, ok := field(data, "LineNumbers").([]any); ok {
		for _, line := range lines {
			if s := codeString(line); s != "" {
				account.Lines = append(account.Lines, s)
			}
		}
	}
	return account, nil
}
