package ghasedak

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// legacyIDSentinel is the largest legacy message id that still denotes a failure
// code rather than a real message.
const legacyIDSentinel = 1000

// Response is the result of a send the provider accepted.
type Response struct {
	Generation Generation
	Kind       RequestKind
	MessageID  int64
	// StatusCode is the HTTP status of the provider response.
	StatusCode int
	Body       map[string]any
	Raw        []byte
}

func (d *currentDialect) interpret(kind RequestKind, status int, body []byte) (*Response, error) {
	doc := decodeObject(body)

	success, _ := asBool(field(doc, "IsSuccess"))
	if !success {
		code := codeString(field(doc, "StatusCode"))
		if code == "" {
			code = CodeUnknown
		}
		detail, _ := field(doc, "Message").(string)
		return nil, rejected(GenerationCurrent, code, detail)
	}

	var id int64
	data, _ := field(doc, "Data").(map[string]any)
	if kind == KindSimple {
		id, _ = asInt64(field(data, "MessageId"))
	} else if items, ok := field(data, "Items").([]any); ok && len(items) > 0 {
		first, _ := items[0].(map[string]any)
		id, _ = asInt64(field(first, "MessageId"))
	}
	if id <= 0 {
		return nil, sendFailed(GenerationCurrent, CodeSendFailed)
	}

	return &Response{
		Generation: GenerationCurrent,
		Kind:       kind,
		MessageID:  id,
		StatusCode: status,
		Body:       doc,
		Raw:        body,
	}, nil
}

func (d *legacyDialect) interpret(kind RequestKind, status int, body []byte) (*Response, error) {
	doc := decodeObject(body)

	result, _ := field(doc, "result").(string)
	if !strings.EqualFold(strings.TrimSpace(result), "success") {
		order := []string{"message", "messageids"}
		if kind == KindSimple {
			order = []string{"messageids", "message"}
		}
		code := ""
		for _, name := range order {
			if code = codeString(field(doc, name)); code != "" {
				break
			}
		}
		if code == "" {
			code = CodeUnknown
		}
		detail, _ := field(doc, "message").(string)
		return nil, rejected(GenerationLegacy, code, detail)
	}

	id, _ := asInt64(field(doc, "messageids"))
	if id <= legacyIDSentinel {
		return nil, sendFailed(GenerationLegacy, strconv.FormatInt(id, 10))
	}

	return &Response{
		Generation: GenerationLegacy,
		Kind:       kind,
		MessageID:  id,
		StatusCode: status,
		Body:       doc,
		Raw:        body,
	}, nil
}

// decodeObject returns an empty document for bodies that are not a JSON object.
func decodeObject(body []byte) map[string]any {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return map[string]any{}
	}
	return doc
}

// field looks a key up exactly, then case-insensitively. The provider is not
// consistent about key casing between endpoints.
func field(doc map[string]any, name string) any {
	if doc == nil {
		return nil
	}
	if v, ok := doc[name]; ok {
		return v
	}
	for k, v := range doc {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return b, err == nil
	case float64:
		return t != 0, true
	}
	return false, false
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	case string:
		s := strings.TrimSpace(t)
		// legacy responses may carry a comma separated id list
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[:i]
		}
		n, err := strconv.ParseInt(s, 10, 64)
		return n, err == nil
	case []any:
		if len(t) > 0 {
			return asInt64(t[0])
		}
	}
	return 0, false
}

// codeString renders a provider code as text; absent or empty values give "".
func codeString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		if len(t) > 0 {
			return codeString(t[0])
		}
	}
	return ""
}
