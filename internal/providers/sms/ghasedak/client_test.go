package ghasedak

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	currentTemplateOK = `{"StatusCode":200,"Message":"ok","IsSuccess":true,"Data":{"Items":[{"MessageId":12345678,"Receptor":"09123456789"}]}}`
	currentSimpleOK   = `{"StatusCode":200,"Message":"ok","IsSuccess":true,"Data":{"MessageId":87654321,"Receptor":"09123456789"}}`
)

func TestSendTemplateCurrentReturnsMessageID(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentTemplateOK)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	resp, err := client.SendTemplate(context.Background(), "+98 912 345 6789", "orderShipped", "John Doe_2024", "42")
	require.NoError(t, err)
	assert.Equal(t, int64(12345678), resp.MessageID)
	assert.Equal(t, KindTemplate, resp.Kind)
	assert.Equal(t, GenerationCurrent, resp.Generation)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req := gw.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/SendOtpWithParams", req.Path)
	assert.Equal(t, "test-key", req.Header.Get("ApiKey"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	body := req.jsonBody(t)
	assert.Equal(t, "orderShipped", body["templateName"])
	assert.Equal(t, "John.Doe.2024", body["param1"])
	assert.Equal(t, "42", body["param2"])
	assert.NotContains(t, body, "param3")
	assert.Equal(t, false, body["isVoice"])
	assert.Equal(t, false, body["udh"])
	assert.Equal(t, []any{map[string]any{"mobile": "09123456789", "clientReferenceId": "ref-1"}}, body["receptors"])
}

func TestSendTemplateUsesConfiguredName(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentTemplateOK)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	_, err := client.SendVerificationCode(context.Background(), "09123456789", "4821")
	require.NoError(t, err)

	body := gw.last(t).jsonBody(t)
	assert.Equal(t, "VerifyCodeTpl", body["templateName"])
	assert.Equal(t, "4821", body["param1"])
}

func TestSendTemplateDropsParamsBeyondTen(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentTemplateOK)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	params := Params(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	_, err := client.SendTemplate(context.Background(), "09123456789", "many", params...)
	require.NoError(t, err)

	body := gw.last(t).jsonBody(t)
	assert.Equal(t, "10", body["param10"])
	assert.NotContains(t, body, "param11")
}

func TestTemplatePolicies(t *testing.T) {
	t.Run("fallback uses key", func(t *testing.T) {
		gw := newFakeGateway(t, http.StatusOK, currentTemplateOK)
		cfg := testConfig(GenerationCurrent, gw.endpoints())
		cfg.TemplatePolicy = PolicyFallback
		client := newTestClient(t, cfg)

		_, err := client.SendTemplate(context.Background(), "09123456789", "unconfiguredKey")
		require.NoError(t, err)
		assert.Equal(t, "unconfiguredKey", gw.last(t).jsonBody(t)["templateName"])
	})

	t.Run("strict fails before network", func(t *testing.T) {
		transport := &countingTransport{}
		cfg := testConfig(GenerationCurrent, Endpoints{})
		cfg.TemplatePolicy = PolicyStrict
		client := newTestClient(t, cfg, WithHTTPClient(transport))

		_, err := client.SendTemplate(context.Background(), "09123456789", "unconfiguredKey")
		de := requireDeliveryError(t, err, KindTemplateNotFound)
		assert.Equal(t, CodeTemplateNotFound, de.Code)
		assert.Contains(t, de.Message, "unconfiguredKey")
		assert.Zero(t, transport.calls.Load())
	})

	t.Run("strict resolves configured key", func(t *testing.T) {
		gw := newFakeGateway(t, http.StatusOK, currentTemplateOK)
		cfg := testConfig(GenerationCurrent, gw.endpoints())
		cfg.TemplatePolicy = PolicyStrict
		client := newTestClient(t, cfg)

		_, err := client.SendTemplate(context.Background(), "09123456789", TemplateVerifyCode, "1")
		require.NoError(t, err)
		assert.Equal(t, "VerifyCodeTpl", gw.last(t).jsonBody(t)["templateName"])
	})

	t.Run("empty key fails under fallback", func(t *testing.T) {
		transport := &countingTransport{}
		client := newTestClient(t, testConfig(GenerationCurrent, Endpoints{}), WithHTTPClient(transport))

		_, err := client.SendTemplate(context.Background(), "09123456789", "  ")
		requireDeliveryError(t, err, KindTemplateNotFound)
		assert.Zero(t, transport.calls.Load())
	})
}

func TestLocalValidationNeverReachesNetwork(t *testing.T) {
	tests := []struct {
		name string
		req  SendRequest
		kind ErrorKind
		is   error
	}{
		{"empty message", SimpleSend{Recipient: "09123456789", Message: "  "}, KindEmptyMessage, ErrEmptyMessage},
		{"empty recipient", SimpleSend{Recipient: "", Message: "hi"}, KindEmptyReceptor, ErrEmptyReceptor},
		{"bad phone", SimpleSend{Recipient: "12345", Message: "hi"}, KindInvalidPhoneNumber, ErrInvalidPhoneNumber},
		{"template bad phone", TemplateSend{Recipient: "12345", TemplateKey: "k"}, KindInvalidPhoneNumber, ErrInvalidPhoneNumber},
		{"otp no receptors", OTPSend{TemplateKey: "k"}, KindEmptyReceptor, ErrEmptyReceptor},
		{"otp bad receptor", OTPSend{TemplateKey: "k", Receptors: []Receptor{{Mobile: "09123456789"}, {Mobile: "1"}}}, KindInvalidPhoneNumber, ErrInvalidPhoneNumber},
		{"nil request", nil, KindMethodNotFound, ErrMethodNotFound},
		{"nil pointer request", (*SimpleSend)(nil), KindMethodNotFound, ErrMethodNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &countingTransport{}
			client := newTestClient(t, testConfig(GenerationCurrent, Endpoints{}), WithHTTPClient(transport))

			_, err := client.Send(context.Background(), tt.req)
			requireDeliveryError(t, err, tt.kind)
			assert.True(t, errors.Is(err, tt.is))
			assert.Zero(t, transport.calls.Load())
		})
	}
}

func TestMissingAPIKeyFailsFirst(t *testing.T) {
	transport := &countingTransport{}
	cfg := testConfig(GenerationCurrent, Endpoints{})
	cfg.APIKey = "   "
	client := newTestClient(t, cfg, WithHTTPClient(transport))

	_, err := client.Send(context.Background(), SimpleSend{Message: ""})
	de := requireDeliveryError(t, err, KindAPIKeyMissing)
	assert.Equal(t, CodeAPIKeyMissing, de.Code)
	assert.Equal(t, "Ghasedak API key is not configured", de.Message)
	assert.Zero(t, transport.calls.Load())

	_, err = client.AccountInfo(context.Background())
	requireDeliveryError(t, err, KindAPIKeyMissing)
}

func TestCurrentRejectionMapsCode(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, `{"IsSuccess":false,"StatusCode":418,"Message":"credit is low"}`)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	_, err := client.SendTemplate(context.Background(), "09123456789", "k", "1")
	de := requireDeliveryError(t, err, KindProviderRejected)
	assert.Equal(t, "418", de.Code)
	assert.Equal(t, "Insufficient account credit", de.Message)
	assert.Equal(t, "credit is low", de.Detail)
	assert.True(t, errors.Is(err, ErrProviderRejected))
}

func TestCurrentRejectionLowercaseStatusCode(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, `{"isSuccess":false,"statusCode":"401"}`)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	_, err := client.SendSimple(context.Background(), "09123456789", "hello", "")
	de := requireDeliveryError(t, err, KindProviderRejected)
	assert.Equal(t, "401", de.Code)
}

func TestHTTPErrorStatusRegardlessOfBody(t *testing.T) {
	for _, body := range []string{currentTemplateOK, "", "not json"} {
		gw := newFakeGateway(t, http.StatusInternalServerError, body)
		client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

		_, err := client.SendTemplate(context.Background(), "09123456789", "k")
		de := requireDeliveryError(t, err, KindHTTPError)
		assert.Equal(t, http.StatusInternalServerError, de.Status)
		assert.Equal(t, CodeHTTPError, de.Code)
		assert.Equal(t, 1, gw.count(), "expected exactly one attempt")
	}
}

func TestTransportFailureIsHTTPErrorWithoutStatus(t *testing.T) {
	transport := &countingTransport{}
	client := newTestClient(t, testConfig(GenerationCurrent, Endpoints{}), WithHTTPClient(transport))

	_, err := client.SendSimple(context.Background(), "09123456789", "hello", "")
	de := requireDeliveryError(t, err, KindHTTPError)
	assert.Zero(t, de.Status)
	assert.Equal(t, int32(1), transport.calls.Load())
}

func TestTimeoutIsHTTPError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	defer close(release)

	cfg := testConfig(GenerationCurrent, Endpoints{Simple: srv.URL + "/SendSingleSMS"})
	cfg.Timeout = 50 * time.Millisecond
	client := newTestClient(t, cfg)

	_, err := client.SendSimple(context.Background(), "09123456789", "hello", "")
	de := requireDeliveryError(t, err, KindHTTPError)
	assert.Zero(t, de.Status)
	assert.Error(t, de.Err)
}

func TestCurrentSuccessWithoutIDIsSendFailed(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, `{"IsSuccess":true,"Data":{"Items":[]}}`)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	_, err := client.SendTemplate(context.Background(), "09123456789", "k")
	de := requireDeliveryError(t, err, KindSendFailed)
	assert.Equal(t, CodeSendFailed, de.Code)
	assert.Equal(t, "SMS sending failed", de.Message)
}

func TestUndecodableBodyIsUnknownRejection(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, "<html>gateway</html>")
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	_, err := client.SendSimple(context.Background(), "09123456789", "hello", "")
	de := requireDeliveryError(t, err, KindProviderRejected)
	assert.Equal(t, CodeUnknown, de.Code)
	assert.Equal(t, "Unknown error: unknown", de.Message)
}

func TestSendSimpleCurrent(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentSimpleOK)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	sendAt := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	resp, err := client.Send(context.Background(), SimpleSend{
		Recipient:    "09123456789",
		Message:      "سلام دنیا",
		SendAt:       &sendAt,
		ReferenceIDs: []string{"", "order-7"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(87654321), resp.MessageID)

	req := gw.last(t)
	assert.Equal(t, "/SendSingleSMS", req.Path)
	body := req.jsonBody(t)
	assert.Equal(t, "سلام دنیا", body["message"])
	assert.Equal(t, "09123456789", body["receptor"])
	assert.Equal(t, "30005006", body["sender"])
	assert.Equal(t, "order-7", body["clientReferenceId"])
	assert.Equal(t, "2026-03-01T10:30:00Z", body["sendDate"])
	assert.Equal(t, false, body["udh"])
}

func TestSendSimpleExplicitSenderAndGeneratedReference(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentSimpleOK)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	_, err := client.SendSimple(context.Background(), "09123456789", "hi", "2000")
	require.NoError(t, err)

	body := gw.last(t).jsonBody(t)
	assert.Equal(t, "2000", body["sender"])
	assert.Equal(t, "ref-1", body["clientReferenceId"])
	assert.NotContains(t, body, "sendDate")
}

func TestSendOTPCurrent(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentTemplateOK)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	inputs := []Input{{Param: "Code", Value: "12 34"}, {Param: "Name", Value: "Ali_R"}}
	resp, err := client.SendOTP(context.Background(), "login", inputs, "", "09123456789", "989351112233")
	require.NoError(t, err)
	assert.Equal(t, int64(12345678), resp.MessageID)
	assert.Equal(t, KindOTP, resp.Kind)

	req := gw.last(t)
	assert.Equal(t, "/SendOtpSMS", req.Path)
	body := req.jsonBody(t)
	assert.Equal(t, "login", body["templateName"])
	assert.Equal(t, []any{
		map[string]any{"param": "Code", "value": "12.34"},
		map[string]any{"param": "Name", "value": "Ali.R"},
	}, body["inputs"])
	assert.Equal(t, []any{
		map[string]any{"mobile": "09123456789", "clientReferenceId": "ref-1"},
		map[string]any{"mobile": "09351112233", "clientReferenceId": "ref-1"},
	}, body["receptors"])
}

func TestSendOTPReferenceIDs(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentTemplateOK)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	_, err := client.SendOTP(context.Background(), "login", nil, "abc", "09123456789", "09351112233")
	require.NoError(t, err)

	body := gw.last(t).jsonBody(t)
	receptors := body["receptors"].([]any)
	require.Len(t, receptors, 2)
	assert.Equal(t, "abc-1", receptors[0].(map[string]any)["clientReferenceId"])
	assert.Equal(t, "abc-2", receptors[1].(map[string]any)["clientReferenceId"])
	assert.Equal(t, []any{}, body["inputs"])

	assert.Equal(t, []string{"abc"}, referenceIDs("abc", 1))
	assert.Equal(t, []string{"", ""}, referenceIDs(" ", 2))
}

func TestSendOrderConfirmed(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentTemplateOK)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	_, err := client.SendOrderConfirmed(context.Background(), "09123456789", "A-100", "250000", "1403/01/15")
	require.NoError(t, err)

	body := gw.last(t).jsonBody(t)
	assert.Equal(t, TemplateOrderConfirmed, body["templateName"])
	assert.Equal(t, "A-100", body["param1"])
	assert.Equal(t, "250000", body["param2"])
	assert.Equal(t, "14030115", body["param3"], "separators outside the accepted set are removed")
}

func TestSendOrderConfirmedKeepsDashedDate(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentTemplateOK)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	_, err := client.SendOrderConfirmed(context.Background(), "09123456789", "A-100", "250000", "1403-01-15")
	require.NoError(t, err)

	body := gw.last(t).jsonBody(t)
	assert.Equal(t, "1403-01-15", body["param3"])
}

func TestLoggingDisabledStillSends(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentSimpleOK)
	cfg := testConfig(GenerationCurrent, gw.endpoints())
	cfg.LoggingEnabled = false
	client := newTestClient(t, cfg)

	_, err := client.SendSimple(context.Background(), "09123456789", "hello", "")
	require.NoError(t, err)
}

func TestConfigIsCopiedAtConstruction(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentTemplateOK)
	cfg := testConfig(GenerationCurrent, gw.endpoints())
	client := newTestClient(t, cfg)

	cfg.Templates[TemplateVerifyCode] = "Changed"
	_, err := client.SendVerificationCode(context.Background(), "09123456789", "1")
	require.NoError(t, err)
	assert.Equal(t, "VerifyCodeTpl", gw.last(t).jsonBody(t)["templateName"])
}

func TestConcurrentSends(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentSimpleOK)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.SendSimple(context.Background(), "09123456789", "hello", "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 16, gw.count())
}

func TestNewClientRejectsUnknownGeneration(t *testing.T) {
	cfg := testConfig("v3", Endpoints{})
	_, err := NewClient(cfg, zerolog.Nop())
	require.Error(t, err)

	cfg = testConfig(GenerationCurrent, Endpoints{})
	cfg.TemplatePolicy = "loose"
	_, err = NewClient(cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestDeliveryErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := error(httpError(0, cause))
	assert.True(t, errors.Is(err, ErrHTTP))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrSystem))
	assert.Contains(t, err.Error(), "dial tcp: refused")

	wrapped := wrapUnexpected(errors.New("boom"))
	de := requireDeliveryError(t, wrapped, KindSystemError)
	assert.Equal(t, "boom", de.Detail)
}

func TestBodyLimitTruncatesProviderResponse(t *testing.T) {
	body := strings.Repeat("x", 256)
	gw := newFakeGateway(t, http.StatusInternalServerError, body)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()), WithBodyLimit(16))

	_, err := client.SendSimple(context.Background(), "09123456789", "hello", "")
	de := requireDeliveryError(t, err, KindHTTPError)
	assert.Equal(t, http.StatusInternalServerError, de.Status)
	assert.Equal(t, body[:16], de.Detail)
}

func TestBodyLimitCutsSuccessBodyIntoUnknownRejection(t *testing.T) {
	gw := newFakeGateway(t, http.StatusOK, currentSimpleOK)
	client := newTestClient(t, testConfig(GenerationCurrent, gw.endpoints()), WithBodyLimit(10))

	_, err := client.SendSimple(context.Background(), "09123456789", "hello", "")
	de := requireDeliveryError(t, err, KindProviderRejected)
	assert.Equal(t, CodeUnknown, de.Code)
}
