package email

import (
	"errors"
	"testing"
	"time"

	"github.com/resendlabs/resend-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/cmi-charts/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		DisplayName:  "CMI_CHARTS",
		AdminMail:    "noreply@cmi.example",
		AlertMailTo:  "ops@cmi.example",
		ResendAPIKey: "re_test",
	}
}

func TestNewService_DisabledWithoutKey(t *testing.T) {
	cfg := testConfig()
	cfg.ResendAPIKey = ""

	svc := NewService(cfg)
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.SendCriticalAlert("ingest", errors.New("boom"), time.Now()))

	assert.True(t, NewService(testConfig()).Enabled())
}

func TestResendClient_SendCriticalAlert(t *testing.T) {
	var sent *resend.SendEmailRequest
	client := newResendClient(func(req *resend.SendEmailRequest) error {
		sent = req
		return nil
	}, testConfig())

	occurred := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, client.SendCriticalAlert("ingest", errors.New("permission <denied>"), occurred))

	require.NotNil(t, sent)
	assert.Equal(t, "CMI_CHARTS - ERRORE CRITICO", sent.Subject)
	assert.Equal(t, "CMI_CHARTS <noreply@cmi.example>", sent.From)
	assert.Equal(t, []string{"ops@cmi.example"}, sent.To)
	assert.Contains(t, sent.Html, "<strong>ingest</strong>")
	assert.Contains(t, sent.Html, "permission &lt;denied&gt;")
	assert.Contains(t, sent.Html, "2024-01-15T10:00:00Z")
}

func TestResendClient_WrapsSendError(t *testing.T) {
	client := newResendClient(func(*resend.SendEmailRequest) error {
		return errors.New("rate limited")
	}, testConfig())

	err := client.SendCriticalAlert("retention", errors.New("x"), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
