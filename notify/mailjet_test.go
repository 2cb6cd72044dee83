package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mailjet/mailjet-apiv3-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-automation/config"
	"realty-automation/models"
	"realty-automation/utils"
)

func testMailjet(url string, recipients ...string) *Mailjet {
	cfg := config.MailjetConfig{
		APIKey:      "key",
		APISecret:   "secret",
		BaseURL:     url,
		SenderEmail: "noreply@example.com",
		SenderName:  "No Reply",
		Recipients:  recipients,
	}
	return NewMailjet(cfg, utils.NewNopLogger(), WithRetryDelay(time.Millisecond))
}

func testDigest() models.Digest {
	return models.Digest{
		Subject: "New RERA Projects Update",
		Text:    "New RERA Projects Update:\nNo new projects updated.",
		HTML:    "<pre>New RERA Projects Update:\nNo new projects updated.</pre>",
	}
}

type sentAddress struct {
	Email string
	Name  string
}

type sentRequest struct {
	Messages []struct {
		From     sentAddress
		To       []sentAddress
		Subject  string
		TextPart string
		HTMLPart string
	}
}

func TestMailjetNotify(t *testing.T) {
	var got sentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3.1/send", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Messages":[{"Status":"success","To":[{"Email":"a@example.com","MessageID":1}]}]}`))
	}))
	defer srv.Close()

	m := testMailjet(srv.URL, "a@example.com", "Ops Team <ops@example.com>")
	require.NoError(t, m.Notify(context.Background(), testDigest()))

	require.Len(t, got.Messages, 1)
	msg := got.Messages[0]
	assert.Equal(t, "noreply@example.com", msg.From.Email)
	assert.Equal(t, "No Reply", msg.From.Name)
	assert.Equal(t, "New RERA Projects Update", msg.Subject)
	assert.Equal(t, testDigest().Text, msg.TextPart)
	assert.Equal(t, testDigest().HTML, msg.HTMLPart)
	assert.Equal(t, []sentAddress{
		{Email: "a@example.com"},
		{Email: "ops@example.com", Name: "Ops Team"},
	}, msg.To)
}

func TestMailjetRetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"ErrorMessage":"service unavailable","StatusCode":503}`))
			return
		}
		_, _ = w.Write([]byte(`{"Messages":[{"Status":"success"}]}`))
	}))
	defer srv.Close()

	require.NoError(t, testMailjet(srv.URL, "a@example.com").Notify(context.Background(), testDigest()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMailjetDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ErrorMessage":"API key authentication/authorization failure","StatusCode":401}`))
	}))
	defer srv.Close()

	err := testMailjet(srv.URL, "a@example.com").Notify(context.Background(), testDigest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMailjetRejectedMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Messages":[{"Status":"error"}]}`))
	}))
	defer srv.Close()

	err := testMailjet(srv.URL, "a@example.com").Notify(context.Background(), testDigest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestMailjetNoRecipients(t *testing.T) {
	err := testMailjet("http://127.0.0.1:0").Notify(context.Background(), testDigest())
	require.Error(t, err)
}

func TestParseRecipients(t *testing.T) {
	got := parseRecipients([]string{" a@example.com ", "", "Jane Doe <jane@example.com>"})
	assert.Equal(t, mailjet.RecipientsV31{
		{Email: "a@example.com"},
		{Email: "jane@example.com", Name: "Jane Doe"},
	}, got)
}
