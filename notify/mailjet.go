package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mailjet/mailjet-apiv3-go/v4"
	"github.com/rotisserie/eris"

	"realty-automation/config"
	"realty-automation/models"
	"realty-automation/utils"
)

// Mailjet sends digests through the Mailjet Send API v3.1.
type Mailjet struct {
	client     *mailjet.Client
	from       mailjet.RecipientV31
	recipients mailjet.RecipientsV31
	status     *statusRecorder
	retry      *utils.RetryConfig
	logger     *utils.Logger
}

// MailjetOption configures the Mailjet client.
type MailjetOption func(*mailjetOptions)

type mailjetOptions struct {
	httpClient *http.Client
	retryDelay time.Duration
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) MailjetOption {
	return func(o *mailjetOptions) {
		o.httpClient = hc
	}
}

// WithRetryDelay sets the base backoff between attempts.
func WithRetryDelay(d time.Duration) MailjetOption {
	return func(o *mailjetOptions) {
		o.retryDelay = d
	}
}

// statusRecorder keeps the status code of the last API reply so transient
// failures (429, 5xx) can be told apart from rejected requests.
type statusRecorder struct {
	next http.RoundTripper
	last int
}

func (r *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	r.last = 0
	resp, err := r.next.RoundTrip(req)
	if resp != nil {
		r.last = resp.StatusCode
	}
	return resp, err
}

// NewMailjet builds a client from config. Recipients are plain addresses or
// "Name <address>" pairs. BaseURL is the API root, e.g. https://api.mailjet.com.
func NewMailjet(cfg config.MailjetConfig, logger *utils.Logger, opts ...MailjetOption) *Mailjet {
	o := mailjetOptions{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.httpClient.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	recorder := &statusRecorder{next: transport}
	hc := *o.httpClient
	hc.Transport = recorder

	var client *mailjet.Client
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		client = mailjet.NewMailjetClient(cfg.APIKey, cfg.APISecret, base+"/v3")
	} else {
		client = mailjet.NewMailjetClient(cfg.APIKey, cfg.APISecret)
	}
	client.SetClient(&hc)

	m := &Mailjet{
		client:     client,
		from:       mailjet.RecipientV31{Email: cfg.SenderEmail, Name: cfg.SenderName},
		recipients: parseRecipients(cfg.Recipients),
		status:     recorder,
		logger:     logger,
	}
	m.retry = &utils.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   o.retryDelay,
		Logger:      logger,
		ShouldRetry: m.retryable,
	}
	return m
}

func parseRecipients(raw []string) mailjet.RecipientsV31 {
	out := make(mailjet.RecipientsV31, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if open := strings.LastIndex(r, "<"); open >= 0 && strings.HasSuffix(r, ">") {
			out = append(out, mailjet.RecipientV31{
				Name:  strings.TrimSpace(r[:open]),
				Email: strings.TrimSpace(r[open+1 : len(r)-1]),
			})
			continue
		}
		out = append(out, mailjet.RecipientV31{Email: r})
	}
	return out
}

// retryable reports whether the last attempt failed transiently: a 429, a
// 5xx, or no reply at all.
func (m *Mailjet) retryable(error) bool {
	code := m.status.last
	return code == 0 || code == http.StatusTooManyRequests || code >= 500
}

// Notify sends the digest to every configured recipient in one message.
func (m *Mailjet) Notify(ctx context.Context, digest models.Digest) error {
	if len(m.recipients) == 0 {
		return eris.New("mailjet: no recipients configured")
	}

	to := m.recipients
	messages := &mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{{
		From:     &m.from,
		To:       &to,
		Subject:  digest.Subject,
		TextPart: digest.Text,
		HTMLPart: digest.HTML,
	}}}

	var res *mailjet.ResultsV31
	err := m.retry.Do(ctx, "mailjet-send", func() error {
		var sendErr error
		res, sendErr = m.client.SendMailV31(messages)
		if sendErr != nil {
			return eris.Wrapf(sendErr, "mailjet: status %d", m.status.last)
		}
		return nil
	})
	if err != nil {
		return eris.Wrap(err, "mailjet: send digest")
	}

	for _, msg := range res.ResultsV31 {
		if msg.Status != "success" {
			return eris.Errorf("mailjet: message rejected with status %q", msg.Status)
		}
	}

	m.logger.Info("[mailjet] Digest %q sent to %d recipients", digest.Subject, len(m.recipients))
	return nil
}
