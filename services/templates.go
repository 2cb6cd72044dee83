package services

import (
	"bytes"
	"text/template"

	"github.com/rotisserie/eris"

	"realty-automation/models"
)

// LeadTemplate renders the lead-registration email for one lead.
type LeadTemplate struct {
	subject *template.Template
	body    *template.Template
}

// NewLeadTemplate parses the subject and body templates. Both may refer to
// {{.Name}} and {{.Phone}}.
func NewLeadTemplate(subject, body string) (*LeadTemplate, error) {
	s, err := template.New("subject").Option("missingkey=error").Parse(subject)
	if err != nil {
		return nil, eris.Wrap(err, "template: parse subject")
	}
	b, err := template.New("body").Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, eris.Wrap(err, "template: parse body")
	}
	return &LeadTemplate{subject: s, body: b}, nil
}

// Render returns the subject and body for lead.
func (t *LeadTemplate) Render(lead models.Lead) (string, string, error) {
	var subject, body bytes.Buffer
	if err := t.subject.Execute(&subject, lead); err != nil {
		return "", "", eris.Wrapf(err, "template: render subject for row %d", lead.Row)
	}
	if err := t.body.Execute(&body, lead); err != nil {
		return "", "", eris.Wrapf(err, "template: render body for row %d", lead.Row)
	}
	return subject.String(), body.String(), nil
}

// ComposeLeadEmail renders the message for lead addressed to the fixed
// recipient lists.
func ComposeLeadEmail(t *LeadTemplate, lead models.Lead, from string, to, cc []string) (models.Email, error) {
	subject, body, err := t.Render(lead)
	if err != nil {
		return models.Email{}, err
	}
	return models.Email{From: from, To: to, Cc: cc, Subject: subject, Body: body}, nil
}
