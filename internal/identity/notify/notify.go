// Package notify delivers partner lifecycle mail: the verification link sent
// at signup and the approval or rejection notice sent after review.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

type Mailer interface {
	SendVerification(ctx context.Context, to, link string) error
	SendApproval(ctx context.Context, to string) error
	SendRejection(ctx context.Context, to, reason string) error
}

type Kind string

const (
	KindVerification Kind = "PARTNER_VERIFICATION"
	KindApproval     Kind = "PARTNER_APPROVED"
	KindRejection    Kind = "PARTNER_REJECTED"
)

// Subjects are the mail subject lines per kind.
type Subjects struct {
	Verification string `env:"VERIFICATION" envDefault:"Verify your partner account"`
	Approval     string `env:"APPROVAL" envDefault:"Your partner account was approved"`
	Rejection    string `env:"REJECTION" envDefault:"Your partner account was not approved"`
}

func (s Subjects) For(k Kind) string {
	switch k {
	case KindVerification:
		return s.Verification
	case KindApproval:
		return s.Approval
	default:
		return s.Rejection
	}
}

// Message is a rendered mail.
type Message struct {
	Kind    Kind
	To      string
	Subject string
	Body    string
	Link    string
	Reason  string
}

var bodies = template.Must(template.New("mail").Parse(`
{{- define "PARTNER_VERIFICATION" -}}
Welcome! Confirm your email address to continue your partner signup:

{{ .Link }}

The link expires shortly. If you did not sign up, ignore this mail.
{{- end -}}
{{- define "PARTNER_APPROVED" -}}
Your partner account has been approved. You can now sign in.
{{- end -}}
{{- define "PARTNER_REJECTED" -}}
Your partner account application was not approved.

Reason: {{ .Reason }}
{{- end -}}
`))

func render(subjects Subjects, k Kind, to, link, reason string) (Message, error) {
	m := Message{Kind: k, To: to, Subject: subjects.For(k), Link: link, Reason: reason}

	var buf bytes.Buffer
	if err := bodies.ExecuteTemplate(&buf, string(k), m); err != nil {
		return Message{}, fmt.Errorf("notify: render %s: %w", k, err)
	}
	m.Body = buf.String()
	return m, nil
}

// sender adapts a single send function to the Mailer interface.
type sender struct {
	subjects Subjects
	send     func(ctx context.Context, m Message) error
}

func (s sender) deliver(ctx context.Context, k Kind, to, link, reason string) error {
	m, err := render(s.subjects, k, to, link, reason)
	if err != nil {
		return err
	}
	return s.send(ctx, m)
}

func (s sender) SendVerification(ctx context.Context, to, link string) error {
	return s.deliver(ctx, KindVerification, to, link, "")
}

func (s sender) SendApproval(ctx context.Context, to string) error {
	return s.deliver(ctx, KindApproval, to, "", "")
}

func (s sender) SendRejection(ctx context.Context, to, reason string) error {
	return s.deliver(ctx, KindRejection, to, "", reason)
}
