// Package mail delivers the one-time code emails over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"gopkg.in/gomail.v2"
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Options configure an SMTPDispatcher.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	// Timeout bounds one Send; zero means only ctx applies.
	Timeout time.Duration
	// Observe, if set, is told the outcome of every delivery attempt.
	Observe func(template string, err error)
}

// SMTPDispatcher renders a named template and sends it.
type SMTPDispatcher struct {
	sender   Sender
	from     string
	fromName string
	timeout  time.Duration
	observe  func(template string, err error)
	log      logging.Logger
}

// NewSMTPDispatcher returns a dispatcher dialing the configured SMTP server.
func NewSMTPDispatcher(opts Options, log logging.Logger) *SMTPDispatcher {
	return NewDispatcher(gomail.NewDialer(opts.Host, opts.Port, opts.User, opts.Password), opts, log)
}

// NewDispatcher returns a dispatcher delivering through sender.
func NewDispatcher(sender Sender, opts Options, log logging.Logger) *SMTPDispatcher {
	return &SMTPDispatcher{
		sender:   sender,
		from:     opts.From,
		fromName: opts.FromName,
		timeout:  opts.Timeout,
		observe:  opts.Observe,
		log:      log.With("module", "mail"),
	}
}

// Send renders templateName with vars and mails it to to. Failures, a
// timeout or a canceled ctx are reported as common.ErrEmailDispatch.
func (d *SMTPDispatcher) Send(ctx context.Context, to, templateName string, vars map[string]string) (err error) {
	if d.observe != nil {
		defer func() { d.observe(templateName, err) }()
	}

	subject, ok := subjects[templateName]
	if !ok {
		return fmt.Errorf("%w: unknown template %q", common.ErrEmailDispatch, templateName)
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, templateName+".html", vars); err != nil {
		return fmt.Errorf("%w: render %s: %v", common.ErrEmailDispatch, templateName, err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", d.from, d.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- d.sender.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			d.log.Warn(ctx, "email dispatch failed", "template", templateName, "error", err)
			return fmt.Errorf("%w: %v", common.ErrEmailDispatch, err)
		}
		d.log.Debug(ctx, "email sent", "template", templateName)
		return nil
	case <-ctx.Done():
		d.log.Warn(ctx, "email dispatch abandoned", "template", templateName, "error", ctx.Err())
		return fmt.Errorf("%w: %v", common.ErrEmailDispatch, ctx.Err())
	}
}
