package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// EmailService sends transactional emails.
type EmailService interface {
	SendVerificationCode(ctx context.Context, toEmail, code, idempotencyKey string) error
	SendPasswordResetLink(ctx context.Context, toEmail, resetURL, idempotencyKey string) error
	SendPasswordChangedNotice(ctx context.Context, toEmail string) error
}

// NoopEmailService is used when no email provider is configured. Codes
// and links are logged instead of delivered, which is enough for local
// development.
type NoopEmailService struct{}

func (s *NoopEmailService) SendVerificationCode(ctx context.Context, toEmail, code, idempotencyKey string) error {
	log.Printf("[EmailService] noop send verification code to=%s code=%s", toEmail, code)
	return nil
}

func (s *NoopEmailService) SendPasswordResetLink(ctx context.Context, toEmail, resetURL, idempotencyKey string) error {
	log.Printf("[EmailService] noop send password reset link to=%s url=%s", toEmail, resetURL)
	return nil
}

func (s *NoopEmailService) SendPasswordChangedNotice(ctx context.Context, toEmail string) error {
	log.Printf("[EmailService] noop send password changed notice to=%s", toEmail)
	return nil
}

// ResendEmailService sends emails via the Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendVerificationCode(ctx context.Context, toEmail, code, idempotencyKey string) error {
	if toEmail == "" || code == "" {
		return fmt.Errorf("toEmail and code are required")
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Your signup code",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code),
		Html:    fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in 5 minutes.</p>", code),
	}
	return s.sendWithRetry(ctx, params, idempotencyKey)
}

func (s *ResendEmailService) SendPasswordResetLink(ctx context.Context, toEmail, resetURL, idempotencyKey string) error {
	if toEmail == "" || resetURL == "" {
		return fmt.Errorf("toEmail and resetURL are required")
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Reset your password",
		Text:    fmt.Sprintf("Follow this link to reset your password: %s\nThe link expires in 15 minutes.", resetURL),
		Html:    fmt.Sprintf("<p>Follow <a href=%q>this link</a> to reset your password.</p><p>The link expires in 15 minutes.</p>", resetURL),
	}
	return s.sendWithRetry(ctx, params, idempotencyKey)
}

func (s *ResendEmailService) SendPasswordChangedNotice(ctx context.Context, toEmail string) error {
	if toEmail == "" {
		return fmt.Errorf("toEmail is required")
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Your password was changed",
		Text:    "Your account password was just changed. If this was not you, reset your password immediately.",
	}
	return s.sendWithRetry(ctx, params, "")
}

func (s *ResendEmailService) sendWithRetry(ctx context.Context, params *resend.SendEmailRequest, idempotencyKey string) error {
	options := &resend.SendEmailOptions{}
	if strings.TrimSpace(idempotencyKey) != "" {
		options.IdempotencyKey = strings.TrimSpace(idempotencyKey)
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary()) {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
