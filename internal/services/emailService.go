package services

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendVerificationCode(to, code string) error
	SendEmailChangeCode(to, code string) error
	SendPasswordResetCode(to, code, token string) error
}

type emailService struct {
	from string
}

func NewEmailService() EmailService {
	return &emailService{
		from: os.Getenv("SMTP_USERNAME"),
	}
}

func (e *emailService) send(to, subject, msg string) error {
	m := gomail.NewMessage()

	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", msg)

	host := os.Getenv("SMTP_HOST")
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	d := gomail.NewDialer(host, port, os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"))

	if err := d.DialAndSend(m); err != nil {
		return err
	}
	return nil
}

func (e *emailService) SendVerificationCode(to, code string) error {
	subject := "Verify your email address"
	body := fmt.Sprintf(`<p>Welcome! Use the code below to verify your email address. It expires in 15 minutes.</p>
<h2 style="letter-spacing:8px">%s</h2>
<p>If you did not create an account, you can ignore this email.</p>`, code)
	return e.send(to, subject, body)
}

func (e *emailService) SendEmailChangeCode(to, code string) error {
	subject := "Confirm your new email address"
	body := fmt.Sprintf(`<p>Use the code below to confirm this address for your account. It expires in 15 minutes.</p>
<h2 style="letter-spacing:8px">%s</h2>
<p>If you did not request this change, you can ignore this email.</p>`, code)
	return e.send(to, subject, body)
}

func (e *emailService) SendPasswordResetCode(to, code, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", os.Getenv("FRONTEND_URL"), token)
	subject := "Reset your password"
	body := fmt.Sprintf(`<p>Use the code below to reset your password. It expires in 15 minutes.</p>
<h2 style="letter-spacing:8px">%s</h2>
<p><a href="%s">Continue resetting your password</a></p>
<p>If you did not request a reset, you can ignore this email.</p>`, code, resetURL)
	return e.send(to, subject, body)
}
