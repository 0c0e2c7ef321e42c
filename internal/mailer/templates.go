package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{.AppName}}</h2>
  <p>{{.Intro}}</p>
  <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Code}}</p>
  <p>This code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>
</body>
</html>`))

// OtpPurpose selects the wording of a verification email.
type OtpPurpose string

const (
	PurposeSignup        OtpPurpose = "SIGNUP"
	PurposePasswordReset OtpPurpose = "FORGOT_PASSWORD"
)

// RenderOtpEmail builds the subject and HTML body of a verification code email.
func RenderOtpEmail(appName string, purpose OtpPurpose, code string, ttl time.Duration) (string, string, error) {
	var subject, intro string
	switch purpose {
	case PurposeSignup:
		subject = appName + " - Verify your email"
		intro = "Use the code below to finish creating your account."
	case PurposePasswordReset:
		subject = appName + " - Password reset code"
		intro = "Use the code below to reset your password."
	default:
		return "", "", fmt.Errorf("unknown otp purpose %q", purpose)
	}

	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, map[string]any{
		"AppName": appName,
		"Intro":   intro,
		"Code":    code,
		"Minutes": int(ttl.Minutes()),
	})
	if err != nil {
		return "", "", fmt.Errorf("render otp email: %w", err)
	}
	return subject, buf.String(), nil
}
