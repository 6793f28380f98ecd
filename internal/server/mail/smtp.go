package mail

import (
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender delivers emails over a plain SMTP submission endpoint. When
// user/password are set it authenticates with PLAIN; smtp.SendMail upgrades
// the connection with STARTTLS when the server offers it.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
}

// NewSMTPSender returns a Sender speaking to host:port, sending as from.
func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, password: password, from: from}
}

func (s *SMTPSender) SendVerificationEmail(to string, verificationLink string) error {
	subject := "Vérification de votre email - SupNum Résultats"
	body := htmlBody(
		"Bienvenue sur SupNum Résultats !",
		"Merci de vous être inscrit sur SupNum Résultats. Pour finaliser votre inscription, veuillez confirmer votre adresse email en cliquant sur le lien ci-dessous :",
		verificationLink,
		"Ce lien est valide pendant 24 heures. Si vous n'avez pas créé de compte, veuillez ignorer cet email.",
	)
	return s.send(to, subject, body)
}

func (s *SMTPSender) SendPasswordResetEmail(to string, resetLink string) error {
	subject := "Réinitialisation de votre mot de passe - SupNum Résultats"
	body := htmlBody(
		"Réinitialisation de votre mot de passe",
		"Vous avez demandé à réinitialiser votre mot de passe. Cliquez sur le lien ci-dessous pour en choisir un nouveau :",
		resetLink,
		"Ce lien est valide pendant 1 heure. Si vous n'avez pas demandé de réinitialisation, ignorez cet email ; votre mot de passe ne sera pas modifié.",
	)
	return s.send(to, subject, body)
}

func (s *SMTPSender) send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="utf-8"`,
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if s.user != "" && s.password != "" {
		auth = smtp.PlainAuth("", s.user, s.password, s.host)
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func htmlBody(title, intro, link, note string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="fr">
<body style="font-family: sans-serif; color: #333;">
  <h2>%s</h2>
  <p>Bonjour,</p>
  <p>%s</p>
  <p><a href="%s">%s</a></p>
  <p style="color:#999;font-size:12px;">%s</p>
  <p style="color:#999;font-size:12px;">SupNum - Plateforme de Résultats</p>
</body>
</html>`, title, intro, link, link, note)
}
