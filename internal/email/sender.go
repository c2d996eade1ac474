package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Sender delivers transactional mail over SMTP.
type Sender struct {
	host   string
	port   string
	user   string
	pass   string
	from   string
	logger *log.Logger
}

func NewSender(host, port, user, pass, from string, logger *log.Logger) *Sender {
	return &Sender{
		host:   host,
		port:   port,
		user:   user,
		pass:   pass,
		from:   from,
		logger: logger.WithComponent(log.ComponentEmail),
	}
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// SendOTP mails a one-time verification code.
func (s *Sender) SendOTP(to, code string) error {
	e := email.NewEmail()
	e.From = s.from
	e.To = []string{to}
	e.Subject = "Your verification code"
	e.Text = []byte(fmt.Sprintf(
		"Your verification code is %s.\n\n"+
			"It expires in a few minutes. If you did not request it, ignore this email.\n",
		code))

	if err := s.send(e); err != nil {
		s.logger.Error("failed to send otp email", log.FieldEmail, to, log.FieldError, err)
		return err
	}
	s.logger.Info("otp email sent", log.FieldEmail, to)
	return nil
}

// SendEntryNotification mails the owner about a newly recorded entry, which
// includes entries the recurring materializer wrote on their behalf.
func (s *Sender) SendEntryNotification(user *core.User, entry core.LedgerEntry, title string) error {
	name := user.FullName
	if name == "" {
		name = user.Email
	}

	verb := "recorded"
	if entry.Kind == core.Income {
		verb = "received"
	}

	e := email.NewEmail()
	e.From = s.from
	e.To = []string{user.Email}
	e.Subject = fmt.Sprintf("New %s: %s", entry.Kind, title)
	e.Text = []byte(fmt.Sprintf(
		"Hi %s,\n\n"+
			"A new %s of %s %s was %s on %s.\n\n"+
			"Best regards,\nFinTrack\n",
		name, entry.Kind, entry.Amount.Decimal(), entry.Currency,
		verb, entry.OccurredOn.String()))

	if err := s.send(e); err != nil {
		s.logger.Error("failed to send entry notification",
			log.FieldEmail, user.Email, log.FieldEntryID, entry.ID, log.FieldError, err)
		return err
	}
	s.logger.Info("entry notification sent",
		log.FieldEmail, user.Email, log.FieldEntryID, entry.ID)
	return nil
}
