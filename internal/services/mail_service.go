package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

type MailService struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
}

func NewMailService() *MailService {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")

	enabled := host != "" && port != "" && user != "" && pass != "" && from != ""
	if !enabled {
		log.Println("MailService disabled: missing SMTP environment variables")
	}

	return &MailService{
		Host:     host,
		Port:     port,
		Username: user,
		Password: pass,
		From:     from,
		Enabled:  enabled,
	}
}

func (s *MailService) sendAsync(to []string, subject, body string) {
	if !s.Enabled {
		return
	}

	go func() {
		msg := strings.Join([]string{
			"From: " + s.From,
			"To: " + strings.Join(to, ","),
			"Subject: " + subject,
			"MIME-Version: 1.0",
			"Content-Type: text/plain; charset=\"UTF-8\"",
			"",
			body,
		}, "\r\n")

		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		addr := s.Host + ":" + s.Port
		if err := smtp.SendMail(addr, auth, s.From, to, []byte(msg)); err != nil {
			log.Printf("Failed to send mail to %v: %v", to, err)
		}
	}()
}

// SendReplyNotification mails the author of a comment that someone replied
// to it.
func (s *MailService) SendReplyNotification(to, actorName, threadTitle, replyContent string) {
	if to == "" {
		return
	}
	subject := fmt.Sprintf("%s replied to your comment on Qanda", actorName)
	body := fmt.Sprintf("%s replied to your comment in the thread %q:\n\n%s\n", actorName, threadTitle, replyContent)
	s.sendAsync([]string{to}, subject, body)
}
