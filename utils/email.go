package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	config "github.com/huddle/eventify-go/config"
)

// email request payload for the ZeptoMail API
type emailRequest struct {
	From     emailAddress  `json:"from"`
	To       []toRecipient `json:"to"`
	Subject  string        `json:"subject"`
	HtmlBody string        `json:"htmlbody"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type toRecipient struct {
	Email emailWithName `json:"email_address"`
}

type emailWithName struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

var emailClient = &http.Client{Timeout: 15 * time.Second}

// SendEmail sends an HTML email through the ZeptoMail HTTP API. In
// development mode the body is logged instead of sent.
func SendEmail(cfg *config.Config, to, subject, body string) error {
	if cfg.IsDev() {
		log.Info().Str("to", to).Str("subject", subject).Msg("dev mode: email not sent")
		return nil
	}

	if cfg.EmailAPIURL == "" || cfg.EmailAPIKey == "" || cfg.EmailFrom == "" {
		return fmt.Errorf("missing required email config")
	}

	payload := emailRequest{
		From: emailAddress{Address: cfg.EmailFrom},
		To: []toRecipient{
			{Email: emailWithName{Address: to}},
		},
		Subject:  subject,
		HtmlBody: body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, cfg.EmailAPIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", cfg.EmailAPIKey)

	resp, err := emailClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zeptomail API error: %s", resp.Status)
	}

	return nil
}

// InviteEmailBody renders the invitation email. Kept as a plain string
// template; there is a single transactional email shape.
func InviteEmailBody(teamName, inviterName, link string, expires time.Time) string {
	return fmt.Sprintf(
		`<p>%s invited you to join the team <b>%s</b> on Eventify.</p>
<p><a href="%s">Accept the invitation</a> before %s.</p>
<p>If you don't have an account yet, you can register from the same link.</p>`,
		inviterName, teamName, link, expires.UTC().Format("Jan 2, 2006 15:04 MST"))
}
