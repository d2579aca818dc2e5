package utils

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	config "github.com/huddle/eventify-go/config"
)

var smsClient = &http.Client{Timeout: 15 * time.Second}

// SendSMS delivers a text message, trying each configured provider in a
// fixed order and returning the first success. In development mode the
// message is logged instead of sent.
func SendSMS(cfg *config.Config, mobile, message string) error {
	if cfg.IsDev() {
		log.Info().Str("mobile", mobile).Str("message", message).Msg("dev mode: sms not sent")
		return nil
	}

	var errs []string
	for _, send := range []func(*config.Config, string, string) error{sendViaFastSMS, sendViaTextbelt} {
		err := send(cfg, mobile, message)
		if err == nil {
			return nil
		}
		errs = append(errs, err.Error())
	}
	return fmt.Errorf("all sms providers failed: %s", strings.Join(errs, "; "))
}

func sendViaFastSMS(cfg *config.Config, mobile, message string) error {
	if cfg.FastSMSKey == "" {
		return fmt.Errorf("fastsms not configured")
	}

	form := url.Values{
		"route":   {"q"},
		"numbers": {mobile},
		"message": {message},
	}
	req, err := http.NewRequest(http.MethodPost, "https://www.fast2sms.com/dev/bulkV2", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("authorization", cfg.FastSMSKey)

	resp, err := smsClient.Do(req)
	if err != nil {
		return fmt.Errorf("fastsms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fastsms: status %s", resp.Status)
	}
	return nil
}

func sendViaTextbelt(cfg *config.Config, mobile, message string) error {
	if cfg.TextbeltKey == "" {
		return fmt.Errorf("textbelt not configured")
	}

	form := url.Values{
		"phone":   {mobile},
		"message": {message},
		"key":     {cfg.TextbeltKey},
	}
	resp, err := smsClient.PostForm("https://textbelt.com/text", form)
	if err != nil {
		return fmt.Errorf("textbelt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("textbelt: status %s", resp.Status)
	}
	return nil
}
