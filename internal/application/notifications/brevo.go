package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"orgchart-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact   `json:"sender"`
	To          []BrevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// UserDirectory resolves a user id to a mailbox.
type UserDirectory interface {
	FindUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// GormUserDirectory reads the Users table.
type GormUserDirectory struct {
	DB *gorm.DB
}

func (d *GormUserDirectory) FindUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := d.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}

// BrevoNotifier emails transfer notifications through Brevo (Sendinblue).
// Same env as the rest of the app: SENDINBLUE_API_KEY, MAIL_FROM.
type BrevoNotifier struct {
	APIKey   string
	MailFrom string
	BaseURL  string
	Endpoint string
	Users    UserDirectory
	Client   *http.Client
}

func (c *BrevoNotifier) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@orgchart.app"
}

func (c *BrevoNotifier) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

// Notify resolves the recipient and sends one email.
func (c *BrevoNotifier) Notify(ctx context.Context, kind Kind, toUserID uuid.UUID, msg Message) error {
	if c.APIKey == "" {
		return ErrNotConfigured
	}
	if c.Users == nil {
		return fmt.Errorf("brevo notifier: %w", ErrNotConfigured)
	}
	user, err := c.Users.FindUser(ctx, toUserID)
	if err != nil {
		return err
	}
	subject, content, err := transferContent(kind, user.Fullname, msg, c.BaseURL)
	if err != nil {
		return err
	}
	return c.send(ctx, user.Email, user.Fullname, subject, EmailLayout(content))
}

func (c *BrevoNotifier) send(ctx context.Context, toEmail, toName, subject, html string) error {
	body := BrevoSendRequest{
		Sender:      BrevoContact{Email: c.from(), Name: "OrgChart"},
		To:          []BrevoContact{{Email: toEmail, Name: toName}},
		Subject:     subject,
		HTMLContent: html,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}
