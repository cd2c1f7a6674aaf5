package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const cleverReachBaseURL = "https://rest.cleverreach.com"

// tokenSafetyMargin refreshes the OAuth token slightly before its
// reported expiry to avoid racing the upstream clock.
const tokenSafetyMargin = 60 * time.Second

type CleverReachConfig struct {
	ClientID     string
	ClientSecret string
	GroupName    string
	FromEmail    string
	FromName     string
}

// CleverReachProvider sends invitation mailings through the CleverReach
// REST API. The OAuth token and the resolved group id are process-wide
// caches guarded by a mutex, refreshed lazily on expiry.
type CleverReachProvider struct {
	cfg    CleverReachConfig
	log    *zap.Logger
	client *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	groupID   int64
}

func NewCleverReach(cfg CleverReachConfig, log *zap.Logger) *CleverReachProvider {
	return &CleverReachProvider{
		cfg:    cfg,
		log:    log.Named("providers.email.cleverreach"),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *CleverReachProvider) SendInvitation(ctx context.Context, invite Invitation) error {
	token, err := p.accessToken(ctx)
	if err != nil {
		return err
	}

	groupID, err := p.ensureGroup(ctx, token)
	if err != nil {
		return err
	}

	if err := p.upsertReceiver(ctx, token, groupID, invite); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := inviteMemberTmpl.Execute(&body, invite); err != nil {
		return fmt.Errorf("failed to render invitation template: %w", err)
	}

	mailingID, err := p.createMailing(ctx, token, groupID, invite, body.String())
	if err != nil {
		return err
	}

	return p.sendMailing(ctx, token, mailingID)
}

func (p *CleverReachProvider) accessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expiresAt.Add(-tokenSafetyMargin)) {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cleverReachBaseURL+"/oauth/token.php", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cleverreach token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cleverreach token request returned %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("cleverreach token response malformed: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("cleverreach token response missing access_token")
	}

	p.token = payload.AccessToken
	p.expiresAt = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return p.token, nil
}

func (p *CleverReachProvider) ensureGroup(ctx context.Context, token string) (int64, error) {
	p.mu.Lock()
	if p.groupID != 0 {
		id := p.groupID
		p.mu.Unlock()
		return id, nil
	}
	p.mu.Unlock()

	var groups []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := p.doJSON(ctx, token, http.MethodGet, "/v3/groups.json", nil, &groups); err != nil {
		return 0, err
	}

	var id int64
	for _, group := range groups {
		if strings.EqualFold(group.Name, p.cfg.GroupName) {
			id = group.ID
			break
		}
	}

	if id == 0 {
		var created struct {
			ID int64 `json:"id"`
		}
		body := map[string]any{"name": p.cfg.GroupName}
		if err := p.doJSON(ctx, token, http.MethodPost, "/v3/groups.json", body, &created); err != nil {
			return 0, err
		}
		id = created.ID
		p.log.Info("created cleverreach group", zap.String("name", p.cfg.GroupName), zap.Int64("id", id))
	}

	p.mu.Lock()
	p.groupID = id
	p.mu.Unlock()
	return id, nil
}

func (p *CleverReachProvider) upsertReceiver(ctx context.Context, token string, groupID int64, invite Invitation) error {
	body := map[string]any{
		"email":      invite.ToEmail,
		"registered": time.Now().Unix(),
		"activated":  time.Now().Unix(),
		"global_attributes": map[string]any{
			"name": invite.ToName,
		},
	}
	path := fmt.Sprintf("/v3/groups.json/%d/receivers/upsert", groupID)
	return p.doJSON(ctx, token, http.MethodPost, path, body, nil)
}

func (p *CleverReachProvider) createMailing(ctx context.Context, token string, groupID int64, invite Invitation, html string) (int64, error) {
	body := map[string]any{
		"name":         fmt.Sprintf("Invitation %s %s", invite.VerseName, time.Now().Format("2006-01-02")),
		"subject":      fmt.Sprintf("You're invited to join %s", invite.VerseName),
		"sender_name":  p.cfg.FromName,
		"sender_email": p.cfg.FromEmail,
		"content": map[string]any{
			"type": "html",
			"html": html,
		},
		"receivers": map[string]any{
			"groups": []int64{groupID},
		},
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := p.doJSON(ctx, token, http.MethodPost, "/v3/mailings.json", body, &created); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, fmt.Errorf("cleverreach mailing creation returned no id")
	}
	return created.ID, nil
}

func (p *CleverReachProvider) sendMailing(ctx context.Context, token string, mailingID int64) error {
	path := fmt.Sprintf("/v3/mailings.json/%d/send", mailingID)
	return p.doJSON(ctx, token, http.MethodPost, path, nil, nil)
}

func (p *CleverReachProvider) doJSON(ctx context.Context, token, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, cleverReachBaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("cleverreach request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("cleverreach request %s %s returned %d: %s", method, path, resp.StatusCode, string(snippet))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
