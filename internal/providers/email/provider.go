package email

import (
	"context"
	"time"
)

// Invitation carries everything the provider needs to render and send
// an invitation mail. Delivery failures are reported to the caller but
// never abort the mutation that triggered the send.
type Invitation struct {
	ToEmail    string
	ToName     string
	VerseName  string
	Subdomain  string
	RoleName   string
	InviteLink string
	ExpiresAt  time.Time
}

type Provider interface {
	SendInvitation(ctx context.Context, invite Invitation) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) SendInvitation(ctx context.Context, invite Invitation) error {
	return nil
}
