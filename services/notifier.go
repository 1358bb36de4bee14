package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sirupsen/logrus"

	"relief-claims-api/models"
	"relief-claims-api/policy"
	"relief-claims-api/repository"
	"relief-claims-api/worker"
)

// Notifier is told about every committed status change. Implementations must
// not block the caller.
type Notifier interface {
	ClaimChanged(claim models.Claim)
}

type NopNotifier struct{}

func (NopNotifier) ClaimChanged(models.Claim) {}

// MailSender is satisfied by config.Mailer.
type MailSender interface {
	SendMail(to []string, subject, html string) error
}

// MailNotifier emails the officers who now hold a claim. Rejections and
// claims routed back to the origin role go to the officer who created it.
type MailNotifier struct {
	officers repository.OfficerRepository
	mailer   MailSender
	pool     *worker.Pool
	log      logrus.FieldLogger
}

func NewMailNotifier(officers repository.OfficerRepository, mailer MailSender, pool *worker.Pool, log logrus.FieldLogger) *MailNotifier {
	return &MailNotifier{officers: officers, mailer: mailer, pool: pool, log: log}
}

func (n *MailNotifier) ClaimChanged(claim models.Claim) {
	if claim.Status == models.StatusPaymentApproved {
		return
	}
	accepted := n.pool.Submit(func(ctx context.Context) error {
		to, err := n.recipients(ctx, claim)
		if err != nil {
			return fmt.Errorf("resolve recipients for claim %s: %w", claim.ClaimNumber, err)
		}
		subject, body := notificationContent(claim)
		return n.mailer.SendMail(to, subject, body)
	})
	if !accepted {
		n.log.WithField("claim_id", claim.ClaimID).Warn("Notification dropped")
	}
}

func (n *MailNotifier) recipients(ctx context.Context, claim models.Claim) ([]string, error) {
	if claim.Status == models.StatusRejected || claim.CurrentRole == policy.Origin() {
		creator, err := n.officers.Get(ctx, claim.CreatedBy)
		if err != nil {
			return nil, err
		}
		return []string{creator.Email}, nil
	}

	officers, err := n.officers.ListByRole(ctx, claim.CurrentRole)
	if err != nil {
		return nil, err
	}
	to := make([]string, 0, len(officers))
	for _, o := range officers {
		if o.Email != "" {
			to = append(to, o.Email)
		}
	}
	return to, nil
}

func notificationContent(claim models.Claim) (string, string) {
	var subject, line string
	switch claim.Status {
	case models.StatusRejected:
		subject = fmt.Sprintf("Claim %s was rejected", claim.ClaimNumber)
		line = "The relief claim below was rejected. Review the approval history for the reason."
	case models.StatusPaymentReady:
		subject = fmt.Sprintf("Claim %s is ready for payment", claim.ClaimNumber)
		line = "The Collector approved the relief claim below. Please process the payment."
	default:
		subject = fmt.Sprintf("Claim %s awaits your review", claim.ClaimNumber)
		line = fmt.Sprintf("The relief claim below is now with %s for review.", strings.ToUpper(string(claim.CurrentRole)))
	}

	body := fmt.Sprintf(
		"<p>%s</p><ul><li>Claim: %s</li><li>Applicant: %s</li><li>Location: %s</li><li>Status: %s</li></ul>",
		html.EscapeString(line),
		html.EscapeString(claim.ClaimNumber),
		html.EscapeString(claim.ApplicantName),
		html.EscapeString(claim.Location),
		html.EscapeString(string(claim.Status)),
	)
	return subject, body
}
