package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/mansoorceksport/trackhub/internal/telemetry"
)

// contentBase holds what exercise, workout and plan services share
type contentBase struct {
	kind   domain.ContentKind
	users  domain.UserRepository
	limits *LimitsService
	events domain.EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// ContentDeps groups the collaborators common to the content services
type ContentDeps struct {
	Exercises domain.ExerciseRepository
	Workouts  domain.WorkoutRepository
	Plans     domain.PlanRepository
	Catalog   domain.CatalogRepository
	Users     domain.UserRepository
	Limits    *LimitsService
	Media     domain.MediaStorage
	Events    domain.EventPublisher
	Logger    *slog.Logger

	MaxImageMB int64
	MaxVideoMB int64
}

func newContentBase(kind domain.ContentKind, deps ContentDeps) contentBase {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return contentBase{
		kind:   kind,
		users:  deps.Users,
		limits: deps.Limits,
		events: deps.Events,
		logger: logger,
		now:    time.Now,
	}
}

// OriginalityReport is the response of the originality endpoints
type OriginalityReport struct {
	domain.Originality
	OriginalPercent float64 `json:"original_percent"`
	BorrowedPercent float64 `json:"borrowed_percent"`
	Publishable     bool    `json:"publishable"`
}

func newOriginalityReport(o domain.Originality) *OriginalityReport {
	return &OriginalityReport{
		Originality:     o,
		OriginalPercent: domain.RoundTenths(o.OriginalPercent()),
		BorrowedPercent: domain.RoundTenths(o.BorrowedPercent()),
		Publishable:     o.Publishable(),
	}
}

// canView fails unless userID may read the item
func canView(l *domain.Lineage, userID string) error {
	if !l.CanView(userID) {
		return domain.ErrContentNotVisible
	}
	return nil
}

// mustOwn fails unless userID created the item
func mustOwn(l *domain.Lineage, userID string) error {
	if !l.IsOwnedBy(userID) {
		return domain.ErrForbidden
	}
	return nil
}

// checkPublishable gates publishing on archive state and originality
func checkPublishable(l *domain.Lineage, o domain.Originality) error {
	if l.IsArchived {
		return domain.ErrContentArchived
	}
	if !o.Publishable() {
		return domain.ErrNotOriginalEnough
	}
	return nil
}

// shareTargets dedupes userIDs, drops the owner and checks every user exists
func (b *contentBase) shareTargets(ctx context.Context, ownerID string, userIDs []string) ([]string, error) {
	seen := make(map[string]bool, len(userIDs))
	targets := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id == "" || id == ownerID || seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, id)
	}
	if len(targets) == 0 {
		return nil, domain.NewValidationError("user_ids", "At least one other user is required.")
	}

	users, err := b.users.GetByIDs(ctx, targets)
	if err != nil {
		return nil, err
	}
	if len(users) != len(targets) {
		return nil, domain.NewValidationError("user_ids", "Some users do not exist.")
	}
	return targets, nil
}

// emit records the action and publishes a domain event when eventType is set
func (b *contentBase) emit(ctx context.Context, action, eventType, id, actorID string, payload map[string]any) {
	telemetry.RecordContentEvent(string(b.kind), action)
	if eventType == "" {
		return
	}

	if payload == nil {
		payload = map[string]any{}
	}
	payload["kind"] = string(b.kind)
	err := b.events.Publish(ctx, domain.Event{
		Type:       eventType,
		Key:        id,
		ActorID:    actorID,
		Payload:    payload,
		OccurredAt: b.now().UTC(),
	})
	if err != nil {
		b.logger.WarnContext(ctx, "event publish failed", "type", eventType, "id", id, "error", err)
	}
}

// touch bumps changed_at when the item was modified
func (b *contentBase) touch(l *domain.Lineage, changed bool) {
	if changed {
		l.ChangedAt = b.now()
	}
}

// toggleArchived flips the archive flag. Archived items are withdrawn from
// the catalog.
func (b *contentBase) toggleArchived(ctx context.Context, repo domain.LifecycleRepository, id string, l *domain.Lineage, userID string) (bool, error) {
	if err := mustOwn(l, userID); err != nil {
		return false, err
	}
	archived := !l.IsArchived
	if err := repo.SetArchived(ctx, id, archived); err != nil {
		return false, err
	}
	if archived && l.IsPublished {
		if err := repo.SetPublished(ctx, []string{id}, false); err != nil {
			return false, err
		}
	}
	action := "unarchived"
	if archived {
		action = "archived"
	}
	b.emit(ctx, action, "", id, userID, nil)
	return archived, nil
}

// unshare removes one user from the item's share list
func (b *contentBase) unshare(ctx context.Context, repo domain.LifecycleRepository, id string, l *domain.Lineage, ownerID, userID string) error {
	if err := mustOwn(l, ownerID); err != nil {
		return err
	}
	if !l.IsSharedWith(userID) {
		return domain.ErrNotFound
	}
	if err := repo.RemoveSharedWith(ctx, []string{id}, userID); err != nil {
		return err
	}
	b.emit(ctx, "unshared", "", id, ownerID, nil)
	return nil
}

// unpublish withdraws the item from the catalog
func (b *contentBase) unpublish(ctx context.Context, repo domain.LifecycleRepository, id string, l *domain.Lineage, userID string) error {
	if err := mustOwn(l, userID); err != nil {
		return err
	}
	if !l.IsPublished {
		return domain.ErrContentNotPublished
	}
	if err := repo.SetPublished(ctx, []string{id}, false); err != nil {
		return err
	}
	b.emit(ctx, "unpublished", "", id, userID, nil)
	return nil
}

// discard rolls back a failed subscription
func (b *contentBase) discard(ctx context.Context, c *cloner) {
	if err := c.rollback(ctx); err != nil {
		b.logger.WarnContext(ctx, "subscription rollback incomplete", "kind", string(b.kind), "user_id", c.userID, "error", err)
	}
}

// checkSubscribable validates a subscription before cloning
func checkSubscribable(l *domain.Lineage, userID string) error {
	if err := canView(l, userID); err != nil {
		return err
	}
	if l.IsOwnedBy(userID) {
		return domain.ErrOwnContent
	}
	return nil
}
