package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrContentArchived     = errors.New("archived content can not be published")
	ErrNotOriginalEnough   = errors.New("content is not original enough to be published")
	ErrOwnContent          = errors.New("you can not subscribe to your own content")
	ErrAlreadySubscribed   = errors.New("you are already subscribed to this content")
	ErrNotSubscribed       = errors.New("you are not subscribed to this content")
	ErrContentNotVisible   = errors.New("content is not available to you")
	ErrContentNotPublished = errors.New("content is not published")
)

// ContentKind names the three kinds of shareable content
type ContentKind string

const (
	KindExercise ContentKind = "exercise"
	KindWorkout  ContentKind = "workout"
	KindPlan     ContentKind = "weekly_plan"
)

// Lineage is the ownership and ancestry block shared by exercises, workouts
// and weekly plans. OriginalID points at the item this one was cloned from.
type Lineage struct {
	OriginalID  string    `bson:"original_id,omitempty" json:"original"`
	CreatedBy   string    `bson:"created_by,omitempty" json:"created_by"`
	SharedWith  []string  `bson:"shared_with" json:"shared_with"`
	IsPublic    bool      `bson:"is_public" json:"is_public"`
	IsPublished bool      `bson:"is_published" json:"is_published"`
	IsArchived  bool      `bson:"is_archived" json:"is_archived"`
	ChangedAt   time.Time `bson:"changed_at" json:"changed_at"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// IsClone reports whether the item was copied from someone else's content
func (l *Lineage) IsClone() bool {
	return l.OriginalID != ""
}

func (l *Lineage) IsOwnedBy(userID string) bool {
	return userID != "" && l.CreatedBy == userID
}

func (l *Lineage) IsSharedWith(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range l.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// CanView reports whether userID (empty for anonymous) may read the item
func (l *Lineage) CanView(userID string) bool {
	return l.IsPublic || l.IsPublished || l.IsOwnedBy(userID) || l.IsSharedWith(userID)
}

// CanUse reports whether userID may reference the item from their own
// content without cloning it first
func (l *Lineage) CanUse(userID string) bool {
	return l.IsPublic || l.IsOwnedBy(userID)
}

// NewLineage starts the lineage of content created by userID
func NewLineage(userID string, now time.Time) Lineage {
	return Lineage{
		CreatedBy:  userID,
		SharedWith: []string{},
		ChangedAt:  now,
		CreatedAt:  now,
	}
}

// CloneLineage starts the lineage of a copy of src made for userID
func CloneLineage(srcID, userID string, now time.Time) Lineage {
	l := NewLineage(userID, now)
	l.OriginalID = srcID
	return l
}

// LifecycleRepository holds the operations common to every content collection
type LifecycleRepository interface {
	SetArchived(ctx context.Context, id string, archived bool) error
	SetPublished(ctx context.Context, ids []string, published bool) error
	AddSharedWith(ctx context.Context, ids []string, userIDs []string) error
	RemoveSharedWith(ctx context.Context, ids []string, userID string) error
	// RemoveUserFromShares drops userID from every shared_with list
	RemoveUserFromShares(ctx context.Context, userID string) error
	CountByCreator(ctx context.Context, userID string) (int64, error)
	// CountClones returns the number of direct clones of each given id
	CountClones(ctx context.Context, ids []string) (map[string]int64, error)
	// DetachCreator unsets created_by on everything userID created
	DetachCreator(ctx context.Context, userID string) error
}
