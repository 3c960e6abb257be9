package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrClientNotFound     = errors.New("client not found")
	ErrTrainerLinkExists  = errors.New("trainer is already in your list")
	ErrTrainerLinkMissing = errors.New("trainer is not in your list")
)

// Client is the client profile owned by every user
type Client struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type ClientRepository interface {
	Create(ctx context.Context, client *Client) error
	GetByID(ctx context.Context, id string) (*Client, error)
	GetByUserID(ctx context.Context, userID string) (*Client, error)
	DeleteByUserID(ctx context.Context, userID string) error
}

// TrainerOfClient links a client to a trainer they work with
type TrainerOfClient struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	ClientID    string    `bson:"client_id" json:"client_id"`
	TrainerID   string    `bson:"trainer_id" json:"trainer_id"`
	Favourite   bool      `bson:"favourite" json:"favourite"`
	FoundByLink bool      `bson:"found_by_link" json:"found_by_link"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

type TrainerOfClientRepository interface {
	Create(ctx context.Context, link *TrainerOfClient) error
	GetByID(ctx context.Context, id string) (*TrainerOfClient, error)
	Get(ctx context.Context, clientID, trainerID string) (*TrainerOfClient, error)
	ListByClient(ctx context.Context, clientID string) ([]*TrainerOfClient, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]*TrainerOfClient, error)
	SetFavourite(ctx context.Context, id string, favourite bool) error
	Delete(ctx context.Context, id string) error
	DeleteByClient(ctx context.Context, clientID string) error
	DeleteByTrainer(ctx context.Context, trainerID string) error
}
