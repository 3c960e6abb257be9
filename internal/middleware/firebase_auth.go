package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/mansoorceksport/trackhub/internal/config"
	"google.golang.org/api/option"
)

// serviceAccount is the subset of a Google service account key the Admin SDK needs
type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
}

func credentialsJSON(cfg config.FirebaseConfig) ([]byte, error) {
	if cfg.ProjectID == "" || cfg.ClientEmail == "" {
		return nil, errors.New("firebase project id and client email are required")
	}
	pem, err := base64.StdEncoding.DecodeString(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("decode firebase private key: %w", err)
	}
	return json.Marshal(serviceAccount{
		Type:        "service_account",
		ProjectID:   cfg.ProjectID,
		PrivateKey:  string(pem),
		ClientEmail: cfg.ClientEmail,
	})
}

// NewFirebaseAuthClient builds the Admin SDK auth client used to verify
// social login ID tokens.
func NewFirebaseAuthClient(ctx context.Context, cfg config.FirebaseConfig) (*auth.Client, error) {
	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return client, nil
}
