package libraries

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type Clients struct {
	GCS    *storage.Client
	Bucket string
}

var clients *Clients

func GetClients() *Clients {
	return clients
}

// NewClients initializes the GCS client from the base64-encoded service
// account JSON in the environment. A missing credential is not fatal:
// the service degrades to local-disk blob storage.
func NewClients(ctx context.Context) (*Clients, error) {
	encoded := os.Getenv("GCP_SERVICE_ACCOUNT_CREDENTIALS")
	if encoded == "" {
		return nil, fmt.Errorf("GCP_SERVICE_ACCOUNT_CREDENTIALS not set")
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode service account json: %w", err)
	}

	credOpt := option.WithCredentialsJSON(decoded)

	gcsClient, err := storage.NewClient(ctx, credOpt)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}

	clients = &Clients{
		GCS:    gcsClient,
		Bucket: os.Getenv("GCS_BUCKET"),
	}

	return clients, nil
}

func (c *Clients) Close() {
	c.GCS.Close()
}
