package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/sirupsen/logrus"
)

// AzureArchiver retains full summary documents as JSON blobs in Azure Blob
// Storage, one blob per analysis run.
type AzureArchiver struct {
	client        *azblob.Client
	containerName string
}

// Ensure AzureArchiver implements Archiver
var _ Archiver = (*AzureArchiver)(nil)

// NewAzureArchiver creates a new archiver using managed identity
func NewAzureArchiver(accountName, containerName string) (*AzureArchiver, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	archiver := &AzureArchiver{
		client:        client,
		containerName: containerName,
	}

	if err := archiver.ensureContainer(); err != nil {
		return nil, fmt.Errorf("failed to ensure container exists: %w", err)
	}

	return archiver, nil
}

func (a *AzureArchiver) ensureContainer() error {
	ctx := context.Background()

	_, err := a.client.CreateContainer(ctx, a.containerName, nil)
	if err != nil {
		if !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Container %s already exists", a.containerName)
	} else {
		logrus.Infof("Created container %s", a.containerName)
	}

	return nil
}

// Archive uploads the summary as a JSON blob named by subject and run id.
func (a *AzureArchiver) Archive(ctx context.Context, summary *models.SentimentSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	blobName := fmt.Sprintf("%s/%s-%s.json",
		blobSafeName(summary.Subject),
		summary.GeneratedAt.Format("2006-01-02-15-04-05"),
		summary.ID)

	_, err = a.client.UploadBuffer(ctx, a.containerName, blobName, data, &azblob.UploadBufferOptions{
		BlockSize:   int64(1024 * 1024),
		Concurrency: 3,
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", blobName, err)
	}

	logrus.Infof("Archived summary %s to Azure Blob Storage", blobName)
	return nil
}

// blobSafeName flattens a subject into a blob path segment.
func blobSafeName(subject string) string {
	lowered := strings.ToLower(strings.TrimSpace(subject))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, lowered)
}
