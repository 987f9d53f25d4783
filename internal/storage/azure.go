package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/sirupsen/logrus"
)

// AzureStorage archives rendered activity reports in Azure Blob Storage
type AzureStorage struct {
	client        *azblob.Client
	containerName string
}

// Ensure AzureStorage implements StorageInterface
var _ StorageInterface = (*AzureStorage)(nil)

// NewAzureStorage connects with the default Azure credential chain and makes sure the
// archive container exists
func NewAzureStorage(ctx context.Context, accountName, containerName string) (*AzureStorage, error) {
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

	s := &AzureStorage{
		client:        client,
		containerName: containerName,
	}

	if _, err := s.client.CreateContainer(ctx, s.containerName, nil); err != nil {
		if !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			return nil, fmt.Errorf("failed to create container %s: %w", containerName, err)
		}
		logrus.Debugf("Report container %s already exists", containerName)
	}

	return s, nil
}

// Store uploads a JSON document under name
func (s *AzureStorage) Store(ctx context.Context, name string, data []byte) error {
	contentType := "application/json"
	_, err := s.client.UploadBuffer(ctx, s.containerName, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("failed to upload report %s: %w", name, err)
	}

	logrus.Infof("Archived report %s (%d bytes)", name, len(data))
	return nil
}

// Retrieve downloads the document stored under name
func (s *AzureStorage) Retrieve(ctx context.Context, name string) ([]byte, error) {
	response, err := s.client.DownloadStream(ctx, s.containerName, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download report %s: %w", name, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", name, err)
	}

	return data, nil
}

// List returns archived report names with the given prefix, newest first
func (s *AzureStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	pager := s.client.NewListBlobsFlatPager(s.containerName, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}

		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
