package curation

import (
	"context"
	"fmt"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureStore writes reference samples to Azure blob storage. One
// container holds the whole corpus; the group key becomes the blob
// name prefix.
type AzureStore struct {
	client    *azblob.Client
	container string
}

// NewAzureStore creates a blob-backed reference store.
func NewAzureStore(accountName, accountKey, container string) (*AzureStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &AzureStore{client: client, container: container}, nil
}

// Put uploads one sample as container/group/name.
func (s *AzureStore) Put(ctx context.Context, group, name string, jpegData []byte) error {
	blobName := path.Join(path.Clean(group), name)
	_, err := s.client.UploadBuffer(ctx, s.container, blobName, jpegData, nil)
	if err != nil {
		return fmt.Errorf("upload reference sample %s: %w", blobName, err)
	}
	return nil
}
