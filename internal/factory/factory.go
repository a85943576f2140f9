package factory

import (
	"fmt"

	"harvestguard/internal/config"
	"harvestguard/internal/curation"
	"harvestguard/internal/model"
)

// BackendType identifies a model weight-loading backend.
type BackendType string

const (
	// DebugBackend loads the built-in pipeline smoke-test models.
	DebugBackend BackendType = "debug"
)

// StoreType identifies a reference store implementation.
type StoreType string

const (
	// LocalStore writes reference samples to the local filesystem.
	LocalStore StoreType = "local"
	// AzureStore writes reference samples to Azure blob storage.
	AzureStore StoreType = "azure"
)

// CreateBackend returns the model backend for the configured type.
func CreateBackend(backendType BackendType) (model.Backend, error) {
	switch backendType {
	case DebugBackend:
		return model.DebugBackend{}, nil
	default:
		return nil, fmt.Errorf("unsupported model backend: %s", backendType)
	}
}

// CreateReferenceStore returns the reference store for the configured type.
func CreateReferenceStore(storeType StoreType, cfg *config.Config, localRoot string) (curation.ReferenceStore, error) {
	switch storeType {
	case LocalStore:
		return curation.NewFSStore(localRoot), nil
	case AzureStore:
		if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" {
			return nil, fmt.Errorf("azure reference store requires AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY")
		}
		return curation.NewAzureStore(cfg.AzureAccountName, cfg.AzureAccountKey, "reference")
	default:
		return nil, fmt.Errorf("unsupported reference store: %s", storeType)
	}
}
