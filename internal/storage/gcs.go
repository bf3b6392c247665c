// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	storageapi "google.golang.org/api/storage/v1"

	"doppio-engine/internal/engineerr"
)

// gcsService builds a storage/v1 service for spec's service-account
// credential.
func gcsService(ctx context.Context, spec GoogleCloudStorage) (*storageapi.Service, error) {
	if spec.ServiceAccountJSON == "" {
		return nil, engineerr.InvalidInput("storage.gcsService", fmt.Errorf("service_account is required"))
	}
	svc, err := storageapi.NewService(ctx, option.WithCredentialsJSON([]byte(spec.ServiceAccountJSON)))
	if err != nil {
		return nil, engineerr.IO("storage.gcsService", fmt.Errorf("building gcs client: %w", err))
	}
	return svc, nil
}

// validateGCS confirms spec's bucket exists and is readable.
func validateGCS(ctx context.Context, spec GoogleCloudStorage) error {
	if spec.Bucket == "" {
		return engineerr.InvalidInput("storage.validateGCS", fmt.Errorf("bucket is required"))
	}
	svc, err := gcsService(ctx, spec)
	if err != nil {
		return err
	}
	if _, err := svc.Buckets.Get(spec.Bucket).Context(ctx).Do(); err != nil {
		return engineerr.IO("storage.validateGCS", fmt.Errorf("get bucket %q: %w", spec.Bucket, err))
	}
	return nil
}
