// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"doppio-engine/internal/engineerr"
)

// driveService builds a drive/v3 service for spec. Only an already-issued
// credential is ever consumed here — the OAuth authorization flow itself is
// out of scope, owned by the settings GUI.
func driveService(ctx context.Context, spec GoogleDrive) (*drive.Service, error) {
	var opt option.ClientOption
	switch {
	case spec.ServiceAccountJSON != "":
		opt = option.WithCredentialsJSON([]byte(spec.ServiceAccountJSON))
	case spec.OAuthToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: spec.OAuthToken})
		opt = option.WithTokenSource(ts)
	default:
		return nil, engineerr.InvalidInput("storage.driveService", fmt.Errorf("neither oauth_token nor service_account is set"))
	}

	svc, err := drive.NewService(ctx, opt)
	if err != nil {
		return nil, engineerr.IO("storage.driveService", fmt.Errorf("building drive client: %w", err))
	}
	return svc, nil
}

// validateGoogleDrive confirms the configured folder (or, absent one, the
// account root) is reachable with the stored credential.
func validateGoogleDrive(ctx context.Context, spec GoogleDrive) error {
	svc, err := driveService(ctx, spec)
	if err != nil {
		return err
	}

	folderID := spec.RootFolder
	if folderID == "" {
		folderID = "root"
	}
	if _, err := svc.Files.Get(folderID).Fields("id", "name").Context(ctx).Do(); err != nil {
		return engineerr.IO("storage.validateGoogleDrive", fmt.Errorf("get folder %q: %w", folderID, err))
	}
	return nil
}
