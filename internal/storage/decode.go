// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"encoding/json"
	"fmt"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/extstate"
)

// Decode converts a raw storages.json entry into its typed StorageSpec,
// dispatching on the entry's Kind discriminant.
func Decode(raw extstate.RawStorageEntry) (StorageSpec, error) {
	switch raw.Kind {
	case (LocalFs{}).Kind():
		var v struct {
			Root string `json:"root"`
		}
		if err := unmarshal(raw.Config, &v); err != nil {
			return nil, err
		}
		return LocalFs{Root: v.Root}, nil

	case (CloudflareR2{}).Kind():
		var v struct {
			AccountID string `json:"account"`
			AccessKey string `json:"access_key"`
			Secret    string `json:"secret"`
			Bucket    string `json:"bucket"`
			Endpoint  string `json:"endpoint"`
		}
		if err := unmarshal(raw.Config, &v); err != nil {
			return nil, err
		}
		return CloudflareR2{
			AccountID: v.AccountID, AccessKey: v.AccessKey, Secret: v.Secret,
			Bucket: v.Bucket, Endpoint: v.Endpoint,
		}, nil

	case (GoogleDrive{}).Kind():
		var v struct {
			OAuthToken         string `json:"oauth_token"`
			ServiceAccountJSON string `json:"service_account"`
			RootFolder         string `json:"root_folder"`
		}
		if err := unmarshal(raw.Config, &v); err != nil {
			return nil, err
		}
		return GoogleDrive{
			OAuthToken: v.OAuthToken, ServiceAccountJSON: v.ServiceAccountJSON,
			RootFolder: v.RootFolder,
		}, nil

	case (GoogleCloudStorage{}).Kind():
		var v struct {
			ProjectID          string `json:"project"`
			ServiceAccountJSON string `json:"sa_json"`
			Bucket             string `json:"bucket"`
		}
		if err := unmarshal(raw.Config, &v); err != nil {
			return nil, err
		}
		return GoogleCloudStorage{ProjectID: v.ProjectID, ServiceAccountJSON: v.ServiceAccountJSON, Bucket: v.Bucket}, nil

	case (SshRemote{}).Kind():
		var v struct {
			HostID string `json:"host_id"`
			Root   string `json:"root"`
		}
		if err := unmarshal(raw.Config, &v); err != nil {
			return nil, err
		}
		return SshRemote{HostID: v.HostID, Root: v.Root}, nil

	case (Smb{}).Kind():
		var v struct {
			Host     string `json:"host"`
			Share    string `json:"share"`
			User     string `json:"user"`
			Password string `json:"password"`
			Domain   string `json:"domain"`
		}
		if err := unmarshal(raw.Config, &v); err != nil {
			return nil, err
		}
		return Smb{Host: v.Host, Share: v.Share, User: v.User, Password: v.Password, Domain: v.Domain}, nil

	default:
		return nil, engineerr.InvalidInput("storage.Decode", fmt.Errorf("unknown storage kind %q", raw.Kind))
	}
}

func unmarshal(data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return engineerr.InvalidInput("storage.Decode", fmt.Errorf("decoding config: %w", err))
	}
	return nil
}
