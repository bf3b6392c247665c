// SPDX-License-Identifier: MPL-2.0

package storage

// StorageSpec is the tagged-sum interface every storage backend payload
// implements, mirroring skill.Operation's Kind-discriminant shape.
type StorageSpec interface {
	Kind() string
}

// LocalFs is a directory on the engine's own filesystem.
type LocalFs struct {
	Root string
}

func (LocalFs) Kind() string { return "local_fs" }

// CloudflareR2 is an S3-compatible bucket fronted by Cloudflare R2.
// Endpoint is optional; when empty it is derived from AccountID per R2's
// convention (https://<account>.r2.cloudflarestorage.com).
type CloudflareR2 struct {
	AccountID string
	AccessKey string
	Secret    string
	Bucket    string
	Endpoint  string
}

func (CloudflareR2) Kind() string { return "cloudflare_r2" }

// GoogleDrive is a Drive folder, authorized either by a bare OAuth access
// token or a service-account JSON blob. Exactly one of OAuthToken or
// ServiceAccountJSON is set; the OAuth *flow* producing OAuthToken lives
// outside the engine per the Non-goals — this struct only ever holds an
// already-issued token.
type GoogleDrive struct {
	OAuthToken         string
	ServiceAccountJSON string
	RootFolder         string
}

func (GoogleDrive) Kind() string { return "google_drive" }

// GoogleCloudStorage is a GCS bucket authorized by a service-account JSON
// blob.
type GoogleCloudStorage struct {
	ProjectID          string
	ServiceAccountJSON string
	Bucket             string
}

func (GoogleCloudStorage) Kind() string { return "gcs" }

// SshRemote is a directory on a named host, reachable the same way a Host
// transfer endpoint is. TransferEngine never dispatches against this kind
// directly; callers re-express it as a Host endpoint
// first; StorageRegistry.Validate uses it for a narrow existence check.
type SshRemote struct {
	HostID string
	Root   string
}

func (SshRemote) Kind() string { return "ssh_remote" }

// Smb is a Windows/Samba share, consumed only through rclone (no SMB client
// lives in the dependency set — see DESIGN.md).
type Smb struct {
	Host     string
	Share    string
	User     string
	Password string
	Domain   string
}

func (Smb) Kind() string { return "smb" }
