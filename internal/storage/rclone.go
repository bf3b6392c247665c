// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"fmt"
	"strings"

	"doppio-engine/internal/engineerr"
)

// IsRcloneBacked reports whether spec is reached through an rclone remote
// rather than rsync/sftp directly.
func IsRcloneBacked(spec StorageSpec) bool {
	switch spec.(type) {
	case CloudflareR2, GoogleDrive, GoogleCloudStorage, Smb:
		return true
	default:
		return false
	}
}

// RcloneConfig renders the `[remoteName]` ini section for spec, suitable
// for a temp rclone config file, shared by GdriveMount and the
// TransferEngine's ad-hoc transfer remotes.
func RcloneConfig(spec StorageSpec, remoteName string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", remoteName)

	switch s := spec.(type) {
	case CloudflareR2:
		endpoint := s.Endpoint
		if endpoint == "" {
			endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", s.AccountID)
		}
		b.WriteString("type = s3\n")
		b.WriteString("provider = Cloudflare\n")
		fmt.Fprintf(&b, "access_key_id = %s\n", s.AccessKey)
		fmt.Fprintf(&b, "secret_access_key = %s\n", s.Secret)
		fmt.Fprintf(&b, "endpoint = %s\n", endpoint)
		b.WriteString("acl = private\n")

	case GoogleDrive:
		b.WriteString("type = drive\n")
		if s.ServiceAccountJSON != "" {
			fmt.Fprintf(&b, "service_account_credentials = %s\n", oneLine(s.ServiceAccountJSON))
		} else {
			fmt.Fprintf(&b, "token = {\"access_token\":%q,\"token_type\":\"Bearer\"}\n", s.OAuthToken)
		}
		if s.RootFolder != "" {
			fmt.Fprintf(&b, "root_folder_id = %s\n", s.RootFolder)
		}

	case GoogleCloudStorage:
		b.WriteString("type = google cloud storage\n")
		fmt.Fprintf(&b, "project_number = %s\n", s.ProjectID)
		fmt.Fprintf(&b, "service_account_credentials = %s\n", oneLine(s.ServiceAccountJSON))

	case Smb:
		b.WriteString("type = smb\n")
		fmt.Fprintf(&b, "host = %s\n", s.Host)
		if s.User != "" {
			fmt.Fprintf(&b, "user = %s\n", s.User)
		}
		if s.Password != "" {
			// rclone normally expects an obscured password (`rclone obscure`);
			// the engine has no in-process obscurer in the dependency set, so
			// this writes the plaintext and relies on the config file's 0600
			// permissions — documented in DESIGN.md as a known limitation.
			fmt.Fprintf(&b, "pass = %s\n", s.Password)
		}
		if s.Domain != "" {
			fmt.Fprintf(&b, "domain = %s\n", s.Domain)
		}

	default:
		return "", engineerr.InvalidInput("storage.RcloneConfig", fmt.Errorf("storage kind %q is not rclone-backed", spec.Kind()))
	}

	return b.String(), nil
}

// RclonePath renders the `remote:container/path` form TransferEngine passes
// to rclone for spec, joining in the bucket/share root where the backend
// has one.
func RclonePath(spec StorageSpec, remoteName, path string) (string, error) {
	path = strings.TrimPrefix(path, "/")
	switch s := spec.(type) {
	case CloudflareR2:
		return joinRclonePath(remoteName, s.Bucket, path), nil
	case GoogleCloudStorage:
		return joinRclonePath(remoteName, s.Bucket, path), nil
	case GoogleDrive:
		return joinRclonePath(remoteName, "", path), nil
	case Smb:
		return joinRclonePath(remoteName, s.Share, path), nil
	default:
		return "", engineerr.InvalidInput("storage.RclonePath", fmt.Errorf("storage kind %q is not rclone-backed", spec.Kind()))
	}
}

func joinRclonePath(remoteName, container, path string) string {
	if container == "" && path == "" {
		return remoteName + ":"
	}
	if path == "" {
		return fmt.Sprintf("%s:%s", remoteName, container)
	}
	if container == "" {
		return fmt.Sprintf("%s:%s", remoteName, path)
	}
	return fmt.Sprintf("%s:%s/%s", remoteName, container, path)
}

// oneLine collapses embedded newlines in a service-account JSON blob so it
// survives being written as a single ini value.
func oneLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", ""), "\n", "")
}
