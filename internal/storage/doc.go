// SPDX-License-Identifier: MPL-2.0

// Package storage implements the StorageRegistry and the
// StorageSpec tagged union it decodes storages.json entries into.
// Existence/health checks per backend use the real client each backend's
// wire protocol corresponds to — aws-sdk-go-v2/s3 for CloudflareR2,
// google.golang.org/api/drive/v3 for GoogleDrive, google.golang.org/api's
// storage/v1 for GoogleCloudStorage — rather than shelling out, following
// the corpus's preference for an in-process SDK wherever one exists in the
// dependency set. SshRemote and Smb have no such in-process client in the
// dependency set and are validated either via a narrow SFTP stat (SshRemote)
// or deferred to the rclone invocation the TransferEngine would run anyway
// (Smb).
package storage
