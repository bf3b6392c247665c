// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"doppio-engine/internal/engineerr"
)

// r2Client builds an s3.Client pointed at a Cloudflare R2 endpoint. R2 is
// S3-compatible, so the stock aws-sdk-go-v2/s3 client works unmodified
// once the endpoint and static credentials are overridden.
func r2Client(spec CloudflareR2) *s3.Client {
	endpoint := spec.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", spec.AccountID)
	}
	creds := credentials.NewStaticCredentialsProvider(spec.AccessKey, spec.Secret, "")
	return s3.New(s3.Options{
		Region:       "auto",
		Credentials:  creds,
		BaseEndpoint: aws.String(endpoint),
	})
}

// validateR2 confirms spec's bucket exists and is reachable with the given
// credentials via HeadBucket.
func validateR2(ctx context.Context, spec CloudflareR2) error {
	if spec.Bucket == "" {
		return engineerr.InvalidInput("storage.validateR2", fmt.Errorf("bucket is required"))
	}
	client := r2Client(spec)
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(spec.Bucket)})
	if err != nil {
		return engineerr.IO("storage.validateR2", fmt.Errorf("head bucket %q: %w", spec.Bucket, err))
	}
	return nil
}
