// Package awsx builds AWS SDK configuration shared by the S3, SES and SNS
// clients and classifies AWS API errors for logging.
package awsx

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/smithy-go"
)

// loadDefaultConfig is a seam for tests.
var loadDefaultConfig = config.LoadDefaultConfig

// Options select the region and, optionally, static credentials. Without
// static credentials the default chain (env, shared files, IAM role) applies.
type Options struct {
	Region    string
	AccessKey string
	SecretKey string
}

func Load(ctx context.Context, o Options) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKey != "" && o.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, ""),
		))
	}
	return loadDefaultConfig(ctx, opts...)
}

// ErrorCode returns the AWS API error code carried by err, or "" when err
// did not come from an AWS API.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
