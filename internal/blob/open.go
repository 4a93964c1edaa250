package blob

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted by Open for settings left empty in Options.
//
//	XSBENCH_BLOB_DRIVER        fs|s3|memory (default fs)
//	XSBENCH_BLOB_FS_ROOT       directory root for the fs driver
//	XSBENCH_BLOB_S3_BUCKET     bucket for the s3 driver (required)
//	XSBENCH_BLOB_S3_REGION     region (default us-east-1)
//	XSBENCH_BLOB_S3_ENDPOINT   custom endpoint, e.g. MinIO
//	XSBENCH_BLOB_S3_PATH_STYLE true|false
const (
	EnvDriver      = "XSBENCH_BLOB_DRIVER"
	EnvFSRoot      = "XSBENCH_BLOB_FS_ROOT"
	EnvS3Bucket    = "XSBENCH_BLOB_S3_BUCKET"
	EnvS3Region    = "XSBENCH_BLOB_S3_REGION"
	EnvS3Endpoint  = "XSBENCH_BLOB_S3_ENDPOINT"
	EnvS3PathStyle = "XSBENCH_BLOB_S3_PATH_STYLE"
)

// Options selects and configures a backend.
type Options struct {
	Driver Driver
	// Root is the fs driver directory.
	Root string
	S3   S3Config
}

// Open builds the Store described by opts, filling unset fields from the
// environment through getenv (os.Getenv when nil).
func Open(ctx context.Context, opts Options, getenv func(string) string) (Store, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	driver := opts.Driver
	if driver == "" {
		driver = Driver(getenv(EnvDriver))
	}
	if driver == "" {
		driver = DriverFilesystem
	}

	switch driver {
	case DriverFilesystem:
		root := opts.Root
		if root == "" {
			root = getenv(EnvFSRoot)
		}
		return NewFilesystem(root)
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		cfg := opts.S3
		if cfg.Bucket == "" {
			cfg.Bucket = getenv(EnvS3Bucket)
		}
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("%s required for the s3 blob driver", EnvS3Bucket)
		}
		if cfg.Region == "" {
			cfg.Region = getenv(EnvS3Region)
		}
		if cfg.Endpoint == "" {
			cfg.Endpoint = getenv(EnvS3Endpoint)
		}
		if !cfg.PathStyle {
			cfg.PathStyle = strings.EqualFold(getenv(EnvS3PathStyle), "true")
		}
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
