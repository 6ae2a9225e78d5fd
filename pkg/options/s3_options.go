package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*S3Options)(nil)

// S3Options configure the off-host snapshot backup. Backups are disabled while
// Endpoint is empty.
type S3Options struct {
	Endpoint        string        `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string        `json:"access-key-id" mapstructure:"access-key-id"`
	SecretAccessKey string        `json:"secret-access-key" mapstructure:"secret-access-key"`
	UseSSL          bool          `json:"use-ssl" mapstructure:"use-ssl"`
	BucketName      string        `json:"bucket-name" mapstructure:"bucket-name"`
	Region          string        `json:"region" mapstructure:"region"`
	ObjectKey       string        `json:"object-key" mapstructure:"object-key"`
	Timeout         time.Duration `json:"timeout" mapstructure:"timeout"`
}

func NewS3Options() *S3Options {
	return &S3Options{
		UseSSL:     true,
		BucketName: "fleethub",
		Region:     "us-east-1",
		ObjectKey:  "snapshots/registry",
		Timeout:    30 * time.Second,
	}
}

// Enabled reports whether an endpoint was configured.
func (o *S3Options) Enabled() bool {
	return o != nil && o.Endpoint != ""
}

func (o *S3Options) Validate() []error {
	if !o.Enabled() {
		return nil
	}

	errors := []error{}

	if o.BucketName == "" {
		errors = append(errors, fmt.Errorf("--s3.bucket-name is required when --s3.endpoint is set"))
	}
	if o.ObjectKey == "" {
		errors = append(errors, fmt.Errorf("--s3.object-key is required when --s3.endpoint is set"))
	}
	if o.Timeout <= 0 {
		errors = append(errors, fmt.Errorf("--s3.timeout must be positive"))
	}

	return errors
}

func (o *S3Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, "s3.endpoint", o.Endpoint, "S3 service endpoint (e.g. s3.amazonaws.com or minio.local). Backups are disabled when empty.")
	fs.StringVar(&o.AccessKeyID, "s3.access-key-id", o.AccessKeyID, "S3 access key ID")
	fs.StringVar(&o.SecretAccessKey, "s3.secret-access-key", o.SecretAccessKey, "S3 secret access key")
	fs.BoolVar(&o.UseSSL, "s3.use-ssl", o.UseSSL, "Enable SSL for S3 connection")
	fs.StringVar(&o.BucketName, "s3.bucket-name", o.BucketName, "S3 bucket name for snapshot backups")
	fs.StringVar(&o.Region, "s3.region", o.Region, "S3 region")
	fs.StringVar(&o.ObjectKey, "s3.object-key", o.ObjectKey, "Object key of the snapshot backup; the snapshot file extension is appended")
	fs.DurationVar(&o.Timeout, "s3.timeout", o.Timeout, "Timeout for a single backup upload")
}
