package archive

import "time"

// S3Config configures the S3 archive. Endpoint and ForcePathStyle cover
// S3-compatible services such as MinIO.
type S3Config struct {
	Bucket         string        `env:"ARCHIVE_S3_BUCKET"` // Empty disables the S3 archive.
	Region         string        `env:"ARCHIVE_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string        `env:"ARCHIVE_S3_ACCESS_KEY_ID"`
	SecretKey      string        `env:"ARCHIVE_S3_SECRET_KEY"`
	Endpoint       string        `env:"ARCHIVE_S3_ENDPOINT"`
	ForcePathStyle bool          `env:"ARCHIVE_S3_FORCE_PATH_STYLE" envDefault:"false"`
	Prefix         string        `env:"ARCHIVE_PREFIX" envDefault:"outcomes"`
	UploadTimeout  time.Duration `env:"ARCHIVE_UPLOAD_TIMEOUT" envDefault:"30s"`
}

// Enabled reports whether a bucket is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// LocalConfig configures the filesystem archive.
type LocalConfig struct {
	Dir    string `env:"ARCHIVE_DIR"` // Empty disables the local archive.
	Prefix string `env:"ARCHIVE_PREFIX" envDefault:"outcomes"`
}

// Enabled reports whether a directory is configured.
func (c LocalConfig) Enabled() bool {
	return c.Dir != ""
}
