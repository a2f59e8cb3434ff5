package minio

import "time"

// Config holds the connection settings of the image object store.
type Config struct {
	// Endpoint of the MinIO or S3 server, e.g. "localhost:9000".
	Endpoint string `yaml:"endpoint" envconfig:"ENDPOINT"`

	AccessKeyID     string `yaml:"access_key_id" envconfig:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"SECRET_ACCESS_KEY"`

	// UseSSL selects https.
	UseSSL bool `yaml:"use_ssl" envconfig:"USE_SSL"`

	// BucketName is created on connect when missing.
	BucketName string `yaml:"bucket_name" envconfig:"BUCKET_NAME"`

	// Region for bucket creation, e.g. "us-east-1".
	Region string `yaml:"region" envconfig:"REGION"`

	// Timeout bounds a single request. Zero means no deadline.
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// DefaultConfig returns settings for a local MinIO.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:   "localhost:9000",
		BucketName: "vecsearch-images",
		Region:     "us-east-1",
		Timeout:    30 * time.Second,
	}
}
