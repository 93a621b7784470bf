package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags first, then the cross-field rules tags cannot
// express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	switch cfg.Storage.Type {
	case StorageFS:
		if cfg.Storage.FS.BasePath == "" {
			return fmt.Errorf("storage: fs.base_path is required for the fs store")
		}
	case StorageS3:
		if (cfg.Storage.S3.AccessKeyID == "") != (cfg.Storage.S3.SecretAccessKey == "") {
			return fmt.Errorf("storage: s3 access_key_id and secret_access_key must be set together")
		}
	}

	return nil
}
