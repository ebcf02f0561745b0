package config

import (
	"encoding/json"
	"os"

	"github.com/avankov/pixvault/internal/flagx"
)

// jsonConfig mirrors Config for file overlays. Pointer fields distinguish
// "absent" from zero values so the overlay only touches what the file sets.
type jsonConfig struct {
	EndpointAddr        *string `json:"endpoint_addr"`
	DatabaseDSN         *string `json:"database_dsn"`
	IdentitySecretKey   *string `json:"identity_secret_key"`
	AssetIndexEndpoint  *string `json:"asset_index_endpoint"`
	AssetIndexKey       *string `json:"asset_index_key"`
	AssetIndexSecret    *string `json:"asset_index_secret"`
	AssetFolder         *string `json:"asset_folder"`
	S3Region            *string `json:"s3_region"`
	S3AccessKey         *string `json:"s3_access_key"`
	S3SecretKey         *string `json:"s3_secret_key"`
	S3Bucket            *string `json:"s3_bucket"`
	S3BaseEndpoint      *string `json:"s3_base_endpoint"`
	NATSEndpoint        *string `json:"nats_endpoint"`
	PageSize            *int    `json:"page_size"`
	DeleteRequiresOwner *bool   `json:"delete_requires_owner"`
}

// parseJSON overlays values from the file named by -c/-config, if any.
// An unreadable or invalid file panics: a requested config that cannot be
// honored should stop startup.
func parseJSON(config *Config) {
	path := flagx.JSONConfigFile()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &jsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	setIf(&config.EndpointAddr, c.EndpointAddr)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.IdentitySecretKey, c.IdentitySecretKey)
	setIf(&config.AssetIndexEndpoint, c.AssetIndexEndpoint)
	setIf(&config.AssetIndexKey, c.AssetIndexKey)
	setIf(&config.AssetIndexSecret, c.AssetIndexSecret)
	setIf(&config.AssetFolder, c.AssetFolder)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3AccessKey, c.S3AccessKey)
	setIf(&config.S3SecretKey, c.S3SecretKey)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setIf(&config.NATSEndpoint, c.NATSEndpoint)
	setIf(&config.PageSize, c.PageSize)
	setIf(&config.DeleteRequiresOwner, c.DeleteRequiresOwner)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
