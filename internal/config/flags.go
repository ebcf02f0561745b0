package config

import (
	"flag"
	"os"

	"github.com/avankov/pixvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   identity-provider HMAC secret
//	-i string   asset index base endpoint
//	-k string   asset index API key
//	-x string   asset index API secret
//	-f string   asset index folder
//	-g string   S3 region
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-e string   S3 base endpoint
//	-n string   NATS endpoint ("" disables invalidation publishing)
//	-l int      catalog page size
//	-o bool     require image ownership on delete
//
// Args are first filtered through flagx.FilterArgs so flags owned by other
// loaders (like -c/-config) do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-i", "-k", "-x", "-f", "-g", "-u", "-p", "-b", "-e", "-n", "-l", "-o",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.IdentitySecretKey, "s", config.IdentitySecretKey, "identity token secret")
	fs.StringVar(&config.AssetIndexEndpoint, "i", config.AssetIndexEndpoint, "asset index endpoint")
	fs.StringVar(&config.AssetIndexKey, "k", config.AssetIndexKey, "asset index API key")
	fs.StringVar(&config.AssetIndexSecret, "x", config.AssetIndexSecret, "asset index API secret")
	fs.StringVar(&config.AssetFolder, "f", config.AssetFolder, "asset index folder")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.NATSEndpoint, "n", config.NATSEndpoint, "NATS endpoint")
	fs.IntVar(&config.PageSize, "l", config.PageSize, "catalog page size")
	fs.BoolVar(&config.DeleteRequiresOwner, "o", config.DeleteRequiresOwner, "require ownership on image delete")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
