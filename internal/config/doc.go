// Package config loads the holdlens service configuration.
//
// # Configuration Sources
//
// Configuration is assembled in order of increasing precedence:
//
//	1. Default() values
//	2. A YAML file: $HOLDLENS_CONFIG_FILE, config.yaml or configs/config.yaml
//	3. Environment variables, after a .env file has been loaded if present
//
// # Environment Variables
//
// Variables follow the pattern HOLDLENS_<SECTION>_<KEY>. Each key also
// answers to its bare name, so deployments that already export the common
// variables need no renaming:
//
//	HOLDLENS_SERVER_PORT        or PORT
//	HOLDLENS_STORAGE_AWS_REGION or AWS_REGION
//	HOLDLENS_STORAGE_S3_PORTFOLIO_BUCKET or S3_PORTFOLIO_BUCKET
//	HOLDLENS_AI_GEMINI_API_KEY  or GEMINI_API_KEY
//	HOLDLENS_SECURITY_FRONTEND_ORIGINS or FRONTEND_ORIGINS (comma separated)
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
