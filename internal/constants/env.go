// Package constants provides centralized definitions of constants used throughout the application
package constants

// Environment variable names
const (
	// EnvServerPort is the port the API server listens on
	EnvServerPort = "PORT"
	// EnvLogLevel is the logrus level name
	EnvLogLevel = "LOG_LEVEL"

	// EnvDBHost is the database host
	EnvDBHost = "DB_HOST"
	// EnvDBPort is the database port
	EnvDBPort = "DB_PORT"
	// EnvDBUser is the database user
	EnvDBUser = "DB_USER"
	// EnvDBPassword is the database password
	EnvDBPassword = "DB_PASSWORD"
	// EnvDBName is the database name
	EnvDBName = "DB_NAME"
	// EnvDBSSLMode enables TLS towards the database when set to "enable"
	EnvDBSSLMode = "DB_SSL_MODE"

	// EnvMarketplaceFeeBps is the marketplace fee in basis points taken when a job is completed
	EnvMarketplaceFeeBps = "MARKETPLACE_FEE_BPS"
	// EnvMarketplaceTreasury is the address receiving marketplace fees
	EnvMarketplaceTreasury = "MARKETPLACE_TREASURY"
	// EnvCollateralLockPeriod is how long escrow stays locked after a job is opened
	EnvCollateralLockPeriod = "COLLATERAL_LOCK_PERIOD"
	// EnvSignatureWindow is the maximum age of a signed RPC request
	EnvSignatureWindow = "SIGNATURE_WINDOW"
	// EnvFaucetEnabled allows balance.deposit over the API (development only)
	EnvFaucetEnabled = "FAUCET_ENABLED"

	// EnvServerAddress is the API address used by the CLI
	EnvServerAddress = "EACC_SERVER_ADDRESS"
	// EnvPrivateKey is the hex encoded secp256k1 key the CLI signs requests with
	EnvPrivateKey = "EACC_PRIVATE_KEY"
)
