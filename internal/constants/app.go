package constants

// Application Information
const (
	AppName    = "Identity Service"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// User Roles
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// Token Settings
const (
	TokenTypeBearer = "Bearer"
)

// Cache Key Prefixes
const (
	CacheKeyPrefix  = "identity:"
	CacheKeyProfile = CacheKeyPrefix + "profile:"
)
