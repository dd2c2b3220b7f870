// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess     = "success"
	KeyInternal    = "error.internal"
	KeyRateLimited = "error.rate_limited"
	KeyUpstream    = "error.upstream_unavailable"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Users
	KeyUserNotFound     = "user.not_found"
	KeyUserDeleted      = "user.deleted"
	KeyFamilyNotFound   = "family.not_found"
	KeyFamilyCreated    = "family.created"
	KeyIntegrityFailure = "user.integrity_failure"

	// Products
	KeyProductNotFound      = "product.not_found"
	KeyProductSearchMissing = "product.search_query_missing"
	KeyProductConflict      = "product.conflict"

	// Stock
	KeyStockNotFound        = "stock.not_found"
	KeyStockRemoved         = "stock.removed"
	KeyStockInvalidQuantity = "stock.invalid_quantity"

	// Consumption
	KeyConsumptionInvalidStatus = "consumption.invalid_status"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
)
