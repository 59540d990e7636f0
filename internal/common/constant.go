package common

// TokenTypeBearer is reported as token_type in login responses and expected
// as the Authorization header scheme.
const TokenTypeBearer = "bearer"

// AuthorizationHeaderName carries the bearer token on inbound requests.
const AuthorizationHeaderName = "Authorization"
