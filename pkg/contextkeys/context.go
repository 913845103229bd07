package contextkeys

// Custom type avoids collisions with other packages' context keys.
type contextKey string

// DBContextKey stores the request-scoped *gorm.DB in a context.
const DBContextKey = contextKey("db")
