package contextkeys

// Ключи gin.Context, которые выставляет middleware аутентификации
const (
	IdentityKey    = "identity"
	CurrentUserKey = "currentUser"
)
