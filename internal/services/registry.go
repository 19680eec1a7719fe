package services

// ServiceContainer содержит все сервисы приложения
type ServiceContainer struct {
	AuthService AuthService
	UserService UserService
}
