package email

import "context"

// Provider доставляет письма. Ошибка означает, что письмо не ушло.
type Provider interface {
	Send(ctx context.Context, msg *Message) error
	Validate() error
}

// TemplateRenderer определяет интерфейс для рендеринга шаблонов
type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
	AddTemplate(name string, template string) error
}
