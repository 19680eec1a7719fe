package email

// Message - письмо одному получателю. Body обязателен, HTMLBody опционален
// и отправляется как альтернативная часть.
type Message struct {
	To       string
	Subject  string
	Body     string
	HTMLBody string
}

// TemplateData представляет данные для шаблонов писем
type TemplateData map[string]interface{}
