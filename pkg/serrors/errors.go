package serrors

import "fmt"

// BaseError is a coded error carrying a locale key for presentation.
type BaseError struct {
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	LocaleKey    string            `json:"locale_key,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithTemplateData returns a copy of the error with template data attached.
func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	clone := *e
	clone.TemplateData = data
	return &clone
}

// Is matches on Code so copies produced by WithTemplateData compare equal.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
