package domain

import (
	"regexp"
	"strings"
	"time"
)

// DefaultIntegration is preselected on the lead form
const DefaultIntegration = "Tráfego"

// Integrations offered on the lead form
var Integrations = []string{"Tráfego", "Resíduos", "Iluminação", "Segurança", "Água", "Outro"}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Lead is a contact captured from the landing page
type Lead struct {
	ID         string    `json:"id"`
	Orgao      string    `json:"orgao"`
	Nome       string    `json:"nome"`
	Email      string    `json:"email"`
	Integracao string    `json:"integracao"`
	CreatedAt  time.Time `json:"created_at"`
}

// FieldErrors maps a form field to its validation message
type FieldErrors map[string]string

// Error implements error
func (fe FieldErrors) Error() string {
	return "invalid lead"
}

// Normalize trims input and applies the default integration
func (l *Lead) Normalize() {
	l.Orgao = strings.TrimSpace(l.Orgao)
	l.Nome = strings.TrimSpace(l.Nome)
	l.Email = strings.TrimSpace(l.Email)
	l.Integracao = strings.TrimSpace(l.Integracao)
	if l.Integracao == "" {
		l.Integracao = DefaultIntegration
	}
}

// Validate returns per-field messages, or nil when the lead is acceptable
func (l *Lead) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(l.Orgao) == "" {
		errs["orgao"] = "Informe o órgão ou cidade."
	}
	if strings.TrimSpace(l.Nome) == "" {
		errs["nome"] = "Informe seu nome."
	}
	if strings.TrimSpace(l.Email) == "" {
		errs["email"] = "Informe o e-mail institucional."
	} else if !emailPattern.MatchString(l.Email) {
		errs["email"] = "Use um e-mail válido."
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
