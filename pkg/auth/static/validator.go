package static

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/osvaldoandrade/sqldojo/pkg/auth"
)

// learner is one accepted bearer token and the identity it maps to.
type learner struct {
	Token   string   `json:"token"`
	Subject string   `json:"subject,omitempty"`
	Email   string   `json:"email,omitempty"`
	Role    string   `json:"role,omitempty"`
	Scopes  []string `json:"scopes,omitempty"`
}

type validatorConfig struct {
	learner
	// Learners lists additional tokens, for classrooms sharing one server.
	Learners []learner `json:"learners,omitempty"`
}

type validator struct {
	learners []learner
}

// NewValidatorFromJSON accepts either a JSON string (the token) or an object
// with one inline learner and/or a "learners" list.
func NewValidatorFromJSON(raw json.RawMessage) (auth.Validator, error) {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("static auth: missing config")
	}

	var cfg validatorConfig
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &cfg.Token); err != nil {
			return nil, fmt.Errorf("static auth: invalid config: %w", err)
		}
	} else if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("static auth: invalid config: %w", err)
	}

	var all []learner
	if strings.TrimSpace(cfg.Token) != "" {
		all = append(all, cfg.learner)
	}
	all = append(all, cfg.Learners...)
	if len(all) == 0 {
		return nil, errors.New("static auth: token is required")
	}

	seen := map[string]bool{}
	for i := range all {
		l := &all[i]
		l.Token = strings.TrimSpace(l.Token)
		if l.Token == "" {
			return nil, fmt.Errorf("static auth: learner %d has no token", i)
		}
		if seen[l.Token] {
			return nil, fmt.Errorf("static auth: duplicate token for learner %d", i)
		}
		seen[l.Token] = true
		l.Subject = strings.TrimSpace(l.Subject)
		if l.Subject == "" {
			l.Subject = "static"
		}
		l.Role = strings.ToUpper(strings.TrimSpace(l.Role))
	}
	return &validator{learners: all}, nil
}

func (v *validator) Validate(token string) (*auth.Claims, error) {
	token = strings.TrimSpace(token)
	for _, l := range v.learners {
		if subtle.ConstantTimeCompare([]byte(token), []byte(l.Token)) == 1 {
			return &auth.Claims{
				Subject: l.Subject,
				Email:   l.Email,
				Role:    l.Role,
				Scopes:  l.Scopes,
				Raw:     map[string]any{"sub": l.Subject, "role": l.Role},
			}, nil
		}
	}
	return nil, errors.New("invalid token")
}

func init() {
	auth.RegisterProvider("static", NewValidatorFromJSON)
}
