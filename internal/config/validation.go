package config

import (
	"fmt"
	"net/url"
	"strings"

	"sessionsplice/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration for values that cannot work. The OAuth
// client is not required here; see RequireClient.
func (c Config) Validate() error {
	var errs ValidationErrors

	for field, raw := range map[string]string{
		"provider.authUrl":     c.Provider.AuthURL,
		"provider.tokenUrl":    c.Provider.TokenURL,
		"provider.userInfoUrl": c.Provider.UserInfoURL,
	} {
		if raw == "" {
			continue
		}
		if err := validateURL(raw); err != nil {
			errs.Add(field, err.Error(), raw)
		}
	}

	if !strings.HasPrefix(c.Capture.CallbackPath, "/") {
		errs.Add("capture.callbackPath", "must start with '/'", c.Capture.CallbackPath)
	}
	if c.Capture.Timeout <= 0 {
		errs.Add("capture.timeout", "must be positive", c.Capture.Timeout)
	}

	if strings.TrimSpace(c.Target.AppName) == "" && c.Target.DatabasePath == "" {
		errs.Add("target.appName", "is required when target.databasePath is not set")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs.Add("logging.level", err.Error(), c.Logging.Level)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// RequireClient reports a ConfigurationError when no OAuth client ID is set.
func (c Config) RequireClient() error {
	if strings.TrimSpace(c.Provider.ClientID) != "" {
		return nil
	}
	return NewConfigurationErrorWithDetails("", "provider", "validation",
		"no OAuth client ID configured", "",
		[]string{
			"set provider.clientId in " + configFileName,
			"or export " + EnvClientID,
		})
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http(s) URL")
	}
	if u.Host == "" {
		return fmt.Errorf("must include a host")
	}
	return nil
}
