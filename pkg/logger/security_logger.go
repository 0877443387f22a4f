package logger

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"keyword-research-go/pkg/utils"
)

var (
	urlPattern     = regexp.MustCompile(`https?://[^\s"']+`)
	secretPattern  = regexp.MustCompile(`(?i)(key|token|secret|password)[=:]\s*[^\s,;]+`)
	pplxKeyPattern = regexp.MustCompile(`pplx-[A-Za-z0-9]+`)
)

// SecurityLogger provides methods to safely log sensitive information
type SecurityLogger struct {
	*Logger
}

// NewSecurityLogger creates a security-aware logger on top of base.
func NewSecurityLogger(base *Logger) *SecurityLogger {
	return &SecurityLogger{Logger: base}
}

// MaskCredential replaces a secret with a short stable fingerprint.
func (sl *SecurityLogger) MaskCredential(secret string) string {
	if secret == "" {
		return "unset"
	}
	return "cred#" + utils.ShortFingerprint(secret)
}

// MaskAPIEndpoint keeps the host of an endpoint and hides path and query.
func (sl *SecurityLogger) MaskAPIEndpoint(apiURL string) string {
	if apiURL == "" {
		return ""
	}

	parsed, err := url.Parse(apiURL)
	if err != nil || parsed.Host == "" {
		return "api-endpoint#" + utils.ShortFingerprint(apiURL)
	}
	return fmt.Sprintf("%s/api#%s", parsed.Host, utils.ShortFingerprint(apiURL))
}

// MaskKeywords summarises a keyword list instead of logging it whole.
func (sl *SecurityLogger) MaskKeywords(keywords []string) string {
	if len(keywords) == 0 {
		return "no_keywords"
	}
	if len(keywords) <= 3 {
		return fmt.Sprintf("keywords_count=%d", len(keywords))
	}
	return fmt.Sprintf("keywords_count=%d,sample=[%s,%s,...]", len(keywords), keywords[0], keywords[1])
}

// MaskSensitiveData masks values whose key names suggest secrets, endpoints or keyword lists.
func (sl *SecurityLogger) MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))

	for key, value := range data {
		lowerKey := strings.ToLower(key)
		str, isString := value.(string)

		switch {
		case isString && (strings.Contains(lowerKey, "password") ||
			strings.Contains(lowerKey, "secret") ||
			strings.Contains(lowerKey, "api_key") ||
			strings.Contains(lowerKey, "login") ||
			strings.Contains(lowerKey, "email")):
			masked[key] = sl.MaskCredential(str)
		case isString && strings.Contains(lowerKey, "url"):
			masked[key] = sl.MaskAPIEndpoint(str)
		case strings.Contains(lowerKey, "keyword"):
			if keywords, ok := value.([]string); ok {
				masked[key] = sl.MaskKeywords(keywords)
			} else {
				masked[key] = value
			}
		default:
			masked[key] = value
		}
	}

	return masked
}

// MaskLogMessage masks URLs, API keys and inline secrets in a free-form message.
func (sl *SecurityLogger) MaskLogMessage(message string) string {
	masked := urlPattern.ReplaceAllStringFunc(message, sl.MaskAPIEndpoint)
	masked = pplxKeyPattern.ReplaceAllStringFunc(masked, sl.MaskCredential)
	return secretPattern.ReplaceAllString(masked, "${1}=***")
}

// SafeInfo logs info with automatic sensitive data masking
func (sl *SecurityLogger) SafeInfo(msg string, fields map[string]interface{}) {
	sl.with(fields).Info(sl.MaskLogMessage(msg))
}

// SafeWarn logs warning with automatic sensitive data masking
func (sl *SecurityLogger) SafeWarn(msg string, fields map[string]interface{}) {
	sl.with(fields).Warn(sl.MaskLogMessage(msg))
}

// SafeDebug logs debug with automatic sensitive data masking
func (sl *SecurityLogger) SafeDebug(msg string, fields map[string]interface{}) {
	sl.with(fields).Debug(sl.MaskLogMessage(msg))
}

// SafeError logs error with automatic sensitive data masking
func (sl *SecurityLogger) SafeError(msg string, err error, fields map[string]interface{}) {
	l := sl.with(fields)
	if err != nil {
		l = l.WithField("error", sl.MaskLogMessage(err.Error()))
	}
	l.Error(sl.MaskLogMessage(msg))
}

func (sl *SecurityLogger) with(fields map[string]interface{}) *Logger {
	if fields == nil {
		return sl.Logger
	}
	return sl.Logger.WithFields(sl.MaskSensitiveData(fields))
}
