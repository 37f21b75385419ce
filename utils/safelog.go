// utils/safelog.go
// ============================================================================
// SAFE LOGGING - masks personal and financial data in production
// ============================================================================

package utils

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

var (
	// IsProduction enables masking of sensitive values.
	IsProduction = os.Getenv("GIN_MODE") == "release" ||
		os.Getenv("ENVIRONMENT") == "production" ||
		os.Getenv("ENV") == "production"

	// LogLevel filters messages (DEBUG, INFO, WARN, ERROR)
	LogLevel = getLogLevel()
)

const (
	LogLevelDebug = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func getLogLevel() int {
	return parseLogLevel(os.Getenv("LOG_LEVEL"))
}

func parseLogLevel(level string) int {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// ============================================================================
// MASKING PATTERNS
// ============================================================================

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	amountWithCurrencyRegex = regexp.MustCompile(`(\$\s*\d+([.,]\d{1,2})?)|(\b\d+([.,]\d{1,2})?\s*(€|EUR|USD|GBP|£)\b)`)

	bearerRegex = regexp.MustCompile(`(?i)bearer\s+[a-z0-9._~+/=-]+`)

	uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// ============================================================================
// MASKING
// ============================================================================

// MaskString masks sensitive data inside a free-form message.
func MaskString(input string) string {
	if !IsProduction {
		return input
	}

	result := input
	result = bearerRegex.ReplaceAllString(result, "Bearer ***")
	result = emailRegex.ReplaceAllString(result, "***@***.***")
	result = amountWithCurrencyRegex.ReplaceAllString(result, "***")
	result = uuidRegex.ReplaceAllStringFunc(result, shortenID)

	return result
}

// MaskID keeps the first 8 characters of an identifier.
func MaskID(id string) string {
	if !IsProduction {
		return id
	}
	return shortenID(id)
}

func shortenID(id string) string {
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "..."
}

// ============================================================================
// LEVELLED LOGGING
// ============================================================================

// SafeDebug logs only when LOG_LEVEL=DEBUG.
func SafeDebug(format string, args ...interface{}) {
	if LogLevel > LogLevelDebug {
		return
	}
	log.Printf("[DEBUG] %s", MaskString(fmt.Sprintf(format, args...)))
}

func SafeInfo(format string, args ...interface{}) {
	if LogLevel > LogLevelInfo {
		return
	}
	log.Printf("[INFO] %s", MaskString(fmt.Sprintf(format, args...)))
}

func SafeWarn(format string, args ...interface{}) {
	if LogLevel > LogLevelWarn {
		return
	}
	log.Printf("[WARN] %s", MaskString(fmt.Sprintf(format, args...)))
}

func SafeError(format string, args ...interface{}) {
	log.Printf("[ERROR] %s", MaskString(fmt.Sprintf(format, args...)))
}

// ============================================================================
// DOMAIN LOGGING
// ============================================================================

// LogExpenseAction logs an expense mutation without amounts or descriptions.
func LogExpenseAction(action string, expenseID string, userID string) {
	log.Printf("[Expenses] %s - Expense: %s User: %s", action, MaskID(expenseID), MaskID(userID))
}

// LogInsightAction logs a step of insight generation.
func LogInsightAction(action string, userID string, expenseCount int) {
	log.Printf("[Insights] %s - User: %s Expenses: %d", action, MaskID(userID), expenseCount)
}

// LogAPIRequest logs one API request. IDs in the path are shortened in
// production.
func LogAPIRequest(method string, path string, userID string, statusCode int, duration string) {
	if IsProduction {
		path = uuidRegex.ReplaceAllStringFunc(path, shortenID)
	}
	if userID == "" {
		userID = "-"
	}
	log.Printf("[API] %s %s - User: %s Status: %d Duration: %s",
		method, path, MaskID(userID), statusCode, duration)
}

// LogWebSocket logs a websocket lifecycle event.
func LogWebSocket(action string, userID string) {
	log.Printf("[WS] %s - User: %s", action, MaskID(userID))
}

// GetEnvMode returns "production" or "development".
func GetEnvMode() string {
	if IsProduction {
		return "production"
	}
	return "development"
}

// LogStartup prints the startup banner.
func LogStartup(appName string, version string, port string) {
	log.Printf("🚀 %s v%s starting...", appName, version)
	log.Printf("   Mode: %s", GetEnvMode())
	log.Printf("   Port: %s", port)
	log.Printf("   Log Level: %d", LogLevel)
	if IsProduction {
		log.Printf("   ⚠️  Production mode: sensitive data will be masked in logs")
	}
}
