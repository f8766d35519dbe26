package i18n_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/friendly-reminder/internal/config"
)

// TestI18nIntegrity ensures that every translation key defined in config.go
// exists in every locale file, and that no locale drifts from English.
func TestI18nIntegrity(t *testing.T) {
	keysToCheck := []string{
		config.TKeyEvtReminder,
		config.TKeyEvtBirthday,
		config.TKeyDigestSubject,
		config.TKeyDigestIntro,
		config.TKeyDigestOverdue,
		config.TKeyDigestUpcoming,
		config.TKeyDigestBirthdays,
		config.TKeyDigestDueOn,
		config.TKeyDigestDaysLate,
		config.TKeyDigestBirthdayOn,
		config.TKeyDigestFooter,
		config.TKeyFormatDate,
		config.TKeyDigestPlainLine,
		config.TKeyDigestPlainTitle,
	}

	definedKeys := make(map[string]bool)
	for _, k := range keysToCheck {
		definedKeys[k] = true
	}

	english := loadLocale(t, "en")

	for _, lang := range config.SupportedLanguages {
		jsonMap := loadLocale(t, lang)

		for key := range definedKeys {
			_, exists := jsonMap[key]
			assert.Truef(t, exists, "Key '%s' defined in config.go is missing in active.%s.json", key, lang)
		}

		for jsonKey := range english {
			if strings.HasPrefix(jsonKey, "_") {
				continue
			}
			_, exists := jsonMap[jsonKey]
			assert.Truef(t, exists, "Key '%s' is translated in English but not in %s", jsonKey, lang)
		}
	}

	// Check for orphan keys in JSON (keys that exist in JSON but not in Go)
	for jsonKey := range english {
		if strings.HasPrefix(jsonKey, "_") {
			continue
		}
		if !definedKeys[jsonKey] {
			t.Logf("Warning: Key '%s' exists in JSON but is not checked in the test suite (might be unused)", jsonKey)
		}
	}
}

func loadLocale(t *testing.T, lang string) map[string]interface{} {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("locales", "active."+lang+".json"))
	require.NoErrorf(t, err, "Must load active.%s.json", lang)

	var jsonMap map[string]interface{}
	require.NoError(t, json.Unmarshal(content, &jsonMap), "JSON must be valid")
	return jsonMap
}
