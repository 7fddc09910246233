package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "audit")
	auditor := NewAuditor(tempDir)

	t.Run("SaveJSON creates audit directory and saves file", func(t *testing.T) {
		testData := map[string]interface{}{
			"promo": map[string]interface{}{"target": "https://example.com", "enabled": true},
			"count": 42,
		}

		filename, err := auditor.SaveJSON("legacy_import", testData)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(filename, "legacy_import-"))
		assert.True(t, strings.HasSuffix(filename, ".json"))

		_, err = os.Stat(tempDir)
		assert.NoError(t, err)

		fileContent, err := os.ReadFile(filepath.Join(tempDir, filename))
		require.NoError(t, err)

		var savedData map[string]interface{}
		require.NoError(t, json.Unmarshal(fileContent, &savedData))

		assert.Equal(t, float64(42), savedData["count"]) // JSON unmarshals numbers as float64
		promo, ok := savedData["promo"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "https://example.com", promo["target"])
	})

	t.Run("SaveJSON generates unique filenames", func(t *testing.T) {
		testData := map[string]string{"key": "value"}

		filename1, err := auditor.SaveJSON("sweep", testData)
		require.NoError(t, err)

		filename2, err := auditor.SaveJSON("sweep", testData)
		require.NoError(t, err)

		assert.NotEqual(t, filename1, filename2)
	})

	t.Run("SaveJSON rejects unmarshalable data", func(t *testing.T) {
		_, err := auditor.SaveJSON("bad", map[string]interface{}{"fn": func() {}})
		assert.Error(t, err)
	})
}
