package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareModel(t *testing.T) {
	t.Run("Download embedding model when it doesn't exist", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping model download in short mode")
		}

		path, err := PrepareModel("sentence-transformers/all-MiniLM-L6-v2", "onnx/model.onnx")

		// Depends on network access, so only the error shape is checked on failure
		if err != nil {
			assert.Contains(t, err.Error(), "failed to", "Expected error to be about download failure")
		} else {
			assert.DirExists(t, path, "Expected model directory to exist")
		}
	})

	existing := []struct {
		name      string
		modelName string
		onnxPath  string
		dirName   string
	}{
		{"Model name with slash is sanitized", "organization/model-name", "", "organization_model-name"},
		{"Model name without slash is used directly", "simple-model", "", "simple-model"},
		{"Onnx file path is ignored for existing model", "test/onnx-model", "onnx/model.onnx", "test_onnx-model"},
	}

	for _, tc := range existing {
		t.Run(tc.name, func(t *testing.T) {
			expectedPath := filepath.Join("./models", tc.dirName)
			err := os.MkdirAll(expectedPath, 0750)
			require.NoError(t, err, "Expected directory creation to succeed")
			defer os.RemoveAll(expectedPath)

			path, err := PrepareModel(tc.modelName, tc.onnxPath)
			assert.NoError(t, err, "Expected PrepareModel to not return an error for existing model")
			assert.Equal(t, expectedPath, path, "Expected returned path to match existing model path")
		})
	}
}
