package requests

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExtensionValidation(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, v.RegisterValidation("fileext", validateFileExtension))

	valid := BucketRequest{
		Name:                      "docs",
		Endpoint:                  "http://files:8080",
		Type:                      "general",
		AllowedFileNameExtensions: []string{".pdf", ".DOCX"},
	}
	assert.NoError(t, v.Struct(valid))

	invalid := valid
	invalid.AllowedFileNameExtensions = []string{"pdf"}
	assert.Error(t, v.Struct(invalid))

	invalid.AllowedFileNameExtensions = []string{".tar.gz"}
	assert.Error(t, v.Struct(invalid))

	invalid = valid
	invalid.Type = "team"
	assert.Error(t, v.Struct(invalid))
}
