package appfs

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFS(t *testing.T) {
	files := []string{
		"assets/templates/block/content.gohtml",
		"assets/templates/email/_base.txt",
		"assets/templates/email/_base.gohtml",
		"assets/templates/email/digest.txt",
		"assets/templates/email/digest.gohtml",
		"migrations/00001_platform_schema.sql",
	}
	for _, name := range files {
		t.Run(name, func(t *testing.T) {
			_, err := fs.Stat(FS, name)
			assert.NoError(t, err)
		})
	}
}
