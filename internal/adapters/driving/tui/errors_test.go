package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingQueryEngine.Error(), ErrMissingDocumentService.Error())
	assert.Contains(t, ErrMissingQueryEngine.Error(), "query engine")
	assert.Contains(t, ErrMissingDocumentService.Error(), "document service")
}
