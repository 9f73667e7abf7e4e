package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBar_Lifecycle(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf)

	// Before Start nothing is rendered.
	b.Done("early")
	b.Finish()
	assert.Empty(t, buf.String())

	b.Start(2)
	b.Done("akismet")
	b.Done("hello")
	b.Finish()

	assert.NotEmpty(t, buf.String())
	assert.Nil(t, b.bar)
}
