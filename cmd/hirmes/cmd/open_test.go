package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCmd_OpensPath(t *testing.T) {
	isolateHome(t)
	f, srv := newFakeService(t)

	stdout, _, err := run(t, srv.URL, "", "open", "/docs/os/kernel.pdf")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Opened /docs/os/kernel.pdf")
	assert.Equal(t, []string{"/docs/os/kernel.pdf"}, f.opened)
}

func TestOpenCmd_FailureIsShown(t *testing.T) {
	isolateHome(t)
	f, srv := newFakeService(t)
	f.openErr = "file not found"

	stdout, _, err := run(t, srv.URL, "", "open", "/gone.pdf")

	require.Error(t, err)
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stdout, "file not found")
}

func TestOpenCmd_RequiresPath(t *testing.T) {
	isolateHome(t)
	_, srv := newFakeService(t)

	_, _, err := run(t, srv.URL, "", "open")
	assert.Error(t, err)
}
