package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_Ready(t *testing.T) {
	isolateHome(t)
	_, srv := newFakeService(t)

	stdout, _, err := run(t, srv.URL, "", "doctor")

	require.NoError(t, err)
	assert.Contains(t, stdout, "[PASS] service: reachable at "+srv.URL)
	assert.Contains(t, stdout, "[PASS] tagging: available")
}

func TestDoctorCmd_ServiceDown(t *testing.T) {
	// Given: a server that is already closed
	isolateHome(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	// When: running diagnostics
	stdout, _, err := run(t, url, "", "doctor")

	// Then: the required check fails and the results were already printed
	require.Error(t, err)
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stdout, "[FAIL] service")
	assert.Contains(t, stdout, "Status: FAILED")
}

func TestDoctorCmd_JSON(t *testing.T) {
	isolateHome(t)
	f, srv := newFakeService(t)
	f.tagging = false

	stdout, _, err := run(t, srv.URL, "", "doctor", "--json")
	require.NoError(t, err)

	var got doctorOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "ready_with_warnings", got.Status)
	require.NotEmpty(t, got.Checks)
	assert.Equal(t, "service", got.Checks[0].Name)
	assert.Equal(t, "PASS", got.Checks[0].Status)
	assert.Contains(t, got.Warnings[0], "tagging")
}
