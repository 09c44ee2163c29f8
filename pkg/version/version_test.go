package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInfo_RuntimeFields(t *testing.T) {
	info := GetInfo()

	assert.NotEmpty(t, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)
	assert.Equal(t, info, GetInfo(), "resolved once per process")
}

func TestFillFromBuildInfo(t *testing.T) {
	rev := "0123456789abcdef0123456789abcdef01234567"

	tests := []struct {
		name string
		in   BuildInfo
		bi   debug.BuildInfo
		want BuildInfo
	}{
		{
			name: "ldflags unset uses module and vcs data",
			in:   BuildInfo{Version: "dev", Commit: "unknown", Date: "unknown"},
			bi: debug.BuildInfo{
				Main: debug.Module{Version: "v1.2.0"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: rev},
					{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			want: BuildInfo{Version: "v1.2.0", Commit: "0123456789ab", Date: "2026-01-02T03:04:05Z", Modified: true},
		},
		{
			name: "ldflags win",
			in:   BuildInfo{Version: "v0.3.0", Commit: "abc1234", Date: "2026-05-01"},
			bi: debug.BuildInfo{
				Main:     debug.Module{Version: "v1.2.0"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: rev}},
			},
			want: BuildInfo{Version: "v0.3.0", Commit: "abc1234", Date: "2026-05-01"},
		},
		{
			name: "devel module keeps dev",
			in:   BuildInfo{Version: "dev", Commit: "unknown", Date: "unknown"},
			bi:   debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			want: BuildInfo{Version: "dev", Commit: "unknown", Date: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			fillFromBuildInfo(&got, &tt.bi)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShortRevision(t *testing.T) {
	assert.Equal(t, "abc", shortRevision("abc"))
	assert.Equal(t, "0123456789ab", shortRevision("0123456789abcdef"))
}

func TestString_IncludesBuildDetails(t *testing.T) {
	s := String()

	assert.Contains(t, s, "hirmes "+Short())
	assert.Contains(t, s, "commit:")
	assert.Contains(t, s, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "hirmes/"+Short()+" ("+runtime.GOOS+"; "+runtime.GOARCH+")", UserAgent())
}

func TestBuildInfo_JSONKeys(t *testing.T) {
	data, err := json.Marshal(BuildInfo{Version: "v1", Commit: "c", Date: "d", GoVersion: "go", OS: "linux", Arch: "amd64"})
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	for _, key := range []string{"version", "commit", "date", "go_version", "os", "arch"} {
		assert.Contains(t, parsed, key)
	}
	assert.NotContains(t, parsed, "modified")
}
