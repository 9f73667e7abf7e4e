package values

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_NewPluginName tests that valid plugin names are accepted
func Test_NewPluginName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "akismet", "akismet", false},
		{"dots allowed", "wp.plugin", "wp.plugin", false},
		{"invalid char @", "akismet@1.0.0", "", true},
		{"path separator", "a/b", "", true},
		{"traversal", "..", "", true},
		{"single dot", ".", "", true},
		{"trims whitespace", "  akismet  ", "akismet", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pn, err := NewPluginName(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, pn.String())
			}
		})
	}
}

func Test_MustNewPluginName(t *testing.T) {
	pn := MustNewPluginName("akismet")
	assert.Equal(t, "akismet", pn.String())
}

func Test_MustNewPluginName_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustNewPluginName("")
	})
}

func Test_PluginName_IsEmpty(t *testing.T) {
	zero := PluginName{}
	assert.True(t, zero.IsEmpty())

	nonZero := MustNewPluginName("akismet")
	assert.False(t, nonZero.IsEmpty())
}

func Test_PluginName_JSON(t *testing.T) {
	original := MustNewPluginName("akismet")

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, `"akismet"`, string(data))

	var decoded PluginName
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)

	err = json.Unmarshal([]byte(`"../etc"`), &decoded)
	assert.Error(t, err)
}

// Test_PluginName_MarshalJSON_EscapesSpecialChars verifies that MarshalJSON
// produces valid JSON even if a PluginName with special characters were
// somehow created (bypassing validation).
func Test_PluginName_MarshalJSON_EscapesSpecialChars(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"quote", `test"quote`},
		{"backslash", `test\path`},
		{"newline", "test\nline"},
		{"tab", "test\ttab"},
		{"unicode", "test\u0000null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Directly construct to bypass validation (simulating potential bypass)
			pn := PluginName{value: tt.value}

			data, err := pn.MarshalJSON()
			require.NoError(t, err, "MarshalJSON should not error")

			// Must be valid JSON - json.Unmarshal should work
			var decoded string
			err = json.Unmarshal(data, &decoded)
			require.NoError(t, err, "MarshalJSON must produce valid JSON")
			assert.Equal(t, tt.value, decoded, "round-trip should preserve value")
		})
	}
}
