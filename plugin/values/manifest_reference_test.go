package values

import "testing"

func TestNewManifestReference(t *testing.T) {
	ref := NewManifestReference("ghcr.io", "/reglet-dev/checksums/", "akismet", "5.3.1")
	if ref.Registry() != "ghcr.io" {
		t.Errorf("Registry() = %v, want ghcr.io", ref.Registry())
	}
	if ref.Name() != "akismet" {
		t.Errorf("Name() = %v, want akismet", ref.Name())
	}
	if got, want := ref.String(), "ghcr.io/reglet-dev/checksums/akismet:5.3.1"; got != want {
		t.Errorf("String() = %v, want %v", got, want)
	}
	if got, want := ref.Repository(), "ghcr.io/reglet-dev/checksums/akismet"; got != want {
		t.Errorf("Repository() = %v, want %v", got, want)
	}
}

func TestManifestReference_SanitizesTag(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want string
	}{
		{"Plain", "4.0", "4.0"},
		{"BuildMetadata", "1.0.0+build.5", "1.0.0_build.5"},
		{"LeadingDot", ".hidden", "_hidden"},
		{"Locale", "6.4.2-en_US", "6.4.2-en_US"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := NewManifestReference("reg.io", "repo", "core", tt.tag)
			if ref.Tag() != tt.want {
				t.Errorf("Tag() = %v, want %v", ref.Tag(), tt.want)
			}
		})
	}
}

func TestParseManifestSource(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		wantReg  string
		wantRepo string
	}{
		{"Scheme", "oci://ghcr.io/reglet-dev/checksums", false, "ghcr.io", "reglet-dev/checksums"},
		{"NoScheme", "ghcr.io/org/repo", false, "ghcr.io", "org/repo"},
		{"TrailingSlash", "oci://localhost:5000/sums/", false, "localhost:5000", "sums"},
		{"RegistryOnly", "oci://ghcr.io", true, "", ""},
		{"Empty", "", true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, repo, err := ParseManifestSource(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseManifestSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if reg != tt.wantReg || repo != tt.wantRepo {
				t.Errorf("ParseManifestSource() = (%v, %v), want (%v, %v)", reg, repo, tt.wantReg, tt.wantRepo)
			}
		})
	}
}
