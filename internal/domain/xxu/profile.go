package xxu

import "fmt"

// Profile selects how the header is committed to the package file.
type Profile string

const (
	// ProfilePatch writes the template first and patches the device and size
	// bytes in place after the payload. The date field stays zero.
	ProfilePatch Profile = "patch"
	// ProfileRewrite reserves the header area, streams the payload, then
	// rewinds and writes the complete header including the current date.
	ProfileRewrite Profile = "rewrite"

	// DefaultProfile produces files identical to the historical tool.
	DefaultProfile = ProfilePatch
)

// Profiles returns the accepted profile names.
func Profiles() []Profile {
	return []Profile{ProfilePatch, ProfileRewrite}
}

// ParseProfile validates a profile name. The empty string selects DefaultProfile.
func ParseProfile(name string) (Profile, error) {
	switch Profile(name) {
	case "":
		return DefaultProfile, nil
	case ProfilePatch, ProfileRewrite:
		return Profile(name), nil
	default:
		return "", NewError(ErrUsage, name, fmt.Errorf("unknown profile, want one of %v", Profiles()))
	}
}

// HasDate reports whether the profile stamps the creation date.
func (p Profile) HasDate() bool {
	return p == ProfileRewrite
}
