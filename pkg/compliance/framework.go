package compliance

import "fmt"

// Framework is a named compliance posture. It selects the default
// configuration document applied beneath manifest-supplied values.
type Framework string

const (
	// FrameworkCommercial is the baseline commercial posture.
	FrameworkCommercial Framework = "commercial"

	// FrameworkFedRAMPModerate is the FedRAMP Moderate posture.
	FrameworkFedRAMPModerate Framework = "fedramp-moderate"

	// FrameworkFedRAMPHigh is the FedRAMP High posture. Its defaults force
	// encryption, multi-AZ and longer retention.
	FrameworkFedRAMPHigh Framework = "fedramp-high"
)

// Frameworks lists every supported framework in hardening order.
func Frameworks() []Framework {
	return []Framework{FrameworkCommercial, FrameworkFedRAMPModerate, FrameworkFedRAMPHigh}
}

// Valid reports whether f names a supported framework.
func (f Framework) Valid() bool {
	switch f {
	case FrameworkCommercial, FrameworkFedRAMPModerate, FrameworkFedRAMPHigh:
		return true
	}
	return false
}

// Parse converts a manifest string into a Framework.
func Parse(s string) (Framework, error) {
	f := Framework(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown compliance framework %q (supported: %v)", s, Frameworks())
	}
	return f, nil
}
