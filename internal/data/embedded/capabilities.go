// Package embedded provides access to data files compiled into the binary.
package embedded

import _ "embed"

// CapabilitiesData contains the capability catalogue: labels, help lines and install remedies.
//
//go:embed capabilities.yaml
var CapabilitiesData []byte

// PersonasData contains the conversation persona templates.
//
//go:embed personas.yaml
var PersonasData []byte
