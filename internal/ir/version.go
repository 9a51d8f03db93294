package ir

// Version constants for the manifest format and the tool.
const (
	// ManifestVersion is the manifest schema version.
	ManifestVersion = "1"

	// ToolVersion is the skelc version recorded in manifests.
	ToolVersion = "0.3.0"
)
