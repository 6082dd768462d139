// ABOUTME: Version and product identification constants
// ABOUTME: Reported in remote hello messages, mDNS records and encoded file tags
package version

const (
	// Version is the release version
	Version = "0.3.0"

	Product      = "yourgame-mixer"
	Manufacturer = "yourgame"
)

// String returns "product version"
func String() string {
	return Product + " " + Version
}
