package manifest

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Per-id scan failures. Both are recoverable: the id is treated as unresolved.
var (
	// ErrManifestMissing indicates no library contains the app manifest.
	ErrManifestMissing = constError("app manifest not found in any library")

	// ErrManifestCorrupt indicates the manifest exists but has no usable SizeOnDisk.
	ErrManifestCorrupt = constError("app manifest has no readable SizeOnDisk")

	// ErrNoSteamInstall indicates none of the default Steam locations exist.
	ErrNoSteamInstall = constError("steam directory not found in any known location")
)
