package common

// Version is overridden at build time with -ldflags "-X github.com/ruteri/native-vault/common.Version=...".
var Version = "dev"

// PackageName prefixes exported metric names.
const PackageName = "native_vault"
