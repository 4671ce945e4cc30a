package version

// Version is the semantic version of the papervault binary. It is
// overridden at build time with -ldflags for release builds.
var Version = "0.1.0"
