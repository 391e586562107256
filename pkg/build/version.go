package build

// Version is the service version reported to telemetry and the version
// command. Overridden at release time via
// -ldflags "-X github.com/osaleh1i1/threatexchange/pkg/build.Version=...".
var Version = "v0.0.0-dev"
