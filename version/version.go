package version

// AppVersion is overridden at build time with -ldflags "-X pagelab/version.AppVersion=...".
var AppVersion = "dev"
