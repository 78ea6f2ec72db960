package common

// LoamVersion is the current compiler version, compared against a
// loam.toml's declared version to warn on drift.
const LoamVersion = "0.1.0"

// ConfigFileName is the build-configuration file config.Load looks for in a
// project directory.
const ConfigFileName = "loam.toml"
