// Package config resolves the settings of a commit run from, in increasing
// precedence, built-in defaults, an optional YAML file, the GitHub Actions
// environment and command-line flags. The result is an explicit Settings value
// handed to the pipeline; nothing downstream reads the process environment.
package config
