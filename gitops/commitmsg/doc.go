// Package commitmsg renders commit messages. Messages may reference run
// variables as {{NAME}} placeholders (e.g. "sync {{BRANCH}} at {{SHA}}");
// unknown placeholders are left untouched. Split separates the headline from
// the body the way hosting APIs expect.
package commitmsg
