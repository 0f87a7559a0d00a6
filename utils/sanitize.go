package utils

import "github.com/microcosm-cc/bluemonday"

// Post and comment bodies may carry limited user markup; anything outside
// the UGC whitelist is stripped before the text is stored.
var ugcPolicy = bluemonday.UGCPolicy()

// Sanitize strips disallowed HTML from user-supplied text.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}
