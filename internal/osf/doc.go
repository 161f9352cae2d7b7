// Package osf publishes finished datasets to the Open Science Framework.
//
// The HTTP implementation authenticates with a personal access token,
// verifies the token and target project through the JSON API, and streams
// files through the waterbutler storage API, creating folders as needed and
// re-uploading on name conflicts. When no token is configured a noop
// implementation is returned whose operations fail fast with a
// configuration message, so the wizard can surface "not configured" instead
// of a network error.
package osf
