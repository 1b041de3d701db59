// Package settings implements the configuration objects exposed to
// plugins: keyed dynamic values with a parent fallback chain, change
// listeners registered under tags, a registry that shares named settings
// loaded from disk, and a filesystem watcher that reloads them when their
// files change.
//
// Named settings layer a default file under a user file. Set writes into
// the user layer only, and Save persists just that layer, so shipped
// defaults survive user customization.
package settings
