// Package app assembles a stormhost session from configuration: the
// settings registry and its watcher, the frontend surface, the plugin
// manager and the dispatch loop. It also runs batch files, the headless
// way to drive a session from the command line.
package app
