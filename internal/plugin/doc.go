// Package plugin discovers, loads and runs storm plugins. A plugin is
// a directory with a plugin.json manifest (or a bare init.lua), whose
// main chunk runs in a sandboxed script state carrying the storm API
// facets the manifest requests. Contributed commands bind Lua handlers
// into the host command registry; unloading a plugin unregisters them
// and releases everything the plugin acquired.
package plugin
