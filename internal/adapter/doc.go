// Package adapter collects raw inventory rows from live sources.
//
// NmapAdapter runs nmap against a list of targets (single addresses, host
// names or CIDR ranges) and converts every host that is up into one raw row,
// the same way a saved nmap XML file is imported. The rows then go through the
// regular cleaning pipeline.
//
// The nmap binary must be in PATH. OS detection needs root.
package adapter
