package adapter

import (
	"time"

	"go.uber.org/zap"
)

// NmapOption is a functional option for configuring NmapAdapter
type NmapOption func(*NmapAdapter)

// WithTimeout sets the timeout for the entire scan; 0 disables it
func WithTimeout(d time.Duration) NmapOption {
	return func(n *NmapAdapter) {
		n.timeout = d
	}
}

// WithPortRange sets the ports to scan. Invalid lists are ignored.
// Format: "80,443,8080" or "1-1000" or "22,80-443,8080"
func WithPortRange(ports string) NmapOption {
	return func(n *NmapAdapter) {
		if validated, err := parsePorts(ports); err == nil {
			n.portRange = validated
		}
	}
}

// WithServiceDetection enables or disables service version detection (-sV)
func WithServiceDetection(enabled bool) NmapOption {
	return func(n *NmapAdapter) {
		n.serviceDetection = enabled
	}
}

// WithOSDetection enables or disables OS detection (-O)
// Note: OS detection requires root privileges
func WithOSDetection(enabled bool) NmapOption {
	return func(n *NmapAdapter) {
		n.osDetection = enabled
	}
}

// WithSkipHostDiscovery treats all hosts as online (-Pn)
func WithSkipHostDiscovery(skip bool) NmapOption {
	return func(n *NmapAdapter) {
		n.skipHostDiscovery = skip
	}
}

// WithFastScan scans a handful of ports without service detection
func WithFastScan() NmapOption {
	return func(n *NmapAdapter) {
		n.portRange = "22,80,443"
		n.serviceDetection = false
		n.timeout = 5 * time.Minute
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) NmapOption {
	return func(n *NmapAdapter) {
		if logger != nil {
			n.logger = logger
		}
	}
}
