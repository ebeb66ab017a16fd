package adapter

import (
	"context"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"go.uber.org/zap"

	"invclean/internal/codec"
	"invclean/internal/domain"
)

// DefaultPortRange covers the services the device classifier keys on
const DefaultPortRange = "22,23,53,80,161,443,445,515,554,631,3389,5060,8080,8443,9100"

// NmapAdapter scans targets with nmap and returns raw inventory rows
type NmapAdapter struct {
	targets           []string
	timeout           time.Duration
	portRange         string
	serviceDetection  bool
	osDetection       bool
	skipHostDiscovery bool
	logger            *zap.Logger

	// run executes one scan; replaced in tests
	run func(ctx context.Context, opts ...nmap.Option) (*nmap.Run, []string, error)
}

// NewNmapAdapter creates a new nmap-based scanning adapter
// targets: list of CIDR ranges, addresses or host names to scan
// opts: optional configuration options
func NewNmapAdapter(targets []string, opts ...NmapOption) *NmapAdapter {
	adapter := &NmapAdapter{
		targets:          targets,
		timeout:          10 * time.Minute,
		portRange:        DefaultPortRange,
		serviceDetection: true,
		osDetection:      false, // Requires root
		logger:           zap.NewNop(),
		run:              runNmap,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// Name returns the adapter identifier, used as the run's input format
func (n *NmapAdapter) Name() string {
	return "nmap-scan"
}

// Source describes the scanned targets for run history
func (n *NmapAdapter) Source() string {
	return "nmap:" + strings.Join(n.targets, ",")
}

// Scan runs nmap against every target and returns one row per host that is
// up. A host seen by several targets is kept once, from the first target that
// reported it. A failing target aborts the scan.
func (n *NmapAdapter) Scan(ctx context.Context) ([]domain.RawRecord, error) {
	if len(n.targets) == 0 {
		return nil, fmt.Errorf("no scan targets")
	}
	targets, err := expandTargets(n.targets)
	if err != nil {
		return nil, err
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	n.logger.Info("nmap scan started",
		zap.Strings("targets", targets),
		zap.String("ports", n.portRange),
		zap.Bool("service_detection", n.serviceDetection),
		zap.Bool("os_detection", n.osDetection))

	merged := &nmap.Run{}
	seen := make(map[string]bool)
	for _, target := range targets {
		result, err := n.scanTarget(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", target, err)
		}
		for _, host := range result.Hosts {
			id := codec.HostID(host)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			merged.Hosts = append(merged.Hosts, host)
		}
	}

	rows, err := codec.RowsFromRun(merged)
	if err != nil {
		return nil, err
	}
	n.logger.Info("nmap scan complete", zap.Int("hosts", len(rows)))
	return rows, nil
}

// scanTarget performs nmap scan on a single target
func (n *NmapAdapter) scanTarget(ctx context.Context, target string) (*nmap.Run, error) {
	opts := []nmap.Option{
		nmap.WithTargets(target),
		nmap.WithPorts(n.portRange),
	}
	if n.serviceDetection {
		opts = append(opts, nmap.WithServiceInfo())
	}
	if n.osDetection {
		opts = append(opts, nmap.WithOSDetection())
	}
	if n.skipHostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}

	n.logger.Debug("scanning target", zap.String("target", target))
	result, warnings, err := n.run(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if len(warnings) > 0 {
		n.logger.Warn("nmap warnings", zap.String("target", target), zap.Strings("warnings", warnings))
	}
	if result == nil {
		return nil, fmt.Errorf("nil scan result")
	}
	return result, nil
}

func runNmap(ctx context.Context, opts ...nmap.Option) (*nmap.Run, []string, error) {
	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scanner: %w", err)
	}
	result, warnings, err := scanner.Run()
	var w []string
	if warnings != nil {
		w = *warnings
	}
	if err != nil {
		return nil, w, fmt.Errorf("scan failed: %w", err)
	}
	return result, w, nil
}

// expandTargets normalizes CIDR targets; nmap expands them itself
func expandTargets(targets []string) ([]string, error) {
	expanded := make([]string, 0, len(targets))
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if strings.Contains(target, "/") {
			prefix, err := netip.ParsePrefix(target)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %s: %w", target, err)
			}
			expanded = append(expanded, prefix.Masked().String())
		} else {
			expanded = append(expanded, target)
		}
	}
	if len(expanded) == 0 {
		return nil, fmt.Errorf("no scan targets")
	}
	return expanded, nil
}

// parsePorts validates a port list in nmap format
// Supported: "80,443,8080" or "1-1000" or "22,80-443,8080"
func parsePorts(portRange string) (string, error) {
	parts := strings.Split(portRange, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return "", fmt.Errorf("invalid port range: %s", part)
			}
			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil || start < 1 || start > 65535 {
				return "", fmt.Errorf("invalid port number: %s", rangeParts[0])
			}
			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil || end < 1 || end > 65535 || end < start {
				return "", fmt.Errorf("invalid port number: %s", rangeParts[1])
			}
		} else {
			port, err := strconv.Atoi(part)
			if err != nil || port < 1 || port > 65535 {
				return "", fmt.Errorf("invalid port number: %s", part)
			}
		}
	}
	return strings.ReplaceAll(portRange, " ", ""), nil
}
