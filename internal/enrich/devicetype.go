package enrich

import (
	"fmt"
	"regexp"
	"strings"

	"invclean/internal/domain"
)

// Rule maps a set of keywords to a device category
type Rule struct {
	Category domain.DeviceType
	Keywords []string
}

// DefaultRules is the ordered keyword table. Order matters: the first rule with a
// hit wins, so narrower categories (firewall, load balancer) precede broad ones
// (server, workstation).
var DefaultRules = []Rule{
	{domain.DeviceTypeFirewall, []string{"firewall", "fw", "asa", "fortigate", "palo alto", "pfsense"}},
	{domain.DeviceTypeLoadBalancer, []string{"load balancer", "loadbalancer", "lb", "f5", "haproxy"}},
	{domain.DeviceTypeRouter, []string{"router", "gateway", "rtr", "mikrotik"}},
	{domain.DeviceTypeSwitch, []string{"switch", "sw", "catalyst", "nexus"}},
	{domain.DeviceTypeAccessPoint, []string{"access point", "ap", "wap", "wifi", "wi-fi", "wireless"}},
	{domain.DeviceTypeStorage, []string{"nas", "san", "storage", "synology", "netapp"}},
	{domain.DeviceTypePrinter, []string{"printer", "mfp", "laserjet", "copier"}},
	{domain.DeviceTypePhone, []string{"phone", "voip", "handset"}},
	{domain.DeviceTypeCamera, []string{"camera", "cctv", "ipcam", "nvr"}},
	{domain.DeviceTypeServer, []string{"server", "srv", "hypervisor", "esxi", "vm", "virtual machine"}},
	{domain.DeviceTypeWorkstation, []string{"workstation", "desktop", "laptop", "pc", "notebook"}},
	{domain.DeviceTypeIoT, []string{"iot", "sensor", "thermostat", "plc"}},
}

// Classification is the outcome of a keyword scan
type Classification struct {
	DeviceType domain.DeviceType
	Confidence float64
	Source     domain.ClassificationSource
	Keyword    string
}

type compiledRule struct {
	category domain.DeviceType
	pattern  *regexp.Regexp
}

// Classifier guesses a device type from free text. It is immutable once built
// and safe for concurrent use.
type Classifier struct {
	rules []compiledRule
}

// NewClassifier compiles rules into word-boundary matchers. Keywords match
// case-insensitively and only as whole words, so "ap" does not fire on "laptop".
func NewClassifier(rules []Rule) (*Classifier, error) {
	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		if r.Category == "" {
			return nil, fmt.Errorf("rule %d: empty category", i)
		}
		quoted := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(kw)))
		}
		if len(quoted) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no keywords", i, r.Category)
		}
		pattern, err := regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Category, err)
		}
		c.rules = append(c.rules, compiledRule{category: r.Category, pattern: pattern})
	}
	return c, nil
}

// MustDefaultClassifier returns a classifier over DefaultRules
func MustDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultRules)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify runs the ordered rules over the device_type text first and only then
// over the notes text; within a pass the first rule with a hit wins. Notes often
// mention neighbouring equipment ("uplink to core switch"), so a hit there is only
// consulted when the type column says nothing recognizable, and is trusted less.
func (c *Classifier) Classify(deviceType, notes string) Classification {
	if cl, ok := c.scan(deviceType, domain.SourceDeviceType); ok {
		return cl
	}
	if cl, ok := c.scan(notes, domain.SourceNotes); ok {
		return cl
	}
	return Classification{
		DeviceType: domain.DeviceTypeUnknown,
		Confidence: domain.SourceConfidence[domain.SourceNone],
		Source:     domain.SourceNone,
	}
}

func (c *Classifier) scan(text string, source domain.ClassificationSource) (Classification, bool) {
	if strings.TrimSpace(text) == "" {
		return Classification{}, false
	}
	for _, r := range c.rules {
		if kw := r.pattern.FindString(text); kw != "" {
			return Classification{
				DeviceType: r.category,
				Confidence: domain.SourceConfidence[source],
				Source:     source,
				Keyword:    strings.ToLower(kw),
			}, true
		}
	}
	return Classification{}, false
}

// Len returns the number of rules
func (c *Classifier) Len() int {
	return len(c.rules)
}
