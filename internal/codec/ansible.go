package codec

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"invclean/internal/domain"

	"gopkg.in/yaml.v3"
)

// AnsibleCodec handles Ansible inventory import/export
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
	Hosts    map[string]ansibleHost     `yaml:"hosts,omitempty"`
	Vars     map[string]interface{}     `yaml:"vars,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
	Vars  map[string]interface{} `yaml:"vars,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string                 `yaml:"ansible_host,omitempty"`
	Vars        map[string]interface{} `yaml:",inline"`
}

// Parse imports rows from an Ansible YAML inventory. Each host becomes one row:
// ansible_host feeds ip, the inventory name feeds hostname (and fqdn when it is
// dotted), host vars named like input columns are copied, and the group name
// is added to notes so the keyword classifier can use it. A host var
// source_row_id sets the row id; otherwise the inventory name is used.
func (c *AnsibleCodec) Parse(r io.Reader) ([]domain.RawRecord, error) {
	var inv ansibleInventory
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&inv); err != nil {
		return nil, fmt.Errorf("failed to parse Ansible inventory: %w", err)
	}

	var rows []domain.RawRecord
	seen := make(map[string]bool)

	for _, groupName := range sortedKeys(inv.All.Children) {
		group := inv.All.Children[groupName]
		for _, hostName := range sortedKeys(group.Hosts) {
			if seen[hostName] {
				continue
			}
			seen[hostName] = true
			rows = append(rows, c.hostToRow(hostName, groupName, group.Hosts[hostName]))
		}
	}

	// Hosts in the 'all' group directly
	for _, hostName := range sortedKeys(inv.All.Hosts) {
		if seen[hostName] {
			continue
		}
		seen[hostName] = true
		rows = append(rows, c.hostToRow(hostName, "", inv.All.Hosts[hostName]))
	}

	if err := domain.CheckRowIDs(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// hostToRow converts an Ansible host to a raw row
func (c *AnsibleCodec) hostToRow(hostName, groupName string, host ansibleHost) domain.RawRecord {
	fields := make(map[string]string, len(domain.InputColumns))
	for _, col := range domain.InputColumns {
		fields[col] = ""
	}

	fields[domain.ColumnIP] = host.AnsibleHost
	if label, _, dotted := strings.Cut(hostName, "."); dotted {
		fields[domain.ColumnHostname] = label
		fields[domain.ColumnFQDN] = hostName
	} else {
		fields[domain.ColumnHostname] = hostName
	}

	for key, value := range host.Vars {
		key = strings.ToLower(key)
		if _, known := fields[key]; known && key != domain.ColumnIP {
			fields[key] = scalarString(value)
		}
	}

	if groupName != "" {
		notes := "group " + strings.ReplaceAll(groupName, "_", " ")
		if fields[domain.ColumnNotes] != "" {
			notes = fields[domain.ColumnNotes] + "; " + notes
		}
		fields[domain.ColumnNotes] = notes
	}

	id := strings.TrimSpace(fields[domain.ColumnSourceRowID])
	if id == "" {
		id = hostName
		fields[domain.ColumnSourceRowID] = id
	}
	return domain.RawRecord{SourceRowID: id, Fields: fields}
}

// Export writes finalized records as an Ansible inventory with one group per
// device type. Hosts are named by hostname, falling back to fqdn and then the
// row id; a name already taken gets the row id appended.
func (c *AnsibleCodec) Export(records []domain.FinalizedRecord, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{
			Children: make(map[string]ansibleGroupDef),
		},
	}

	groups := make(map[string]map[string]ansibleHost)
	used := make(map[string]bool)

	for i := range records {
		rec := &records[i]

		groupName := string(rec.DeviceType)
		if groupName == "" {
			groupName = string(domain.DeviceTypeUnknown)
		}
		if groups[groupName] == nil {
			groups[groupName] = make(map[string]ansibleHost)
		}

		name := hostKey(rec)
		if used[name] {
			name = name + "_" + rec.SourceRowID
		}
		used[name] = true

		host := ansibleHost{
			AnsibleHost: rec.IP,
			Vars: map[string]interface{}{
				domain.ColumnSourceRowID:         rec.SourceRowID,
				domain.FieldDeviceTypeConfidence: rec.DeviceTypeConfidence,
			},
		}
		for _, key := range []string{
			domain.ColumnMAC, domain.ColumnFQDN, domain.ColumnSite,
			domain.FieldOwnerEmail, domain.FieldOwnerTeam, domain.FieldSubnetCIDR,
		} {
			if v := rec.Field(key); v != "" {
				host.Vars[key] = v
			}
		}

		groups[groupName][name] = host
	}

	// Convert groups to Ansible format
	for groupName, hosts := range groups {
		inv.All.Children[groupName] = ansibleGroupDef{
			Hosts: hosts,
		}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}

	return nil
}

func hostKey(rec *domain.FinalizedRecord) string {
	switch {
	case rec.Hostname != "":
		return rec.Hostname
	case rec.FQDN != "":
		return rec.FQDN
	default:
		return "row_" + sanitizeName(rec.SourceRowID)
	}
}

func sanitizeName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			sb.WriteRune(r)
		} else {
			sb.WriteString(strconv.Itoa(int(r)))
		}
	}
	return sb.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
