package codec

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Ullaakut/nmap/v3"

	"invclean/internal/domain"
)

// NmapCodec imports nmap XML scan output (nmap -oX) as raw inventory rows
type NmapCodec struct{}

// NewNmapCodec creates a new nmap codec
func NewNmapCodec() *NmapCodec {
	return &NmapCodec{}
}

// Format returns the codec format identifier
func (c *NmapCodec) Format() string {
	return "nmap-xml"
}

// Parse converts every host reported up into one row. The row id is the
// host's primary address. Hostnames from PTR or user input fill hostname and
// fqdn; the OS class type fills device_type; OS match, MAC vendor and open
// services go to notes for the keyword classifier.
func (c *NmapCodec) Parse(r io.Reader) ([]domain.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read nmap XML: %w", err)
	}

	var run nmap.Run
	if err := xml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse nmap XML: %w", err)
	}
	return RowsFromRun(&run)
}

// RowsFromRun converts the hosts of a scan result to raw rows. It serves
// both saved XML and live scans.
func RowsFromRun(run *nmap.Run) ([]domain.RawRecord, error) {
	if run == nil {
		return nil, fmt.Errorf("nil scan result")
	}

	var rows []domain.RawRecord
	for _, host := range run.Hosts {
		if host.Status.State != "" && host.Status.State != "up" {
			continue
		}
		row, ok := hostToRow(host)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	if err := domain.CheckRowIDs(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// HostID returns the row identifier a host maps to: its IPv4 address, else
// its IPv6 address, else its MAC. Empty when the host has no address.
func HostID(host nmap.Host) string {
	var v6, mac string
	for _, addr := range host.Addresses {
		switch addr.AddrType {
		case "ipv4":
			return addr.Addr
		case "ipv6":
			if v6 == "" {
				v6 = addr.Addr
			}
		case "mac":
			mac = addr.Addr
		}
	}
	if v6 != "" {
		return v6
	}
	return mac
}

// hostToRow converts an nmap host to a raw row
func hostToRow(host nmap.Host) (domain.RawRecord, bool) {
	fields := make(map[string]string, len(domain.InputColumns))
	for _, col := range domain.InputColumns {
		fields[col] = ""
	}

	var vendor string
	for _, addr := range host.Addresses {
		switch addr.AddrType {
		case "ipv4":
			fields[domain.ColumnIP] = addr.Addr
		case "ipv6":
			if fields[domain.ColumnIP] == "" {
				fields[domain.ColumnIP] = addr.Addr
			}
		case "mac":
			fields[domain.ColumnMAC] = addr.Addr
			vendor = addr.Vendor
		}
	}

	id := HostID(host)
	if id == "" {
		return domain.RawRecord{}, false
	}
	fields[domain.ColumnSourceRowID] = id

	if len(host.Hostnames) > 0 {
		name := strings.TrimSuffix(host.Hostnames[0].Name, ".")
		if label, _, dotted := strings.Cut(name, "."); dotted {
			fields[domain.ColumnHostname] = label
			fields[domain.ColumnFQDN] = name
		} else {
			fields[domain.ColumnHostname] = name
		}
	}

	var notes []string
	if len(host.OS.Matches) > 0 {
		// Use first (best) match
		match := host.OS.Matches[0]
		notes = append(notes, "os "+match.Name)
		for _, class := range match.Classes {
			if class.Type != "" {
				fields[domain.ColumnDeviceType] = class.Type
				break
			}
		}
	}
	if vendor != "" {
		notes = append(notes, "vendor "+vendor)
	}
	if services := openServices(host.Ports); len(services) > 0 {
		notes = append(notes, "services "+strings.Join(services, " "))
	}
	fields[domain.ColumnNotes] = strings.Join(notes, "; ")

	return domain.RawRecord{SourceRowID: id, Fields: fields}, true
}

// openServices lists the service names of open ports, sorted and deduplicated
func openServices(ports []nmap.Port) []string {
	set := make(map[string]bool)
	for _, port := range ports {
		if port.State.State != "open" {
			continue
		}
		name := port.Service.Name
		if name == "" {
			name = fmt.Sprintf("port-%d", port.ID)
		}
		set[name] = true
	}

	services := make([]string, 0, len(set))
	for name := range set {
		services = append(services, name)
	}
	sort.Strings(services)
	return services
}
