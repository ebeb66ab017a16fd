package domain

// DeviceType is the classified category of an inventory record
type DeviceType string

const (
	DeviceTypeRouter       DeviceType = "router"
	DeviceTypeFirewall     DeviceType = "firewall"
	DeviceTypeSwitch       DeviceType = "switch"
	DeviceTypeAccessPoint  DeviceType = "access_point"
	DeviceTypeLoadBalancer DeviceType = "load_balancer"
	DeviceTypeServer       DeviceType = "server"
	DeviceTypeStorage      DeviceType = "storage"
	DeviceTypeWorkstation  DeviceType = "workstation"
	DeviceTypePrinter      DeviceType = "printer"
	DeviceTypePhone        DeviceType = "phone"
	DeviceTypeCamera       DeviceType = "camera"
	DeviceTypeIoT          DeviceType = "iot"
	DeviceTypeUnknown      DeviceType = "unknown"
)

// ClassificationSource identifies where a device type came from
type ClassificationSource string

const (
	SourceOverride   ClassificationSource = "override"    // Externally curated mapping
	SourceDeviceType ClassificationSource = "device_type" // Keyword in the device_type column
	SourceNotes      ClassificationSource = "notes"       // Keyword in free-text notes
	SourceNone       ClassificationSource = "none"        // No keyword matched
)

// SourceConfidence maps classification sources to base confidence levels
var SourceConfidence = map[ClassificationSource]float64{
	SourceOverride:   1.0, // Curated value is authoritative
	SourceDeviceType: 0.9, // Operator-entered type column
	SourceNotes:      0.6, // Free text can mention neighbours
	SourceNone:       0.1,
}

// IsKnown reports whether the type is a real classification
func (t DeviceType) IsKnown() bool {
	return t != "" && t != DeviceTypeUnknown
}
