// internal/discovery/usb/vendors.go
package usb

import "github.com/google/gousb"

// knownPrinterVendors names vendors whose receipt printers often report a
// vendor specific class instead of the printer class
var knownPrinterVendors = map[gousb.ID]string{
	0x04B8: "Seiko Epson",
	0x0519: "Star Micronics",
	0x1504: "Bixolon",
	0x0DD4: "Custom Engineering",
	0x0416: "Winbond (POS-58/80)",
	0x0483: "Xprinter",
	0x28E9: "GD32 (POS-58)",
	0x154F: "SNBC",
	0x0FE6: "ICS Advent (POS-58)",
}

// VendorName returns the known vendor name or empty
func VendorName(vendor gousb.ID) string {
	return knownPrinterVendors[vendor]
}

// IsKnownVendor reports whether vendor makes receipt printers
func IsKnownVendor(vendor gousb.ID) bool {
	_, ok := knownPrinterVendors[vendor]
	return ok
}
