//go:build linux

package termios

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/allbin/serialmon"
)

// Regular expressions for different types of serial devices
var portPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
	regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
	regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
	regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
	regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
	regexp.MustCompile(`^ttyO\d+$`),   // OMAP serial ports
	regexp.MustCompile(`^ttySAC\d+$`), // Samsung serial ports
	regexp.MustCompile(`^ttyTHS\d+$`), // Tegra serial ports
}

// listPorts returns serial device paths under devDir, sorted
func listPorts(devDir string) ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		name := entry.Name()
		if !matchesPortPattern(name) {
			continue
		}

		fullPath := filepath.Join(devDir, name)
		if isCharacterDevice(fullPath) {
			ports = append(ports, fullPath)
		}
	}

	sort.Strings(ports)
	return ports, nil
}

func matchesPortPattern(name string) bool {
	for _, pattern := range portPatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// describePort builds a descriptor, reading USB ids from sysfs when the
// device sits behind a USB interface
func describePort(sysDir, portPath string) serialmon.PortDescriptor {
	desc := serialmon.PortDescriptor{Name: portPath}

	name := filepath.Base(portPath)
	if !strings.HasPrefix(name, "ttyUSB") && !strings.HasPrefix(name, "ttyACM") {
		return desc
	}
	enrichUSBInfo(sysDir, name, &desc)
	return desc
}

// enrichUSBInfo follows /sys/class/tty/<name>/device up to the USB device
// directory and reads its id files. Missing files leave fields empty.
func enrichUSBInfo(sysDir, name string, desc *serialmon.PortDescriptor) {
	devicePath := filepath.Join(sysDir, "class", "tty", name, "device")
	resolved, err := filepath.EvalSymlinks(devicePath)
	if err != nil {
		return
	}

	// ttyACM links to the interface directory, ttyUSB to a child of it
	usbDevicePath := filepath.Dir(resolved)
	for i := 0; i < 3; i++ {
		if readSysfsFile(filepath.Join(usbDevicePath, "idVendor")) != "" {
			break
		}
		usbDevicePath = filepath.Dir(usbDevicePath)
	}

	desc.VendorID = readSysfsFile(filepath.Join(usbDevicePath, "idVendor"))
	if desc.VendorID == "" {
		return
	}
	desc.ProductID = readSysfsFile(filepath.Join(usbDevicePath, "idProduct"))
	desc.SerialNumber = readSysfsFile(filepath.Join(usbDevicePath, "serial"))
	desc.Manufacturer = readSysfsFile(filepath.Join(usbDevicePath, "manufacturer"))
	desc.Product = readSysfsFile(filepath.Join(usbDevicePath, "product"))
}

// readSysfsFile returns the trimmed contents of path, or "" on any error
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
