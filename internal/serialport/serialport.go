// Package serialport lists the host's serial ports and resolves the port
// argument given to the flash command.
package serialport

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// Auto picks the only connected port.
	Auto = "auto"
	// Select asks the user to choose a port interactively.
	Select = "select"
)

// ErrNoPorts is returned when no serial port is connected.
var ErrNoPorts = errors.New("no serial ports found")

// Port describes a serial port.
type Port struct {
	Name         string
	USB          bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// Description renders the USB details of the port, if any.
func (p Port) Description() string {
	if !p.USB {
		return ""
	}
	parts := []string{fmt.Sprintf("USB %s:%s", strings.ToLower(p.VID), strings.ToLower(p.PID))}
	if p.Product != "" {
		parts = append(parts, p.Product)
	}
	if p.SerialNumber != "" {
		parts = append(parts, "S/N "+p.SerialNumber)
	}
	return strings.Join(parts, ", ")
}

// Lister enumerates serial ports.
type Lister func() ([]Port, error)

// List returns the host's serial ports sorted by name.
func List() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil || len(details) == 0 {
		// Some platforms only support plain enumeration.
		names, plainErr := serial.GetPortsList()
		if plainErr != nil {
			if err != nil {
				return nil, fmt.Errorf("failed to list serial ports: %w", err)
			}
			return nil, fmt.Errorf("failed to list serial ports: %w", plainErr)
		}
		ports := make([]Port, 0, len(names))
		for _, name := range names {
			ports = append(ports, Port{Name: name})
		}
		return sortPorts(ports), nil
	}

	ports := make([]Port, 0, len(details))
	for _, d := range details {
		ports = append(ports, Port{
			Name:         d.Name,
			USB:          d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return sortPorts(ports), nil
}

func sortPorts(ports []Port) []Port {
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports
}

// Resolve turns a port argument into a port name.
//
// An empty port stays empty and means no programming. Auto selects the
// only connected port. Any other name must be connected, unless listing
// itself fails, in which case the name is trusted.
func Resolve(port string, list Lister) (string, error) {
	if port == "" {
		return "", nil
	}
	if list == nil {
		list = List
	}

	ports, err := list()
	if port == Auto {
		if err != nil {
			return "", err
		}
		switch len(ports) {
		case 0:
			return "", ErrNoPorts
		case 1:
			return ports[0].Name, nil
		default:
			return "", fmt.Errorf("%d serial ports found (%s); pass --port explicitly", len(ports), strings.Join(Names(ports), ", "))
		}
	}

	if err != nil {
		return port, nil
	}
	for _, p := range ports {
		if p.Name == port {
			return port, nil
		}
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("serial port %s not found: %w", port, ErrNoPorts)
	}
	return "", fmt.Errorf("serial port %s not found (available: %s)", port, strings.Join(Names(ports), ", "))
}

// Names returns the port names.
func Names(ports []Port) []string {
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Name
	}
	return names
}
