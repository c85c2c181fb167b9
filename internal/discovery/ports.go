// internal/discovery/ports.go
package discovery

import (
	"fmt"

	"go.bug.st/serial/enumerator"

	"serial-terminal/internal/model"
)

// ListPorts enumerates serial ports on the host, including USB metadata
// where the platform exposes it.
func ListPorts() ([]model.PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]model.PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, model.PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return ports, nil
}
