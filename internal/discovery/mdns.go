// Package discovery announces the API on the local network so terminals can
// find it without configuration.
package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/grandcat/zeroconf"
	log "github.com/sirupsen/logrus"
)

// ServiceType is the DNS-SD service terminals browse for.
const ServiceType = "_tableside-pos._tcp"

// Advertise registers the service and keeps it registered until ctx is
// cancelled.
func Advertise(ctx context.Context, instance, port string) error {
	p, err := ParsePort(port)
	if err != nil {
		return err
	}

	server, err := zeroconf.Register(
		instance,                // Service instance name
		ServiceType,             // Service type
		"local.",                // Domain
		p,                       // Port
		[]string{"api=/health"}, // TXT records
		nil,                     // Network interfaces (nil = all)
	)
	if err != nil {
		return fmt.Errorf("register mdns service: %w", err)
	}
	log.WithFields(log.Fields{"service": ServiceType, "port": p}).Info("mdns announcement started")

	<-ctx.Done()
	server.Shutdown()
	log.Info("mdns announcement stopped")
	return nil
}

// ParsePort accepts "8081" or ":8081".
func ParsePort(port string) (int, error) {
	p, err := strconv.Atoi(strings.TrimPrefix(port, ":"))
	if err != nil || p <= 0 || p > 65535 {
		return 0, fmt.Errorf("invalid port %q", port)
	}
	return p, nil
}
