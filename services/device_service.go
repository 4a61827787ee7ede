package services

import (
	"context"
	"fmt"
	"net"
	"time"

	"rescuereach/models"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/sirupsen/logrus"
)

// lowMemoryThresholdPct mirrors the client's low-memory warning level.
const lowMemoryThresholdPct = 90.0

// DeviceService fills in device context when the trigger request carries
// none, probing the local host. It also answers the connectivity question
// for the delivery-channel decision.
type DeviceService struct {
	probeAddr    string
	probeTimeout time.Duration
}

func NewDeviceService() *DeviceService {
	return &DeviceService{
		// Google public DNS; any reliably reachable endpoint works.
		probeAddr:    "8.8.8.8:53",
		probeTimeout: 3 * time.Second,
	}
}

// Snapshot gathers the host-side equivalent of the mobile device snapshot.
// Every probe is best effort: a failed read leaves the field zero-valued.
func (ds *DeviceService) Snapshot() models.DeviceSnapshot {
	snapshot := models.DeviceSnapshot{}

	if vmstat, err := mem.VirtualMemory(); err == nil {
		snapshot.MemoryUsedPct = vmstat.UsedPercent
		snapshot.LowMemory = vmstat.UsedPercent >= lowMemoryThresholdPct
	}

	if hostInfo, err := host.Info(); err == nil {
		snapshot.UptimeSeconds = hostInfo.Uptime
		snapshot.Metadata = fmt.Sprintf("%s/%s", hostInfo.Platform, hostInfo.PlatformVersion)
	}

	if interfaces, err := psnet.Interfaces(); err == nil {
		snapshot.NetworkType = activeInterfaceType(interfaces)
	}

	return snapshot
}

// IsOnline dials a well-known endpoint to decide whether the online
// delivery path is worth attempting. Failure means offline, never an error.
func (ds *DeviceService) IsOnline(ctx context.Context) bool {
	dialer := net.Dialer{Timeout: ds.probeTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", ds.probeAddr)
	if err != nil {
		logrus.Debugf("Connectivity probe failed: %v", err)
		return false
	}
	conn.Close()
	return true
}

func activeInterfaceType(interfaces psnet.InterfaceStatList) string {
	for _, iface := range interfaces {
		up, loopback := false, false
		for _, flag := range iface.Flags {
			if flag == "up" {
				up = true
			}
			if flag == "loopback" {
				loopback = true
			}
		}
		if up && !loopback && len(iface.Addrs) > 0 {
			return iface.Name
		}
	}
	return "unknown"
}
