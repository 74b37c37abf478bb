// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// interfaces_test.go — Unit tests for interface record views.
package normalize

import (
	"net"
	"testing"
)

// TestInterfaceViews_Loopback expects at least one internal view with a
// netmask on hosts with a loopback interface.
func TestInterfaceViews_Loopback(t *testing.T) {
	ifaces, err := net.Interfaces()
	if err != nil {
		t.Skipf("interface enumeration unavailable: %v", err)
	}

	views := InterfaceViews(ifaces)
	for _, view := range views {
		if view.Name == "" {
			t.Error("view without interface name")
		}
		if view.Addr.IP == nil {
			t.Error("view without address")
		}
	}

	for _, view := range views {
		if view.IsInternal && view.Addr.IP.IsLoopback() {
			if view.Netmask == nil {
				t.Error("loopback view missing netmask")
			}
			return
		}
	}
	t.Skip("no loopback interface present")
}
