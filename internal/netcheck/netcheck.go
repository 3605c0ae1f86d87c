// Package netcheck verifies TCP reachability of a host:port.
package netcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"
)

// Result describes a successful check.
type Result struct {
	Host    string
	Port    string
	IP      netip.Addr
	Elapsed time.Duration
}

// CheckTCP resolves the host of addr, preferring IPv4, then opens and
// closes a TCP connection to the first address within timeout.
func CheckTCP(ctx context.Context, addr string, timeout time.Duration) (Result, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return Result{}, fmt.Errorf("parse address %q: %w", addr, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	ip, err := resolve(ctx, host)
	if err != nil {
		return Result{}, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(ip.String(), port))
	if err != nil {
		return Result{}, fmt.Errorf("connect %s (%s): %w", addr, ip, err)
	}
	conn.Close()

	return Result{Host: host, Port: port, IP: ip, Elapsed: time.Since(start)}, nil
}

func resolve(ctx context.Context, host string) (netip.Addr, error) {
	if ip, err := netip.ParseAddr(host); err == nil {
		return ip, nil
	}

	for _, network := range []string{"ip4", "ip"} {
		addrs, err := net.DefaultResolver.LookupNetIP(ctx, network, host)
		if err == nil && len(addrs) > 0 {
			return addrs[0].Unmap(), nil
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return netip.Addr{}, fmt.Errorf("resolve %s: %w", host, err)
		}
	}
	return netip.Addr{}, fmt.Errorf("resolve %s: no addresses", host)
}
