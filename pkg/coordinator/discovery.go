// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package coordinator

import (
	"context"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/enbility/zeroconf/v2"
	"github.com/rs/zerolog"
)

const (
	// ServiceType announced by coordinators over mDNS.
	ServiceType = "_labnet-coord._tcp"
	// Domain browsed for coordinator announcements.
	Domain = "local."
)

// Info describes a discovered coordinator.
type Info struct {
	Name      string
	HostName  string
	Port      int
	Addresses []string
}

// Address returns the "host:port" to reach the coordinator on.
func (i Info) Address() string {
	host := strings.TrimSuffix(i.HostName, ".")
	if len(i.Addresses) > 0 {
		host = i.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(i.Port))
}

// Discover browses mDNS for coordinator announcements until the given
// timeout expires and returns everything found, sorted by name.
// Announcements from multiple interfaces are merged per instance.
func Discover(ctx context.Context, timeout time.Duration, log zerolog.Logger) ([]Info, error) {
	log = log.With().Str("component", "discovery").Logger()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entriesCh := make(chan *zeroconf.ServiceEntry)
	removedCh := make(chan *zeroconf.ServiceEntry)
	browseErr := make(chan error, 1)
	go func() {
		browseErr <- zeroconf.Browse(ctx, ServiceType, Domain, entriesCh, removedCh)
	}()

	entries := (<-chan *zeroconf.ServiceEntry)(entriesCh)
	removed := (<-chan *zeroconf.ServiceEntry)(removedCh)
	found := make(map[string]Info)
	var berr error
loop:
	for {
		select {
		case err := <-browseErr:
			berr = err
			break loop
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			info := entryToInfo(entry)
			if existing, exists := found[info.Name]; exists {
				existing.Addresses = mergeAddresses(existing.Addresses, info.Addresses)
				found[info.Name] = existing
			} else {
				log.Debug().
					Str("name", info.Name).
					Str("address", info.Address()).
					Msg("Found coordinator")
				found[info.Name] = info
			}
		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			delete(found, entry.Instance)
		case <-ctx.Done():
			break loop
		}
	}
	if berr != nil && ctx.Err() == nil {
		return nil, maskAny(berr)
	}

	result := make([]Info, 0, len(found))
	for _, info := range found {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func entryToInfo(entry *zeroconf.ServiceEntry) Info {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return Info{
		Name:      entry.Instance,
		HostName:  entry.HostName,
		Port:      entry.Port,
		Addresses: addrs,
	}
}

func mergeAddresses(existing, extra []string) []string {
	for _, addr := range extra {
		seen := false
		for _, x := range existing {
			if x == addr {
				seen = true
				break
			}
		}
		if !seen {
			existing = append(existing, addr)
		}
	}
	return existing
}
