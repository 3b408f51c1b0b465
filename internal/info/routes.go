package info

import (
	"strconv"
	"strings"

	"tailscale-dashboard/internal/model"
)

const funnelPortsCapPrefix = "https://tailscale.com/cap/funnel-ports?ports="

var exitNodeRoutes = map[string]struct{}{
	"0.0.0.0/0": {},
	"::/0":      {},
}

func (i *Info) AdvertisesExitNode() bool {
	for _, route := range i.prefs.AdvertiseRoutes {
		if _, ok := exitNodeRoutes[route]; ok {
			return true
		}
	}
	return false
}

func (i *Info) UsesExitNode() bool {
	return (i.prefs.ExitNodeID != nil && *i.prefs.ExitNodeID != "") ||
		(i.prefs.ExitNodeIP != nil && *i.prefs.ExitNodeIP != "")
}

func (i *Info) ExitNodeLocalAccess() bool {
	return i.prefs.ExitNodeAllowLANAccess != nil && *i.prefs.ExitNodeAllowLANAccess
}

func (i *Info) AcceptsDNS() bool {
	return i.prefs.CorpDNS != nil && *i.prefs.CorpDNS
}

func (i *Info) AcceptsRoutes() bool {
	return i.prefs.RouteAll != nil && *i.prefs.RouteAll
}

func (i *Info) RunsSSH() bool {
	return i.prefs.RunSSH != nil && *i.prefs.RunSSH
}

// AdvertisedRoutes returns the advertised subnet routes without the exit-node routes.
func (i *Info) AdvertisedRoutes() []string {
	routes := make([]string, 0, len(i.prefs.AdvertiseRoutes))
	for _, route := range i.prefs.AdvertiseRoutes {
		if _, ok := exitNodeRoutes[route]; ok {
			continue
		}
		routes = append(routes, route)
	}
	return routes
}

// IsApprovedRoute reports whether route is literally present in this node's
// AllowedIPs. No prefix containment is attempted.
func (i *Info) IsApprovedRoute(route string) bool {
	for _, allowed := range i.self().AllowedIPs {
		if allowed == route {
			return true
		}
	}
	return false
}

func (i *Info) Routes() []model.Route {
	advertised := i.AdvertisedRoutes()
	routes := make([]model.Route, 0, len(advertised))
	for _, route := range advertised {
		routes = append(routes, model.Route{Route: route, Approved: i.IsApprovedRoute(route)})
	}
	return routes
}

// AllowedFunnelPorts reads the ports granted by the funnel-ports capability.
// Entries are parsed leniently: the leading digits count, anything else is 0.
func (i *Info) AllowedFunnelPorts() []int {
	ports := make([]int, 0)

	capMap := i.self().CapMap
	if capMap == nil {
		return ports
	}

	for pair := capMap.Oldest(); pair != nil; pair = pair.Next() {
		if !strings.HasPrefix(pair.Key, funnelPortsCapPrefix) {
			continue
		}
		for _, port := range strings.Split(strings.TrimPrefix(pair.Key, funnelPortsCapPrefix), ",") {
			ports = append(ports, leadingInt(port))
		}
		break
	}

	return ports
}

// FunnelPort returns the port of the first AllowFunnel binding. With several
// bindings the choice follows tailscaled's key order.
func (i *Info) FunnelPort() (int, bool) {
	funnel := i.serve.AllowFunnel
	if funnel == nil || funnel.Len() == 0 {
		return 0, false
	}

	parts := strings.Split(funnel.Oldest().Key, ":")
	if len(parts) != 2 {
		return 0, false
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return port, true
}

func (i *Info) FunnelInfo() model.FunnelInfo {
	out := model.FunnelInfo{AllowedPorts: i.AllowedFunnelPorts()}
	if port, ok := i.FunnelPort(); ok {
		out.Port = &port
	}
	return out
}

func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
