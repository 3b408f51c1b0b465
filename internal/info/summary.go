package info

import (
	"strings"
	"time"

	"tailscale-dashboard/internal/model"
)

func (i *Info) StatusInfo() model.StatusInfo {
	self := i.self()

	out := model.StatusInfo{
		TsVersion:     i.stringOr(i.status.Version, "unknown"),
		KeyExpiration: i.tr("disabled"),
		Online:        i.triState(self.Online),
		InNetMap:      i.triState(self.InNetworkMap),
		Tags:          strings.Join(self.Tags, "\n"),
		LoggedIn:      i.tr("unknown"),
		TsHealth:      strings.Join(i.status.Health, "\n"),
		LockEnabled:   i.yesNo(i.LockEnabled()),
	}
	if self.KeyExpiry != nil {
		out.KeyExpiration = self.KeyExpiry.Format(time.RFC3339)
	}
	if i.prefs.LoggedOut != nil {
		out.LoggedIn = i.yesNo(!*i.prefs.LoggedOut)
	}

	if i.LockEnabled() {
		out.LockInfo = &model.LockInfo{
			LockSigned:  i.yesNo(i.LockSigned()),
			LockSigning: i.yesNo(i.LockSigning()),
			PubKey:      i.LockPublicKey(),
			NodeKey:     i.LockNodeKey(),
		}
	}

	return out
}

func (i *Info) ConnectionInfo() model.ConnectionInfo {
	self := i.self()

	out := model.ConnectionInfo{
		HostName:          i.stringOr(self.HostName, "unknown"),
		DNSName:           i.stringOr(self.DNSName, "unknown"),
		TailscaleIPs:      i.tr("unknown"),
		MagicDNSSuffix:    i.stringOr(i.status.MagicDNSSuffix, "unknown"),
		AdvertisedRoutes:  i.tr("none"),
		AcceptRoutes:      i.triState(i.prefs.RouteAll),
		AcceptDNS:         i.triState(i.prefs.CorpDNS),
		RunSSH:            i.triState(i.prefs.RunSSH),
		ExitNodeLocal:     i.triState(i.prefs.ExitNodeAllowLANAccess),
		UseExitNode:       i.yesNo(i.UsesExitNode()),
		AdvertiseExitNode: i.tr("no"),
	}
	if i.status.TailscaleIPs != nil {
		out.TailscaleIPs = strings.Join(i.status.TailscaleIPs, "\n")
	}
	if i.prefs.AdvertiseRoutes != nil {
		out.AdvertisedRoutes = strings.Join(i.prefs.AdvertiseRoutes, "\n")
	}

	// ExitNodeOption is only set by tailscaled once an admin approved the exit node.
	if i.AdvertisesExitNode() {
		if self.ExitNodeOption {
			out.AdvertiseExitNode = i.tr("yes")
		} else {
			out.AdvertiseExitNode = i.tr("info.unapproved")
		}
	}

	return out
}

func (i *Info) DashboardInfo() model.DashboardInfo {
	self := i.self()

	ips := i.status.TailscaleIPs
	if ips == nil {
		ips = []string{}
	}

	return model.DashboardInfo{
		HostName:     i.stringOr(self.HostName, "unknown"),
		DNSName:      i.stringOr(self.DNSName, "unknown"),
		TailscaleIPs: ips,
		Online:       i.triState(self.Online),
	}
}
