package info

import (
	"strconv"
	"strings"

	"tailscale-dashboard/internal/model"
)

const mullvadExitNodeTag = "tag:mullvad-exit-node"

// PeerStatus lists every peer in the order tailscaled reported them.
//
// The login name comes from the status user table keyed by the peer's UserID.
// tailscaled always includes the owning user; if it does not, LoginName is empty.
func (i *Info) PeerStatus() []model.PeerStatus {
	peers := make([]model.PeerStatus, 0)
	if i.status.Peer == nil {
		return peers
	}

	for pair := i.status.Peer.Oldest(); pair != nil; pair = pair.Next() {
		src := pair.Value

		var dnsName string
		if src.DNSName != nil {
			dnsName = *src.DNSName
		}

		peer := model.PeerStatus{
			Name:       strings.TrimRight(dnsName, "."),
			IP:         src.TailscaleIPs,
			LoginName:  i.status.User[strconv.FormatInt(src.UserID, 10)].LoginName,
			SharedUser: src.ShareeNode != nil,
			Mullvad:    src.HasTag(mullvadExitNodeTag),
		}
		if peer.IP == nil {
			peer.IP = []string{}
		}

		if src.ExitNode {
			peer.ExitNodeActive = true
		} else if src.ExitNodeOption {
			peer.ExitNodeAvailable = true
		}

		if src.TxBytes > 0 || src.RxBytes > 0 {
			peer.Traffic = true
			peer.TxBytes = src.TxBytes
			peer.RxBytes = src.RxBytes
		}

		switch {
		case !src.IsOnline():
			peer.Online = false
			peer.Active = false
		case !src.Active:
			peer.Online = true
			peer.Active = false
		default:
			peer.Online = true
			peer.Active = true

			// Neither branch matching is a transitional state; both flags stay unset.
			if src.Relay != "" && src.CurAddr == "" {
				peer.Relayed = true
				peer.Address = src.Relay
			} else if src.CurAddr != "" {
				peer.Direct = true
				peer.Address = src.CurAddr
			}
		}

		peers = append(peers, peer)
	}

	return peers
}

// ExitNodes lists every peer offering itself as an exit node, approved or not.
func (i *Info) ExitNodes() []model.ExitNode {
	nodes := make([]model.ExitNode, 0)
	if i.status.Peer == nil {
		return nodes
	}

	for pair := i.status.Peer.Oldest(); pair != nil; pair = pair.Next() {
		peer := pair.Value
		if !peer.ExitNodeOption {
			continue
		}

		var label string
		if peer.DNSName != nil {
			label = *peer.DNSName
		}
		if peer.Location != nil && peer.Location.City != nil {
			label += " (" + *peer.Location.City + ")"
		}
		nodes = append(nodes, model.ExitNode{ID: peer.ID, Label: label})
	}

	return nodes
}

// CurrentExitNode returns the ID of the peer in use as exit node, or "".
func (i *Info) CurrentExitNode() string {
	if i.status.Peer == nil {
		return ""
	}

	for pair := i.status.Peer.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.ExitNode {
			return pair.Value.ID
		}
	}
	return ""
}
