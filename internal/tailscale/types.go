package tailscale

import (
	"encoding/json"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Status mirrors the LocalAPI /status payload. Optional scalars are pointers and
// optional lists decode to nil, so absence survives decoding.
type Status struct {
	Version        *string                                    `json:"Version"`
	BackendState   *string                                    `json:"BackendState"`
	AuthURL        *string                                    `json:"AuthURL"`
	TailscaleIPs   []string                                   `json:"TailscaleIPs"`
	MagicDNSSuffix *string                                    `json:"MagicDNSSuffix"`
	Health         []string                                   `json:"Health"`
	Self           *PeerStatus                                `json:"Self"`
	Peer           *orderedmap.OrderedMap[string, PeerStatus] `json:"Peer"`
	User           map[string]UserProfile                     `json:"User"`
	CurrentTailnet *TailnetStatus                             `json:"CurrentTailnet"`
}

type PeerStatus struct {
	ID             string                                          `json:"ID"`
	HostName       *string                                         `json:"HostName"`
	DNSName        *string                                         `json:"DNSName"`
	TailscaleIPs   []string                                        `json:"TailscaleIPs"`
	UserID         int64                                           `json:"UserID"`
	Tags           []string                                        `json:"Tags"`
	Online         *bool                                           `json:"Online"`
	Active         bool                                            `json:"Active"`
	InNetworkMap   *bool                                           `json:"InNetworkMap"`
	ExitNode       bool                                            `json:"ExitNode"`
	ExitNodeOption bool                                            `json:"ExitNodeOption"`
	ShareeNode     *bool                                           `json:"ShareeNode"`
	Relay          string                                          `json:"Relay"`
	CurAddr        string                                          `json:"CurAddr"`
	TxBytes        int64                                           `json:"TxBytes"`
	RxBytes        int64                                           `json:"RxBytes"`
	KeyExpiry      *time.Time                                      `json:"KeyExpiry"`
	AllowedIPs     []string                                        `json:"AllowedIPs"`
	CapMap         *orderedmap.OrderedMap[string, json.RawMessage] `json:"CapMap"`
	Location       *Location                                       `json:"Location"`
}

// IsOnline reports the Online flag, treating an absent flag as offline.
func (p PeerStatus) IsOnline() bool {
	return p.Online != nil && *p.Online
}

func (p PeerStatus) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type Location struct {
	Country     string  `json:"Country"`
	CountryCode string  `json:"CountryCode"`
	City        *string `json:"City"`
	CityCode    string  `json:"CityCode"`
}

type UserProfile struct {
	ID          int64  `json:"ID"`
	LoginName   string `json:"LoginName"`
	DisplayName string `json:"DisplayName"`
}

type TailnetStatus struct {
	Name            string `json:"Name"`
	MagicDNSSuffix  string `json:"MagicDNSSuffix"`
	MagicDNSEnabled bool   `json:"MagicDNSEnabled"`
}

// Prefs mirrors the LocalAPI /prefs payload.
type Prefs struct {
	RouteAll               *bool    `json:"RouteAll"`
	CorpDNS                *bool    `json:"CorpDNS"`
	RunSSH                 *bool    `json:"RunSSH"`
	ExitNodeAllowLANAccess *bool    `json:"ExitNodeAllowLANAccess"`
	LoggedOut              *bool    `json:"LoggedOut"`
	ExitNodeID             *string  `json:"ExitNodeID"`
	ExitNodeIP             *string  `json:"ExitNodeIP"`
	AdvertiseRoutes        []string `json:"AdvertiseRoutes"`
}

// LockStatus mirrors the LocalAPI /tka/status payload (tailnet lock).
type LockStatus struct {
	Enabled       *bool          `json:"Enabled"`
	NodeKeySigned bool           `json:"NodeKeySigned"`
	PublicKey     string         `json:"PublicKey"`
	NodeKey       string         `json:"NodeKey"`
	TrustedKeys   []TrustedKey   `json:"TrustedKeys"`
	FilteredPeers []FilteredPeer `json:"FilteredPeers"`
}

type TrustedKey struct {
	Key   string `json:"Key"`
	Votes uint   `json:"Votes"`
}

type FilteredPeer struct {
	Name    string `json:"Name"`
	ID      string `json:"ID"`
	NodeKey string `json:"NodeKey"`
}

// ServeConfig mirrors the LocalAPI /serve-config payload. AllowFunnel is keyed by
// host:port; only the keys are read, so the values stay raw.
type ServeConfig struct {
	AllowFunnel *orderedmap.OrderedMap[string, json.RawMessage] `json:"AllowFunnel"`
}
