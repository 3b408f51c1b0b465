package model

import "time"

const (
	PriorityError  = "error"
	PriorityWarn   = "warn"
	PrioritySystem = "system"
)

// DashboardSnapshot is the API payload returned to dashboard clients.
type DashboardSnapshot struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	SourceOnline   bool            `json:"source_online"`
	SourceError    *string         `json:"source_error"`
	TailnetName    string          `json:"tailnet_name"`
	NeedsLogin     bool            `json:"needs_login"`
	AuthURL        string          `json:"auth_url"`
	ConnectedViaTS bool            `json:"connected_via_ts"`
	Status         *StatusInfo     `json:"status"`
	Connection     *ConnectionInfo `json:"connection"`
	Summary        *DashboardInfo  `json:"summary"`
	Peers          []PeerStatus    `json:"peers"`
	ExitNodes      []ExitNode      `json:"exit_nodes"`
	CurrentExit    string          `json:"current_exit_node"`
	Routes         []Route         `json:"routes"`
	Lock           LockDetails     `json:"lock"`
	Funnel         FunnelInfo      `json:"funnel"`
	Warnings       []Warning       `json:"warnings"`
}

type StatusInfo struct {
	TsVersion     string    `json:"ts_version"`
	KeyExpiration string    `json:"key_expiration"`
	Online        string    `json:"online"`
	InNetMap      string    `json:"in_net_map"`
	Tags          string    `json:"tags"`
	LoggedIn      string    `json:"logged_in"`
	TsHealth      string    `json:"ts_health"`
	LockEnabled   string    `json:"lock_enabled"`
	LockInfo      *LockInfo `json:"lock_info,omitempty"`
}

type LockInfo struct {
	LockSigned  string `json:"lock_signed"`
	LockSigning string `json:"lock_signing"`
	PubKey      string `json:"pub_key"`
	NodeKey     string `json:"node_key"`
}

type ConnectionInfo struct {
	HostName          string `json:"host_name"`
	DNSName           string `json:"dns_name"`
	TailscaleIPs      string `json:"tailscale_ips"`
	MagicDNSSuffix    string `json:"magic_dns_suffix"`
	AdvertisedRoutes  string `json:"advertised_routes"`
	AcceptRoutes      string `json:"accept_routes"`
	AcceptDNS         string `json:"accept_dns"`
	RunSSH            string `json:"run_ssh"`
	ExitNodeLocal     string `json:"exit_node_local"`
	UseExitNode       string `json:"use_exit_node"`
	AdvertiseExitNode string `json:"advertise_exit_node"`
}

// DashboardInfo is the compact subset shown by the minimized widget.
type DashboardInfo struct {
	HostName     string   `json:"host_name"`
	DNSName      string   `json:"dns_name"`
	TailscaleIPs []string `json:"tailscale_ips"`
	Online       string   `json:"online"`
}

type PeerStatus struct {
	Name              string   `json:"name"`
	IP                []string `json:"ip"`
	LoginName         string   `json:"login_name"`
	SharedUser        bool     `json:"shared_user"`
	ExitNodeActive    bool     `json:"exit_node_active"`
	ExitNodeAvailable bool     `json:"exit_node_available"`
	Mullvad           bool     `json:"mullvad"`
	Traffic           bool     `json:"traffic"`
	TxBytes           int64    `json:"tx_bytes"`
	RxBytes           int64    `json:"rx_bytes"`
	Online            bool     `json:"online"`
	Active            bool     `json:"active"`
	Relayed           bool     `json:"relayed"`
	Direct            bool     `json:"direct"`
	Address           string   `json:"address"`
}

type Warning struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

type ExitNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Route struct {
	Route    string `json:"route"`
	Approved bool   `json:"approved"`
}

type LockDetails struct {
	Enabled bool              `json:"enabled"`
	Signed  bool              `json:"signed"`
	Signing bool              `json:"signing"`
	PubKey  string            `json:"pub_key"`
	NodeKey string            `json:"node_key"`
	Pending map[string]string `json:"pending"`
}

type FunnelInfo struct {
	Port         *int  `json:"port"`
	AllowedPorts []int `json:"allowed_ports"`
}

// HistoryEntry is one recorded warning occurrence range.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Priority    string    `json:"priority"`
	Message     string    `json:"message"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	Occurrences int64     `json:"occurrences"`
}
