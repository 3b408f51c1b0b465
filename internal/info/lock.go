package info

import "tailscale-dashboard/internal/model"

// Every lock accessor below short-circuits on LockEnabled, so a nil or partial
// lock payload is never dereferenced while the lock is off.

func (i *Info) LockEnabled() bool {
	return i.lock != nil && i.lock.Enabled != nil && *i.lock.Enabled
}

func (i *Info) LockSigned() bool {
	if !i.LockEnabled() {
		return false
	}
	return i.lock.NodeKeySigned
}

func (i *Info) LockNodeKey() string {
	if !i.LockEnabled() {
		return ""
	}
	return i.lock.NodeKey
}

func (i *Info) LockPublicKey() string {
	if !i.LockEnabled() {
		return ""
	}
	return i.lock.PublicKey
}

// LockSigning reports whether this node is a trusted signer: signed, and its own
// tailnet-lock key is in the trusted key set.
func (i *Info) LockSigning() bool {
	if !i.LockSigned() {
		return false
	}

	myKey := i.LockPublicKey()
	for _, key := range i.lock.TrustedKeys {
		if key.Key == myKey {
			return true
		}
	}
	return false
}

// LockPending maps each peer awaiting a signature to its node key. It is only
// populated on trusted signers. A repeated name keeps the last node key.
func (i *Info) LockPending() map[string]string {
	pending := map[string]string{}
	if !i.LockSigning() {
		return pending
	}

	for _, peer := range i.lock.FilteredPeers {
		pending[peer.Name] = peer.NodeKey
	}
	return pending
}

func (i *Info) LockDetails() model.LockDetails {
	return model.LockDetails{
		Enabled: i.LockEnabled(),
		Signed:  i.LockSigned(),
		Signing: i.LockSigning(),
		PubKey:  i.LockPublicKey(),
		NodeKey: i.LockNodeKey(),
		Pending: i.LockPending(),
	}
}
