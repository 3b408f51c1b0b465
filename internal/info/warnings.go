package info

import (
	"fmt"
	"strconv"
	"time"

	"tailscale-dashboard/internal/model"
)

const (
	CodeKeyExpiration = "KEY_EXPIRATION"
	CodeLockUnsigned  = "LOCK_UNSIGNED"
	CodeNetBIOS       = "NETBIOS_ENABLED"
)

const expiryLayout = "Mon, 02 Jan 2006 15:04:05 MST"

// KeyExpirationWarning reports how many whole days remain until (or have passed
// since) the node key expires, in now's time zone. It returns nil when key
// expiry is disabled.
func (i *Info) KeyExpirationWarning(now time.Time) *model.Warning {
	expiry := i.self().KeyExpiry
	if expiry == nil {
		return nil
	}

	expiryLocal := expiry.In(now.Location())
	days := daysBetween(now, expiryLocal)

	warning := &model.Warning{
		Code:    CodeKeyExpiration,
		Message: fmt.Sprintf(i.tr("warnings.key_expiration"), strconv.Itoa(days), expiryLocal.Format(expiryLayout)),
	}
	switch {
	case days <= 7:
		warning.Priority = model.PriorityError
	case days <= 30:
		warning.Priority = model.PriorityWarn
	default:
		warning.Priority = model.PrioritySystem
	}

	return warning
}

// LockWarning fires when this node joined a locked tailnet but is not signed yet.
func (i *Info) LockWarning() *model.Warning {
	if i.LockEnabled() && !i.LockSigned() {
		return &model.Warning{
			Code:     CodeLockUnsigned,
			Message:  i.tr("warnings.lock"),
			Priority: model.PriorityError,
		}
	}
	return nil
}

// NetBIOSWarning fires when NetBIOS is on and SMB is not explicitly off.
func (i *Info) NetBIOSWarning() *model.Warning {
	if i.settings.UseNetbios == "yes" && i.settings.SMBEnabled != "no" {
		return &model.Warning{
			Code:     CodeNetBIOS,
			Message:  i.tr("warnings.netbios"),
			Priority: model.PriorityWarn,
		}
	}
	return nil
}

func (i *Info) Warnings(now time.Time) []model.Warning {
	warnings := make([]model.Warning, 0, 3)
	for _, w := range []*model.Warning{i.KeyExpirationWarning(now), i.LockWarning(), i.NetBIOSWarning()} {
		if w != nil {
			warnings = append(warnings, *w)
		}
	}
	return warnings
}

// daysBetween counts whole calendar days between a and b on the wall clock, so a
// DST shift inside the interval does not cost a day.
func daysBetween(a, b time.Time) int {
	b = b.In(a.Location())
	if b.Before(a) {
		a, b = b, a
	}

	days := civilDay(b) - civilDay(a)
	if clockOf(b) < clockOf(a) {
		days--
	}
	return days
}

func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func clockOf(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}
