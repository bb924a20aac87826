// Package featureflags gates the relay paths behind configurable switches.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Flags understood by the server.
const (
	// ServerPush sends relay events after like, comment and follow mutations.
	ServerPush = "server_push"
	// ClientRelay forwards relay requests sent by connected clients.
	ClientRelay = "client_relay"
)

// Defaults apply before the configured list, so configuration only needs to name overrides.
const Defaults = ServerPush + "=on," + ClientRelay + "=on"

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "server_push=on,client_relay=25%"
type Manager struct {
	flags map[string]string
}

// NewManager creates a manager from Defaults overlaid with the comma-separated raw list.
func NewManager(raw string) *Manager {
	out := make(map[string]string)
	parseInto(out, Defaults)
	parseInto(out, raw)
	return &Manager{flags: out}
}

func parseInto(out map[string]string, raw string) {
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic user rollout, e.g. 25%)
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if userID == 0 {
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
