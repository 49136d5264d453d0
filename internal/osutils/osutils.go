// Package osutils holds small OS integrations the host and client need
// around the forwarding pipeline.
package osutils

import "fmt"

// FirewallRuleName is the inbound rule the host creates for its listen port.
const FirewallRuleName = "EdgeKVM Input Stream"

func firewallScript(port int) string {
	return fmt.Sprintf(
		"Remove-NetFirewallRule -DisplayName '%s' -ErrorAction SilentlyContinue; New-NetFirewallRule -DisplayName '%s' -Direction Inbound -LocalPort %d -Protocol TCP -Action Allow -Profile Private,Domain",
		FirewallRuleName, FirewallRuleName, port,
	)
}
