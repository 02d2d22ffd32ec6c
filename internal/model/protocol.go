package model

import (
	"fmt"
	"strings"
)

// Protocol identifies a lending-protocol family. The two families differ in
// how their subgraphs expose history: Aave-style deployments publish separate
// collections per event direction, Compound-style deployments publish one
// unified account-event stream.
type Protocol string

const (
	ProtocolAave     Protocol = "aave"
	ProtocolCompound Protocol = "compound"
)

// ParseProtocol validates a protocol name from config or flags.
func ParseProtocol(input string) (Protocol, error) {
	switch Protocol(strings.ToLower(strings.TrimSpace(input))) {
	case ProtocolAave:
		return ProtocolAave, nil
	case ProtocolCompound:
		return ProtocolCompound, nil
	default:
		return "", fmt.Errorf("unknown protocol: %s", input)
	}
}
