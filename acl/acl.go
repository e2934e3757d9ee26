// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package acl

import (
	"github.com/vechain/vevote/thor"
)

// Static grants capabilities from a fixed table. It is immutable once built.
type Static struct {
	grants map[string]map[thor.Address]struct{}
}

// New builds the table from action to the addresses holding it.
func New(grants map[string][]thor.Address) *Static {
	s := &Static{grants: make(map[string]map[thor.Address]struct{}, len(grants))}
	for action, addrs := range grants {
		set := make(map[thor.Address]struct{}, len(addrs))
		for _, addr := range addrs {
			set[addr] = struct{}{}
		}
		s.grants[action] = set
	}
	return s
}

func (s *Static) HasCapability(caller thor.Address, action string) bool {
	_, ok := s.grants[action][caller]
	return ok
}

// Holders returns the number of addresses granted action.
func (s *Static) Holders(action string) int {
	return len(s.grants[action])
}
