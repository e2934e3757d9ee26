// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the storage slots of the built-in ledgers.
// It follows the flow as bellow:
//
//	           o
//	           |
//	  [ revertable state ]
//	           |
//	    [ stacked map ] -> [ journal ] -> [ commit(batch) ] -> [ kv store ]
//	           |
//	     [ slot cache ]
//	           |
//	     [ kv store ]
//
// Every ledger mutation runs inside a checkpoint. A failed mutation reverts to it,
// a successful one is committed as a single batch, so the store only ever holds
// the results of complete operations.
package state
