// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// create a table for ledger events
const eventTableSchema = `
create table if not exists event (
	seq integer primary key,
	time integer,
	name text,
	lockID integer,
	account blob(20),
	gauge blob(20),
	token blob(20),
	amount blob
);

CREATE INDEX if not exists timeIndex on event(time);
CREATE INDEX if not exists nameIndex on event(name);
CREATE INDEX if not exists lockIDIndex on event(lockID);
CREATE INDEX if not exists accountIndex on event(account);
CREATE INDEX if not exists gaugeIndex on event(gauge);
`
