/*
Package codestore implements the Code Store: content-addressed script
source, keyed by SHA-256, with reference counting and a background GC
sweep for entries that hit zero references.

SHA-256 addressing is done with stdlib crypto/sha256 — no library in the
example pack offers anything beyond what the standard library already
does for a fixed-size content hash, so this is one of the few pieces
built directly on stdlib rather than a third-party package.

The GC sweep loop is grounded on the ticker/stop-channel shape warren
used for its own reconciliation loop: start a ticker, select between tick
and stop, sweep on tick.

# Usage

	cs := codestore.New(st)
	cs.Start()
	defer cs.Stop()

	hash, err := cs.Store(source)
	cs.Retain(hash)
*/
package codestore
