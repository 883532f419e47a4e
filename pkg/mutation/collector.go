// Package mutation implements the Mutation Collector: the ordered,
// per-execution staging area for write-intents and outbound messages.
// Nothing staged here touches the store until the owning command commits;
// on any execution error the whole collector is discarded.
package mutation

import "github.com/cuemby/mudforge/pkg/router"

// Kind discriminates the staged write-intents a script execution can
// produce, per spec §4.10.
type Kind string

const (
	KindCreate       Kind = "create"
	KindUpdate       Kind = "update"
	KindMove         Kind = "move"
	KindDelete       Kind = "delete"
	KindDefineClass  Kind = "define_class"
	KindStoreCode    Kind = "store_code"
	KindSetTimer     Kind = "set_timer"
	KindCancelTimer  Kind = "cancel_timer"
	KindCreditDelta  Kind = "credit_delta"
	KindGrantPath    Kind = "grant_path"
	KindRevokeGrant  Kind = "revoke_grant"
	KindSetAccess    Kind = "set_access_level"
)

// Intent is one ordered write-intent staged during an execution.
type Intent struct {
	Kind    Kind
	Payload any
}

// Collector accumulates intents and outbound messages for one script
// execution. A fresh Collector is created per execution by the scheduler
// and handed to the Host API.
type Collector struct {
	Universe string
	intents  []Intent
	messages []router.Message
	aborted  bool
}

// New creates an empty Collector for one execution.
func New(universe string) *Collector {
	return &Collector{Universe: universe}
}

// Stage appends an ordered write-intent. No-op once Abort has been called.
func (c *Collector) Stage(kind Kind, payload any) {
	if c.aborted {
		return
	}
	c.intents = append(c.intents, Intent{Kind: kind, Payload: payload})
}

// StageMessage appends an outbound message. No-op once Abort has been
// called.
func (c *Collector) StageMessage(msg router.Message) {
	if c.aborted {
		return
	}
	c.messages = append(c.messages, msg)
}

// Abort discards everything staged so far and rejects further staging.
// Called once an execution hits any error (script exception, resource
// limit, permission denial).
func (c *Collector) Abort() {
	c.aborted = true
	c.intents = nil
	c.messages = nil
}

// Aborted reports whether this collector was discarded.
func (c *Collector) Aborted() bool { return c.aborted }

// Intents returns the staged write-intents in commit order.
func (c *Collector) Intents() []Intent { return c.intents }

// MessageBatch packages the staged messages for delivery, only ever
// called after a successful commit.
func (c *Collector) MessageBatch() router.Batch {
	return router.Batch{Universe: c.Universe, Messages: c.messages}
}
