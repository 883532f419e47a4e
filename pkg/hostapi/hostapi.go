// Package hostapi implements the game.* surface the Sandbox binds into
// every script execution, per spec §4.5.
package hostapi

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"

	"github.com/cuemby/mudforge/pkg/cascade"
	"github.com/cuemby/mudforge/pkg/classes"
	"github.com/cuemby/mudforge/pkg/codestore"
	"github.com/cuemby/mudforge/pkg/credits"
	"github.com/cuemby/mudforge/pkg/muderrs"
	"github.com/cuemby/mudforge/pkg/mutation"
	"github.com/cuemby/mudforge/pkg/objectgraph"
	"github.com/cuemby/mudforge/pkg/oracle"
	"github.com/cuemby/mudforge/pkg/permissions"
	"github.com/cuemby/mudforge/pkg/rng"
	"github.com/cuemby/mudforge/pkg/router"
	"github.com/cuemby/mudforge/pkg/sandbox"
	"github.com/cuemby/mudforge/pkg/types"
)

// Clock lets tests and privileged eval override the engine's notion of
// time (spec §4.5's set_time/advance_time), defaulting to the real wall
// clock.
type Clock interface {
	NowMS() int64
}

// TimeSetter is implemented by clocks that accept privileged set_time/
// advance_time calls; a Clock that doesn't implement it (a fixed test
// clock, say) simply rejects those calls.
type TimeSetter interface {
	SetTime(ms int64)
}

// systemClock is the default Clock: the real wall clock offset by an
// atomically-swapped delta, so set_time/advance_time can move it for
// testing without disturbing concurrent readers.
type systemClock struct{ offset atomic.Int64 }

// NewSystemClock creates a Clock anchored to the real wall clock.
func NewSystemClock() *systemClock { return &systemClock{} }

func (c *systemClock) NowMS() int64 { return time.Now().UnixMilli() + c.offset.Load() }

// SetTime implements TimeSetter: subsequent NowMS calls report ms until
// real time moves the clock further.
func (c *systemClock) SetTime(ms int64) { c.offset.Store(ms - time.Now().UnixMilli()) }

// TimerSink is how call_out/remove_call_out/find_call_out reach the
// scheduler's timer heap, kept as a narrow interface so pkg/hostapi
// never imports pkg/scheduler directly.
type TimerSink interface {
	SetCallOut(universe, objectID, method string, delaySeconds float64, args []any) (string, error)
	RemoveCallOut(universe, timerID string) bool
	FindCallOut(universe, objectID, method string) (float64, bool)
	SetHeartBeat(universe, objectID string, intervalMS int64)
}

// API is the shared, per-universe Host API implementation. A fresh
// execution binds it into a new goja runtime via Bind; per-execution
// state (collector, rng seed, budget) is scoped to that call, never
// shared across executions.
type API struct {
	Universe    string
	Graph       *objectgraph.Graph
	Classes     *classes.Registry
	Code        *codestore.CodeStore
	Perms       *permissions.Checker
	Actions     *ActionTable
	Router      *router.Router
	Credits     *credits.Ledger
	OracleLimit *oracle.Limiter
	Timers      TimerSink
	Cascade     *cascade.Cascade
	Clock       Clock
	Accounts    AccountSource
	Grants      GrantSink

	last *execution // most recent execution's collector, read after Run returns
}

// LastCollector returns the Mutation Collector staged by the most
// recently bound execution. Safe because a Scheduler serializes every
// execution for a given universe: Bind always finishes running before
// the next one starts, so there is never more than one live execution
// per API instance.
func (a *API) LastCollector() *mutation.Collector {
	if a.last == nil {
		return nil
	}
	return a.last.collector
}

// AccountSource resolves accounts for permission checks and applies
// privileged role changes (set_access_level).
type AccountSource interface {
	GetAccount(id string) (*types.Account, error)
	SetAccessLevel(accountID string, level types.AccessLevel) error
}

// GrantSink is how assign_region/unassign_region reach path grants, kept
// narrow so pkg/hostapi never imports pkg/store directly.
type GrantSink interface {
	PutGrant(g *types.PathGrant) error
	RevokeGrant(universe, id string) error
}

// execution is the per-script-run state threaded through every bound
// function closure.
type execution struct {
	api       *API
	collector *mutation.Collector
	rng       *rng.Source
	budget    *sandbox.Budget
	execCtx   sandbox.ExecContext
	overlay   map[string]*types.Object // uncommitted create/update, read-your-writes
	deleted   map[string]bool
	rt        *goja.Runtime
	dispatch  *classes.DispatchStack
}

// Bind implements sandbox.HostBinder: it builds a fresh execution and
// registers the game object plus Invoke for the cascade trampoline.
func (a *API) Bind(rt *goja.Runtime, budget *sandbox.Budget, execCtx sandbox.ExecContext) error {
	ex := &execution{
		api:       a,
		collector: mutation.New(execCtx.UniverseID),
		rng:       rng.Seed(execCtx.UniverseID, execCtx.CommandSeq, execCtx.ActorID),
		budget:    budget,
		execCtx:   execCtx,
		overlay:   make(map[string]*types.Object),
		deleted:   make(map[string]bool),
		rt:        rt,
		dispatch:  classes.NewDispatchStack(),
	}
	a.last = ex
	return rt.Set("game", ex.bindings(rt))
}

// Collector exposes the execution's staged intents/messages once Bind
// has run; the scheduler reads this after a successful RunString to
// commit through the Replicator and flush through the Router.
func (ex *execution) Collector() *mutation.Collector { return ex.collector }

func (ex *execution) chargeStore() error { return ex.budget.ChargeStoreQuery() }

func (ex *execution) bindings(rt *goja.Runtime) map[string]interface{} {
	return map[string]interface{}{
		"create_object":         ex.createObject,
		"get_object":            ex.getObject,
		"update_object":         ex.updateObject,
		"delete_object":         ex.deleteObject,
		"move_object":           ex.moveObject,
		"clone_object":          ex.cloneObject,
		"define_class":          ex.defineClass,
		"get_class":             ex.getClass,
		"get_class_chain":       ex.getClassChain,
		"is_a":                  ex.isA,
		"parent":                ex.parent,
		"environment":           ex.environment,
		"all_inventory":         ex.allInventory,
		"deep_inventory":        ex.deepInventory,
		"present":               ex.present,
		"present_living":        ex.presentLiving,
		"add_action":            ex.addAction,
		"remove_action":         ex.removeAction,
		"get_actions":           ex.getActions,
		"send":                  ex.send,
		"broadcast":             ex.broadcast,
		"broadcast_except":      ex.broadcastExcept,
		"broadcast_region":      ex.broadcastRegion,
		"call_out":              ex.callOut,
		"remove_call_out":       ex.removeCallOut,
		"find_call_out":         ex.findCallOut,
		"set_heart_beat":        ex.setHeartBeat,
		"llm_chat":              ex.llmChat,
		"llm_image":             ex.llmImage,
		"get_credits":           ex.getCredits,
		"deduct_credits":        ex.deductCredits,
		"admin_grant_credits":   ex.adminGrantCredits,
		"check_permission":      ex.checkPermission,
		"get_access_level":      ex.getAccessLevel,
		"set_access_level":      ex.setAccessLevel,
		"assign_region":         ex.assignRegion,
		"unassign_region":       ex.unassignRegion,
		"random":                ex.random,
		"roll_dice":             ex.rollDice,
		"time":                  ex.timeNow,
		"set_time":              ex.setTime,
		"advance_time":          ex.advanceTime,
		"store_code":            ex.storeCode,
		"get_code":              ex.getCode,
		"get_actor":             func() string { return ex.execCtx.ActorID },
		"this_object":           func() string { return ex.execCtx.ObjectID },
	}
}

func errResult(err error) map[string]interface{} {
	return map[string]interface{}{"error": err.Error()}
}

// --- Object & class operations ---

func (ex *execution) createObject(path, class string, parentID string, props map[string]interface{}) interface{} {
	if err := ex.chargeStore(); err != nil {
		return errResult(err)
	}
	var parent *string
	if parentID != "" {
		parent = &parentID
	}
	obj, err := ex.api.Graph.Create(path, class, parent, props)
	if err != nil {
		return errResult(err)
	}
	ex.overlay[obj.ID] = obj
	ex.collector.Stage(mutation.KindCreate, obj)
	if parent != nil {
		if err := ex.api.Cascade.Run(ex, obj.ID, nil, parent); err != nil {
			return errResult(err)
		}
	}
	return obj
}

func (ex *execution) getObject(id string) interface{} {
	if ex.deleted[id] {
		return nil
	}
	if o, ok := ex.overlay[id]; ok {
		return o
	}
	if err := ex.chargeStore(); err != nil {
		return errResult(err)
	}
	obj, err := ex.api.Graph.Get(id)
	if err != nil {
		return nil
	}
	return obj
}

func (ex *execution) updateObject(id string, changes map[string]interface{}) interface{} {
	if err := ex.chargeStore(); err != nil {
		return false
	}
	if err := ex.api.Graph.Update(id, changes); err != nil {
		return false
	}
	obj, _ := ex.api.Graph.Get(id)
	ex.overlay[id] = obj
	ex.collector.Stage(mutation.KindUpdate, map[string]interface{}{"id": id, "changes": changes})
	return true
}

func (ex *execution) deleteObject(id string) interface{} {
	if err := ex.chargeStore(); err != nil {
		return false
	}
	if err := ex.api.Graph.Delete(id); err != nil {
		return false
	}
	ex.deleted[id] = true
	delete(ex.overlay, id)
	ex.collector.Stage(mutation.KindDelete, id)
	return true
}

func (ex *execution) moveObject(id string, newParent string) interface{} {
	if err := ex.chargeStore(); err != nil {
		return false
	}
	obj, err := ex.api.Graph.Get(id)
	if err != nil {
		return false
	}
	source := obj.Parent
	if err := ex.api.Graph.Move(id, newParent); err != nil {
		return false
	}
	ex.collector.Stage(mutation.KindMove, map[string]interface{}{"id": id, "new_parent": newParent})
	if err := ex.api.Cascade.Run(ex, id, source, &newParent); err != nil {
		return false
	}
	return true
}

func (ex *execution) cloneObject(srcID, newPath, newParent string) interface{} {
	src, err := ex.api.Graph.Get(srcID)
	if err != nil {
		return nil
	}
	return ex.createObject(newPath, src.Class, newParent, src.Properties)
}

func (ex *execution) defineClass(name string, parent string, defaults map[string]interface{}, handlers []interface{}, codeHash string) interface{} {
	specs := map[string]types.PropertySpec{}
	for k, v := range defaults {
		specs[k] = propertySpec(v)
	}
	handlerSet := map[string]bool{}
	for _, h := range handlers {
		if s, ok := h.(string); ok {
			handlerSet[s] = true
		}
	}
	if err := ex.api.Classes.Define(name, parent, specs, handlerSet); err != nil {
		return errResult(err)
	}
	if codeHash != "" {
		if err := ex.api.Classes.SetCode(name, codeHash); err != nil {
			return errResult(err)
		}
	}
	ex.collector.Stage(mutation.KindDefineClass, map[string]interface{}{
		"name": name, "parent": parent, "defaults": specs, "handlers": handlerSet, "code_hash": codeHash,
	})
	return nil
}

// propertySpec reads one property_defaults entry. Scripts may pass the
// spec's {type, default} shape directly, or a bare default value, in
// which case the declared type is inferred from it.
func propertySpec(v interface{}) types.PropertySpec {
	if m, ok := v.(map[string]interface{}); ok {
		if t, ok := m["type"].(string); ok {
			if def, ok := m["default"]; ok {
				return types.PropertySpec{Type: t, Default: def}
			}
		}
	}
	return types.PropertySpec{Type: inferPropertyType(v), Default: v}
}

func inferPropertyType(v interface{}) string {
	switch v.(type) {
	case bool:
		return "bool"
	case int, int64, float64:
		return "int"
	case []interface{}:
		return "list"
	case map[string]interface{}:
		return "map"
	default:
		return "string"
	}
}

func (ex *execution) getClass(name string) interface{} {
	def, err := ex.api.Classes.Get(name)
	if err != nil {
		return nil
	}
	return def
}

func (ex *execution) getClassChain(name string) interface{} {
	chain, err := ex.api.Classes.Chain(name)
	if err != nil {
		return []string{}
	}
	return chain
}

func (ex *execution) isA(id, class string) interface{} {
	obj, err := ex.api.Graph.Get(id)
	if err != nil {
		return false
	}
	ok, _ := ex.api.Classes.IsA(obj.Class, class)
	return ok
}

// Invoke implements cascade.Invoker: it resolves the target's own code
// first, then its class chain, and runs the handler's body in this same
// execution's runtime and budget — no nested sandbox, no fresh metering.
// A target with no code anywhere in its chain is a silent no-op, same as
// the cascade's handler-declared-but-unimplemented gap.
func (ex *execution) Invoke(objectID, handler string, args ...any) error {
	obj, err := ex.resolveForInvoke(objectID)
	if err != nil || obj == nil {
		return nil
	}

	if obj.CodeHash != nil {
		called, err := ex.runHandler(obj.Class, obj.Class, *obj.CodeHash, handler, args)
		if err != nil {
			return err
		}
		if called {
			ex.stageInvoke(objectID, handler, args)
			return nil
		}
	}

	class, hash, ok, err := ex.resolveClassHandler(obj.Class, handler)
	if err != nil || !ok {
		return nil
	}
	called, err := ex.runHandler(obj.Class, class, *hash, handler, args)
	if err != nil {
		return err
	}
	if called {
		ex.stageInvoke(objectID, handler, args)
	}
	return nil
}

func (ex *execution) resolveForInvoke(objectID string) (*types.Object, error) {
	if ex.deleted[objectID] {
		return nil, nil
	}
	if o, ok := ex.overlay[objectID]; ok {
		return o, nil
	}
	return ex.api.Graph.Get(objectID)
}

// resolveClassHandler finds the nearest class in rootClass's own chain
// (rootClass itself, then ancestors) that both declares handler and
// carries its own code.
func (ex *execution) resolveClassHandler(rootClass, handler string) (string, *string, bool, error) {
	chain, err := ex.api.Classes.Chain(rootClass)
	if err != nil {
		return "", nil, false, err
	}
	for _, c := range chain {
		def, err := ex.api.Classes.Get(c)
		if err != nil {
			return "", nil, false, err
		}
		if def.HandlerNames[handler] && def.CodeHash != nil {
			return c, def.CodeHash, true, nil
		}
	}
	return "", nil, false, nil
}

// runHandler loads hash's source and calls handler in this execution's
// runtime, pushing a dispatch frame so a parent(self, …) call inside the
// handler body can resolve the next ancestor up rootClass's chain.
func (ex *execution) runHandler(rootClass, resolvedClass, hash, handler string, args []any) (bool, error) {
	source, err := ex.api.Code.Get(hash)
	if err != nil {
		return false, nil
	}
	ex.dispatch.Push(classes.DispatchFrame{RootClass: rootClass, ResolvedClass: resolvedClass, Handler: handler})
	defer ex.dispatch.Pop()
	_, found, err := sandbox.CallHandler(ex.rt, source, handler, args)
	return found, err
}

func (ex *execution) stageInvoke(objectID, handler string, args []any) {
	ex.collector.Stage(mutation.KindUpdate, map[string]interface{}{
		"id": objectID, "handler_invoked": handler, "args": args,
	})
}

// parent is the game.parent(self, …args) super-call trampoline: it
// resolves the next ancestor up the currently-dispatching object's class
// chain that still defines the running handler, and calls it with the
// same arguments, per spec §9's design note.
func (ex *execution) parent(self string, args ...interface{}) interface{} {
	frame, ok := ex.dispatch.Current()
	if !ok {
		return nil
	}
	class, hash, ok, err := ex.api.Classes.NextAncestor(frame.RootClass, frame.ResolvedClass, frame.Handler)
	if err != nil || !ok {
		return nil
	}
	var anyArgs []any
	for _, a := range args {
		anyArgs = append(anyArgs, a)
	}
	called, err := ex.runHandler(frame.RootClass, class, *hash, frame.Handler, anyArgs)
	if err != nil {
		return errResult(err)
	}
	if called {
		ex.stageInvoke(self, frame.Handler, anyArgs)
	}
	return nil
}

// --- Environment queries ---

func (ex *execution) environment(id string) interface{} {
	obj, err := ex.api.Graph.Get(id)
	if err != nil || obj.Parent == nil {
		return nil
	}
	parent, err := ex.api.Graph.Get(*obj.Parent)
	if err != nil {
		return nil
	}
	return parent
}

func (ex *execution) allInventory(id string) interface{} {
	kids, err := ex.api.Graph.Children(id, "")
	if err != nil {
		return []interface{}{}
	}
	return kids
}

func (ex *execution) deepInventory(id string) interface{} {
	var out []*types.Object
	var walk func(string)
	walk = func(parentID string) {
		kids, err := ex.api.Graph.Children(parentID, "")
		if err != nil {
			return
		}
		for _, k := range kids {
			out = append(out, k)
			walk(k.ID)
		}
	}
	walk(id)
	return out
}

func (ex *execution) present(name, envID string) interface{} {
	obj, err := ex.api.Graph.Present(name, envID)
	if err != nil || obj == nil {
		return nil
	}
	return obj
}

func (ex *execution) presentLiving(name, envID string) interface{} {
	obj, err := ex.api.Graph.PresentLiving(name, envID)
	if err != nil || obj == nil {
		return nil
	}
	return obj
}

// --- Contextual actions ---

func (ex *execution) addAction(playerID, verb, objectID, handler string) {
	ex.api.Actions.Add(playerID, verb, objectID, handler)
}

func (ex *execution) removeAction(playerID, verb string) {
	ex.api.Actions.Remove(playerID, verb)
}

func (ex *execution) getActions(playerID string) interface{} {
	return ex.api.Actions.List(playerID)
}

// --- Messaging ---

func (ex *execution) send(targetID, text string) {
	ex.collector.StageMessage(router.Message{Kind: router.KindDirect, TargetID: targetID, Text: text})
}

func (ex *execution) broadcast(roomID, text string) {
	ex.collector.StageMessage(router.Message{Kind: router.KindRoom, TargetID: roomID, Text: text})
}

func (ex *execution) broadcastExcept(roomID, exceptID, text string) {
	ex.collector.StageMessage(router.Message{Kind: router.KindRoomExcept, TargetID: roomID, ExceptID: exceptID, Text: text})
}

func (ex *execution) broadcastRegion(regionID, text string) {
	ex.collector.StageMessage(router.Message{Kind: router.KindRegion, TargetID: regionID, Text: text})
}

// --- Timers ---

func (ex *execution) callOut(delaySeconds float64, method string, args []interface{}) interface{} {
	id, err := ex.api.Timers.SetCallOut(ex.execCtx.UniverseID, ex.execCtx.ObjectID, method, delaySeconds, args)
	if err != nil {
		return errResult(err)
	}
	return id
}

func (ex *execution) removeCallOut(timerID string) interface{} {
	return ex.api.Timers.RemoveCallOut(ex.execCtx.UniverseID, timerID)
}

func (ex *execution) findCallOut(objectID, method string) interface{} {
	secs, ok := ex.api.Timers.FindCallOut(ex.execCtx.UniverseID, objectID, method)
	if !ok {
		return nil
	}
	return secs
}

func (ex *execution) setHeartBeat(intervalMS int64) {
	ex.api.Timers.SetHeartBeat(ex.execCtx.UniverseID, ex.execCtx.ObjectID, intervalMS)
}

// --- Oracle ---

func (ex *execution) llmChat(messages []interface{}, tier string) interface{} {
	if err := ex.budget.ChargeOracleCall(); err != nil {
		return errResult(err)
	}
	if _, err := ex.api.Credits.Deduct(ex.execCtx.ActorID, costForTier(tier), "llm_chat"); err != nil {
		return errResult(err)
	}
	var chatMsgs []oracle.ChatMessage
	for _, m := range messages {
		if mm, ok := m.(map[string]interface{}); ok {
			role, _ := mm["role"].(string)
			content, _ := mm["content"].(string)
			chatMsgs = append(chatMsgs, oracle.ChatMessage{Role: role, Content: content})
		}
	}
	text, err := ex.api.OracleLimit.Chat(context.Background(), ex.execCtx.ActorID, chatMsgs, oracle.Tier(tier))
	if err != nil {
		return errResult(err)
	}
	return text
}

func (ex *execution) llmImage(prompt, style, size string) interface{} {
	if err := ex.budget.ChargeOracleCall(); err != nil {
		return errResult(err)
	}
	if _, err := ex.api.Credits.Deduct(ex.execCtx.ActorID, costForImage(size), "llm_image"); err != nil {
		return errResult(err)
	}
	url, err := ex.api.OracleLimit.Image(context.Background(), ex.execCtx.ActorID, prompt, style, size)
	if err != nil {
		return errResult(err)
	}
	return url
}

func costForTier(tier string) int64 {
	switch tier {
	case "quality":
		return 10
	case "balanced":
		return 4
	default:
		return 1
	}
}

func costForImage(size string) int64 {
	switch size {
	case "large":
		return 20
	default:
		return 8
	}
}

// --- Credits ---

func (ex *execution) getCredits() interface{} {
	bal, err := ex.api.Credits.Balance(ex.execCtx.ActorID)
	if err != nil {
		return 0
	}
	return bal
}

func (ex *execution) deductCredits(amount int64, reason string) interface{} {
	_, err := ex.api.Credits.Deduct(ex.execCtx.ActorID, amount, reason)
	return err == nil
}

func (ex *execution) adminGrantCredits(accountID string, amount int64) interface{} {
	_, err := ex.api.Credits.Grant(accountID, amount)
	ex.collector.Stage(mutation.KindCreditDelta, map[string]interface{}{"account_id": accountID, "amount": amount})
	return err == nil
}

// --- Permissions ---

func (ex *execution) checkPermission(action, targetID string, isFixed bool, regionID string) interface{} {
	actor, err := ex.api.Accounts.GetAccount(ex.execCtx.ActorID)
	if err != nil {
		return map[string]interface{}{"allowed": false, "error": err.Error()}
	}
	obj, _ := ex.api.Graph.Get(targetID)
	var owner *string
	if obj != nil {
		owner = obj.Owner
	}
	err = ex.api.Perms.Check(actor, permissions.Target{ID: targetID, Owner: owner, Fixed: isFixed}, permissions.Action(action))
	if err != nil {
		return map[string]interface{}{"allowed": false, "error": err.Error()}
	}
	return map[string]interface{}{"allowed": true}
}

func (ex *execution) getAccessLevel(accountID string) interface{} {
	acct, err := ex.api.Accounts.GetAccount(accountID)
	if err != nil {
		return ""
	}
	return string(acct.AccessLevel)
}

// requireWizard gates the handful of privileged host calls (set_access_level,
// assign_region/unassign_region, set_time/advance_time) on the calling
// actor's own role, per spec §4.8's "access_level >= wizard" bypass rule.
func (ex *execution) requireWizard() error {
	actor, err := ex.api.Accounts.GetAccount(ex.execCtx.ActorID)
	if err != nil {
		return err
	}
	if !actor.AccessLevel.AtLeast(types.AccessWizard) {
		return &muderrs.PermissionDenied{Reason: "requires wizard access or higher"}
	}
	return nil
}

// setAccessLevel is the privileged set_access_level(account_id, level).
func (ex *execution) setAccessLevel(accountID, level string) interface{} {
	if err := ex.requireWizard(); err != nil {
		return errResult(err)
	}
	if err := ex.api.Accounts.SetAccessLevel(accountID, types.AccessLevel(level)); err != nil {
		return errResult(err)
	}
	ex.collector.Stage(mutation.KindSetAccess, map[string]interface{}{
		"account_id": accountID, "level": level,
	})
	return nil
}

// assignRegion grants an account delegated permission over a path prefix,
// the path_grants row spec §4.8's rule 3 matches against.
func (ex *execution) assignRegion(granteeID, pathPrefix string, canDelegate bool) interface{} {
	if err := ex.requireWizard(); err != nil {
		return errResult(err)
	}
	grant := &types.PathGrant{
		ID:          uuid.New().String(),
		Universe:    ex.execCtx.UniverseID,
		GranteeID:   granteeID,
		PathPrefix:  pathPrefix,
		CanDelegate: canDelegate,
		GrantedBy:   ex.execCtx.ActorID,
		GrantedAt:   time.Now(),
	}
	if err := ex.api.Grants.PutGrant(grant); err != nil {
		return errResult(err)
	}
	ex.collector.Stage(mutation.KindGrantPath, grant)
	return grant.ID
}

// unassignRegion revokes one path grant by id.
func (ex *execution) unassignRegion(grantID string) interface{} {
	if err := ex.requireWizard(); err != nil {
		return errResult(err)
	}
	if err := ex.api.Grants.RevokeGrant(ex.execCtx.UniverseID, grantID); err != nil {
		return errResult(err)
	}
	ex.collector.Stage(mutation.KindRevokeGrant, grantID)
	return true
}

// --- RNG & time ---

func (ex *execution) random(min, max int) interface{} {
	if max <= min {
		return min
	}
	return min + ex.rng.Intn(max-min)
}

func (ex *execution) rollDice(notation string) interface{} {
	n, err := ex.rng.Roll(notation)
	if err != nil {
		return 0
	}
	return n
}

func (ex *execution) timeNow() interface{} {
	return ex.api.Clock.NowMS()
}

// setTime is the privileged set_time(ms) testing hook; it rejects non-
// settable clocks rather than silently no-op-ing.
func (ex *execution) setTime(ms int64) interface{} {
	if err := ex.requireWizard(); err != nil {
		return errResult(err)
	}
	setter, ok := ex.api.Clock.(TimeSetter)
	if !ok {
		return errResult(&muderrs.ScriptError{Message: "clock does not support set_time"})
	}
	setter.SetTime(ms)
	return nil
}

// advanceTime is the privileged advance_time(delta_ms) testing hook.
func (ex *execution) advanceTime(deltaMS int64) interface{} {
	if err := ex.requireWizard(); err != nil {
		return errResult(err)
	}
	setter, ok := ex.api.Clock.(TimeSetter)
	if !ok {
		return errResult(&muderrs.ScriptError{Message: "clock does not support advance_time"})
	}
	setter.SetTime(ex.api.Clock.NowMS() + deltaMS)
	return nil
}

// --- Code storage ---

func (ex *execution) storeCode(source string) interface{} {
	hash, err := ex.api.Code.Store(source)
	if err != nil {
		return errResult(err)
	}
	ex.collector.Stage(mutation.KindStoreCode, map[string]interface{}{"hash": hash, "source": source})
	return hash
}

func (ex *execution) getCode(hash string) interface{} {
	source, err := ex.api.Code.Get(hash)
	if err != nil {
		return nil
	}
	return source
}
