package metrics

import "time"

// RaftStatusSource reports the subset of consensus state the collector
// polls on each tick. pkg/replicator's Replicator satisfies this.
type RaftStatusSource interface {
	IsLeader() bool
	PeerCount() int
	AppliedIndex() uint64
}

// ObjectCountSource reports per-class object counts and the number of
// defined classes. pkg/store's Store satisfies this.
type ObjectCountSource interface {
	CountObjectsByClass() (map[string]int, error)
	CountClasses() (int, error)
	CountCodeEntries() (int, error)
}

// Collector polls the consensus layer and the keyed store on an interval
// and republishes their state as gauges.
type Collector struct {
	raft   RaftStatusSource
	store  ObjectCountSource
	stopCh chan struct{}
}

// NewCollector creates a collector over the given sources.
func NewCollector(raft RaftStatusSource, store ObjectCountSource) *Collector {
	return &Collector{
		raft:   raft,
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start begins polling in a background goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts polling.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectRaftMetrics()
	c.collectStoreMetrics()
}

func (c *Collector) collectRaftMetrics() {
	if c.raft == nil {
		return
	}
	if c.raft.IsLeader() {
		RaftLeader.Set(1)
	} else {
		RaftLeader.Set(0)
	}
	RaftPeers.Set(float64(c.raft.PeerCount()))
	RaftAppliedIndex.Set(float64(c.raft.AppliedIndex()))
}

func (c *Collector) collectStoreMetrics() {
	if c.store == nil {
		return
	}
	if byClass, err := c.store.CountObjectsByClass(); err == nil {
		for class, count := range byClass {
			ObjectsTotal.WithLabelValues(class).Set(float64(count))
		}
	}
	if n, err := c.store.CountClasses(); err == nil {
		ClassesTotal.Set(float64(n))
	}
	if n, err := c.store.CountCodeEntries(); err == nil {
		CodeEntriesTotal.Set(float64(n))
	}
}
