// Package txnmgr implements the transaction manager state machine
// (spec §4.4): per-tick deadlock detection, wait-queue draining, and
// dispatch of begin/beginRO/end/R/W/fail/recover/dump operations
// against a fleet of sites and a wait-for graph.
package txnmgr

import (
	"repcrec/internal/config"
	"repcrec/internal/invariant"
	"repcrec/internal/ops"
	"repcrec/internal/site"
	"repcrec/internal/tracelog"
	"repcrec/internal/wfg"
)

type abortReason int

const (
	abortReasonDeadlock abortReason = iota
	abortReasonFailedSite
)

// Manager is the central state machine driving one simulation run.
type Manager struct {
	clock    int
	sites    []*site.Site // index 0 unused; sites live at [1, numSites]
	numSites int
	numVars  int

	trace *tracelog.Trace

	transactions map[int]*Transaction
	everBegan    map[int]bool // set by Begin/BeginRO, never cleared: distinguishes "never began" from "began, then terminated"
	waitQueue    []ops.Op
	abortSet     map[int]bool    // transactions doomed by a site failure, abort at next end()
	lastFailTick map[int]int     // site -> tick of its most recent failure
	graph        *wfg.Graph

	committedCount int
	abortedCount   int
}

// New builds a Manager with cfg.Sites sites, each initialized per spec
// §3, and an empty wait-for graph.
func New(cfg *config.Config, trace *tracelog.Trace) *Manager {
	sites := make([]*site.Site, cfg.Sites+1)
	for s := 1; s <= cfg.Sites; s++ {
		st := site.New(s, cfg.Variables)
		st.Initialize()
		sites[s] = st
	}
	return &Manager{
		sites:        sites,
		numSites:     cfg.Sites,
		numVars:      cfg.Variables,
		trace:        trace,
		transactions: make(map[int]*Transaction),
		everBegan:    make(map[int]bool),
		abortSet:     make(map[int]bool),
		lastFailTick: make(map[int]int),
		graph:        wfg.New(),
	}
}

// Clock returns the manager's current logical tick.
func (m *Manager) Clock() int { return m.clock }

// Committed returns the number of transactions committed so far.
func (m *Manager) Committed() int { return m.committedCount }

// Aborted returns the number of transactions aborted so far.
func (m *Manager) Aborted() int { return m.abortedCount }

// Step advances the clock by one tick, runs the deadlock sweep and
// wait-queue drain, then dispatches op (spec §4.4).
func (m *Manager) Step(op ops.Op) error {
	m.clock++
	m.deadlockSweep()
	m.drainWaitQueue()
	return m.dispatch(op)
}

func (m *Manager) dispatch(op ops.Op) error {
	switch op.Kind {
	case ops.Begin:
		m.everBegan[op.Txn] = true
		m.transactions[op.Txn] = &Transaction{
			ID: op.Txn, Kind: ReadWrite, StartTime: m.clock,
			Status: Active, WrittenVars: make(map[int]bool),
		}
		m.trace.Begin(op.Txn, m.clock)
		return nil

	case ops.BeginRO:
		m.everBegan[op.Txn] = true
		m.transactions[op.Txn] = &Transaction{
			ID: op.Txn, Kind: ReadOnly, StartTime: m.clock, SnapshotTime: m.clock,
			Status: Active, WrittenVars: make(map[int]bool),
		}
		m.trace.BeginRO(op.Txn, m.clock)
		return nil

	case ops.End:
		if !m.everBegan[op.Txn] {
			return &UnknownTransactionError{Txn: op.Txn, Op: op.String()}
		}
		if _, ok := m.transactions[op.Txn]; !ok {
			// Already terminated (e.g. aborted as a deadlock victim
			// before its own end() was dispatched, spec §8 scenario 3):
			// a trailing end() is a harmless no-op, not an error.
			return nil
		}
		return m.handleEnd(op.Txn)

	case ops.Fail:
		if op.Site < 1 || op.Site > m.numSites {
			return &UnknownSiteError{Site: op.Site, Op: op.String()}
		}
		m.handleFail(op.Site)
		return nil

	case ops.Recover:
		if op.Site < 1 || op.Site > m.numSites {
			return &UnknownSiteError{Site: op.Site, Op: op.String()}
		}
		m.sites[op.Site].Recover()
		m.trace.SiteRecover(op.Site, m.clock)
		return nil

	case ops.Dump:
		m.handleDump()
		return nil

	case ops.Read:
		if !m.everBegan[op.Txn] {
			return &UnknownTransactionError{Txn: op.Txn, Op: op.String()}
		}
		if _, ok := m.transactions[op.Txn]; !ok {
			return nil // already terminated; same premature-deletion path as End
		}
		m.handleRead(op)
		return nil

	case ops.Write:
		if !m.everBegan[op.Txn] {
			return &UnknownTransactionError{Txn: op.Txn, Op: op.String()}
		}
		if _, ok := m.transactions[op.Txn]; !ok {
			return nil // already terminated; same premature-deletion path as End
		}
		m.handleWrite(op)
		return nil
	}
	return nil
}

// --- end / commit / abort -------------------------------------------------

func (m *Manager) handleEnd(txnID int) error {
	if m.abortSet[txnID] {
		m.abortTransaction(txnID, abortReasonFailedSite)
		return nil
	}
	m.commitTransaction(txnID)
	return nil
}

func (m *Manager) commitTransaction(txnID int) {
	txn := m.transactions[txnID]
	invariant.Check(txn != nil, "commit of unregistered transaction T%d", txnID)

	for v := range txn.WrittenVars {
		for _, st := range m.sites[1:] {
			if st.IsActive() && st.HasVariable(v) {
				st.CommitCache(v, txnID, m.trace)
			}
		}
	}
	m.trace.Commit(txnID)

	for _, st := range m.sites[1:] {
		st.ReleaseLocksOf(txnID)
	}
	m.graph.RemoveSource(txnID)
	m.removeFromWaitQueue(txnID)
	delete(m.transactions, txnID)
	m.committedCount++
}

func (m *Manager) abortTransaction(txnID int, reason abortReason) {
	if _, ok := m.transactions[txnID]; !ok {
		return
	}
	for _, st := range m.sites[1:] {
		st.ReleaseLocksOf(txnID)
	}
	m.graph.RemoveSource(txnID)
	m.removeFromWaitQueue(txnID)
	delete(m.transactions, txnID)
	delete(m.abortSet, txnID)
	m.abortedCount++

	switch reason {
	case abortReasonDeadlock:
		m.trace.AbortDeadlock(txnID)
	case abortReasonFailedSite:
		m.trace.AbortFailedSite(txnID)
	}
}

func (m *Manager) removeFromWaitQueue(txnID int) {
	filtered := m.waitQueue[:0]
	for _, e := range m.waitQueue {
		if e.Txn != txnID {
			filtered = append(filtered, e)
		}
	}
	m.waitQueue = filtered
}

// --- site lifecycle --------------------------------------------------------

func (m *Manager) handleFail(s int) {
	st := m.sites[s]
	touched := st.TouchingTransactions()
	st.ReleaseAllLocks()
	st.Fail()
	for _, txnID := range touched {
		if _, ok := m.transactions[txnID]; ok {
			m.abortSet[txnID] = true
		}
	}
	m.lastFailTick[s] = m.clock
	m.trace.SiteFail(s, m.clock)
}

// --- dump --------------------------------------------------------------

// handleDump prints every variable at every currently active site,
// ascending by site then variable id, reflecting committed state only
// (spec §6: "dump() | print all variables at all active sites").
func (m *Manager) handleDump() {
	for s := 1; s <= m.numSites; s++ {
		st := m.sites[s]
		if !st.IsActive() {
			continue
		}
		m.trace.DumpHeader(s)
		for v := 1; v <= m.numVars; v++ {
			if !st.HasVariable(v) {
				continue
			}
			m.trace.DumpVar(v, st.GetValueAt(v, m.clock))
		}
	}
}

// --- deadlock sweep --------------------------------------------------------

func (m *Manager) deadlockSweep() {
	for {
		cycle := m.graph.DetectCycle()
		if len(cycle) == 0 {
			return
		}
		victim := m.pickVictim(cycle)
		m.abortTransaction(victim, abortReasonDeadlock)
	}
}

// pickVictim selects the youngest transaction (latest start time) in
// cycle, breaking ties toward the higher transaction id (spec §4.4.5).
func (m *Manager) pickVictim(cycle []int) int {
	victim := cycle[0]
	for _, t := range cycle[1:] {
		vt := m.transactions[victim]
		tt := m.transactions[t]
		if vt == nil {
			victim = t
			continue
		}
		if tt == nil {
			continue
		}
		if tt.StartTime > vt.StartTime || (tt.StartTime == vt.StartTime && t > victim) {
			victim = t
		}
	}
	return victim
}

// --- wait queue --------------------------------------------------------

func (m *Manager) enqueue(op ops.Op) {
	m.waitQueue = append(m.waitQueue, op)
	if txn := m.transactions[op.Txn]; txn != nil {
		txn.Status = Waiting
	}
	m.trace.Blocked(op.Txn, op.String(), m.clock)
}

// drainWaitQueue repeatedly scans the wait queue in order, granting
// any entry that now succeeds and restarting the scan, until a full
// pass makes no progress (spec §4.4).
func (m *Manager) drainWaitQueue() {
	for {
		progressed := false
		for i := 0; i < len(m.waitQueue); i++ {
			op := m.waitQueue[i]
			txn := m.transactions[op.Txn]
			if txn == nil {
				// Transaction ended out from under its queued request
				// (aborted as a deadlock victim, etc); drop it.
				m.waitQueue = append(m.waitQueue[:i], m.waitQueue[i+1:]...)
				progressed = true
				break
			}

			var ok bool
			switch op.Kind {
			case ops.Read:
				if txn.Kind == ReadOnly {
					ok = m.attemptSnapshotRead(op, txn)
				} else {
					ok, _ = m.attemptRead(op, i)
				}
			case ops.Write:
				ok, _ = m.attemptWrite(op, i)
			}

			if ok {
				txn.Status = Active
				m.waitQueue = append(m.waitQueue[:i], m.waitQueue[i+1:]...)
				progressed = true
				break
			}
		}
		if !progressed {
			return
		}
	}
}

// --- read / write dispatch --------------------------------------------------------

func (m *Manager) handleRead(op ops.Op) {
	txn := m.transactions[op.Txn]
	if txn.Kind == ReadOnly {
		if !m.attemptSnapshotRead(op, txn) {
			m.enqueue(op)
		}
		return
	}
	ok, blockers := m.attemptRead(op, len(m.waitQueue))
	if !ok {
		m.enqueue(op)
		m.graph.AddEdges(op.Txn, dedupe(blockers))
	}
}

func (m *Manager) handleWrite(op ops.Op) {
	ok, blockers := m.attemptWrite(op, len(m.waitQueue))
	if !ok {
		m.enqueue(op)
		m.graph.AddEdges(op.Txn, dedupe(blockers))
	}
}

// attemptRead implements spec §4.4.1: an ordinary read-write
// transaction read. limit bounds how much of the wait queue counts as
// "earlier" when checking queue-order fairness for
// AllowedIfQueueEmpty joins.
func (m *Manager) attemptRead(op ops.Op, limit int) (bool, []int) {
	var blockers []int
	for s := 1; s <= m.numSites; s++ {
		st := m.sites[s]
		if !st.IsActive() || !st.HasVariable(op.Var) {
			continue
		}
		if !st.IsUniqueVariable(op.Var) && st.IsStale(op.Var) {
			continue
		}

		switch st.CanAcquireRead(op.Var, op.Txn) {
		case site.Denied:
			blockers = append(blockers, st.AllHoldersOf(op.Var)...)
		case site.AllowedSameTxn:
			st.AcquireRead(op.Var, op.Txn)
			var value int
			if st.HasCachedWrite(op.Var) {
				value = st.LatestCachedValue(op.Var)
			} else {
				value = st.GetValueAt(op.Var, m.clock)
			}
			m.trace.Read(op.Txn, op.Var, value)
			return true, nil
		case site.Allowed:
			st.AcquireRead(op.Var, op.Txn)
			value := st.GetValueAt(op.Var, m.clock)
			m.trace.Read(op.Txn, op.Var, value)
			return true, nil
		case site.AllowedIfQueueEmpty:
			contenders := m.earlierConflictingWriters(op.Var, op.Txn, limit)
			if len(contenders) > 0 {
				blockers = append(blockers, contenders...)
				continue
			}
			st.AcquireRead(op.Var, op.Txn)
			value := st.GetValueAt(op.Var, m.clock)
			m.trace.Read(op.Txn, op.Var, value)
			return true, nil
		}
	}
	return false, blockers
}

// attemptSnapshotRead implements spec §4.4.2: a read-only
// transaction's read against its fixed snapshot time. Never blocks on
// locks and never adds wait-for edges; it only waits for a suitable
// site to become available.
func (m *Manager) attemptSnapshotRead(op ops.Op, txn *Transaction) bool {
	snap := txn.SnapshotTime
	for s := 1; s <= m.numSites; s++ {
		st := m.sites[s]
		if !st.IsActive() || !st.HasVariable(op.Var) {
			continue
		}
		replicated := !st.IsUniqueVariable(op.Var)
		if replicated && st.IsStale(op.Var) {
			continue
		}
		if replicated {
			if failTick, everFailed := m.lastFailTick[s]; everFailed {
				lastCommit := st.LastCommittedTimeAt(op.Var, snap)
				if !(lastCommit < failTick && failTick > snap) {
					continue
				}
			}
		}
		value := st.GetValueAt(op.Var, snap)
		m.trace.Read(op.Txn, op.Var, value)
		return true
	}
	return false
}

// attemptWrite implements spec §4.4.3: probe every active site
// hosting the variable, and only acquire-and-cache on all of them if
// every probe succeeds (two-pass, all-or-nothing per tick).
func (m *Manager) attemptWrite(op ops.Op, limit int) (bool, []int) {
	var targets []*site.Site
	for s := 1; s <= m.numSites; s++ {
		st := m.sites[s]
		if st.IsActive() && st.HasVariable(op.Var) {
			targets = append(targets, st)
		}
	}
	if len(targets) == 0 {
		return false, nil
	}

	var blockers []int
	blocked := false
	for _, st := range targets {
		switch st.CanAcquireWrite(op.Var, op.Txn) {
		case site.Denied:
			blocked = true
			blockers = append(blockers, st.AllHoldersOf(op.Var)...)
		case site.AllowedIfQueueEmpty:
			contenders := m.earlierContenders(op.Var, op.Txn, limit)
			if len(contenders) > 0 {
				blocked = true
				blockers = append(blockers, contenders...)
			}
		case site.Allowed:
			// fine
		}
	}
	if blocked {
		return false, blockers
	}

	txn := m.transactions[op.Txn]
	for _, st := range targets {
		st.AcquireWrite(op.Var, op.Txn)
		st.CacheWrite(op.Var, op.Value, m.clock)
		m.trace.WriteGrant(op.Txn, op.Var, st.ID, m.clock)
	}
	txn.WrittenVars[op.Var] = true
	return true, nil
}

// earlierConflictingWriters returns the transactions, other than txn,
// with a queued write on v among the first limit wait-queue entries,
// one entry per matching queue entry (so an id may repeat).
func (m *Manager) earlierConflictingWriters(v, txn, limit int) []int {
	var out []int
	for i := 0; i < limit && i < len(m.waitQueue); i++ {
		e := m.waitQueue[i]
		if e.Kind == ops.Write && e.Var == v && e.Txn != txn {
			out = append(out, e.Txn)
		}
	}
	return out
}

// earlierContenders returns the transactions, other than txn, with any
// queued read or write on v among the first limit wait-queue entries,
// one entry per matching queue entry (so an id may repeat).
func (m *Manager) earlierContenders(v, txn, limit int) []int {
	var out []int
	for i := 0; i < limit && i < len(m.waitQueue); i++ {
		e := m.waitQueue[i]
		if e.Var == v && e.Txn != txn && (e.Kind == ops.Read || e.Kind == ops.Write) {
			out = append(out, e.Txn)
		}
	}
	return out
}

func dedupe(xs []int) []int {
	if len(xs) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(xs))
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}
