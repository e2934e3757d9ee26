// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package voter

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vevote/builtin/escrow/epoch"
	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/builtin/solidity"
	"github.com/vechain/vevote/thor"
)

var (
	slotGauges       = thor.NameToSlot("gauges")
	slotGaugeList    = thor.NameToSlot("gauge-list")
	slotWhitelist    = thor.NameToSlot("whitelist")
	slotPaused       = thor.NameToSlot("paused")
	slotAllocations  = thor.NameToSlot("allocations")
	slotGaugeWeights = thor.NameToSlot("gauge-weights")
	slotTotalWeights = thor.NameToSlot("total-weights")
	slotClaimable    = thor.NameToSlot("claimable")
	slotLeftover     = thor.NameToSlot("emission-leftover")
)

// Service routes lock voting power to gauges, one epoch ahead.
type Service struct {
	gauges       *solidity.Mapping[thor.Address, *Gauge]
	gaugeList    *solidity.Array[thor.Address]
	whitelist    *solidity.Mapping[thor.Address, bool]
	paused       *solidity.Raw[bool]
	allocations  *solidity.Mapping[solidity.Uint64Key, *Allocation]
	gaugeWeights *solidity.Mapping[gaugeEpochKey, *big.Int]
	totalWeights *solidity.Mapping[solidity.Uint64Key, *big.Int]
	claimable    *solidity.Mapping[thor.Address, *big.Int]
	leftover     *solidity.Uint256

	schedule  epoch.Schedule
	depositor Depositor
}

func New(sctx *solidity.Context, schedule epoch.Schedule, depositor Depositor) *Service {
	return &Service{
		gauges:       solidity.NewMapping[thor.Address, *Gauge](sctx, slotGauges),
		gaugeList:    solidity.NewArray[thor.Address](sctx, slotGaugeList),
		whitelist:    solidity.NewMapping[thor.Address, bool](sctx, slotWhitelist),
		paused:       solidity.NewRaw[bool](sctx, slotPaused),
		allocations:  solidity.NewMapping[solidity.Uint64Key, *Allocation](sctx, slotAllocations),
		gaugeWeights: solidity.NewMapping[gaugeEpochKey, *big.Int](sctx, slotGaugeWeights),
		totalWeights: solidity.NewMapping[solidity.Uint64Key, *big.Int](sctx, slotTotalWeights),
		claimable:    solidity.NewMapping[thor.Address, *big.Int](sctx, slotClaimable),
		leftover:     solidity.NewUint256(sctx, slotLeftover),
		schedule:     schedule,
		depositor:    depositor,
	}
}

//
// Gauges
//

// CreateGauge registers a new alive gauge and returns its address.
func (s *Service) CreateGauge(now uint64) (thor.Address, error) {
	n, err := s.gaugeList.Len()
	if err != nil {
		return thor.Address{}, err
	}
	addr := gaugeAddress(n)
	if _, err := s.gaugeList.Push(addr); err != nil {
		return thor.Address{}, errors.Wrap(err, "failed to push gauge")
	}
	if err := s.gauges.Set(addr, &Gauge{Alive: true, CreatedAt: now}); err != nil {
		return thor.Address{}, errors.Wrap(err, "failed to set gauge")
	}
	return addr, nil
}

// GetGauge returns the gauge, nil if unknown.
func (s *Service) GetGauge(addr thor.Address) (*Gauge, error) {
	return s.gauges.Get(addr)
}

// Gauges lists all gauges in creation order.
func (s *Service) Gauges() ([]thor.Address, error) {
	n, err := s.gaugeList.Len()
	if err != nil {
		return nil, err
	}
	list := make([]thor.Address, 0, n)
	for i := range n {
		addr, err := s.gaugeList.At(i)
		if err != nil {
			return nil, err
		}
		list = append(list, addr)
	}
	return list, nil
}

func (s *Service) IsAlive(addr thor.Address) (bool, error) {
	g, err := s.gauges.Get(addr)
	if err != nil {
		return false, err
	}
	return g != nil && g.Alive, nil
}

// Kill stops a gauge from receiving new votes and emissions. Existing deposits stay.
func (s *Service) Kill(addr thor.Address) error {
	g, err := s.gauges.Get(addr)
	if err != nil {
		return err
	}
	if g == nil || !g.Alive {
		return errors.WithMessagef(reverts.ErrGaugeNotAlive, "gauge %v", addr)
	}
	g.Alive = false
	return s.gauges.Set(addr, g)
}

func (s *Service) Revive(addr thor.Address) error {
	g, err := s.gauges.Get(addr)
	if err != nil {
		return err
	}
	if g == nil {
		return errors.WithMessagef(reverts.ErrGaugeNotAlive, "gauge %v", addr)
	}
	if g.Alive {
		return errors.WithMessagef(reverts.ErrGaugeAlive, "gauge %v", addr)
	}
	g.Alive = true
	return s.gauges.Set(addr, g)
}

//
// Governance flags
//

func (s *Service) Whitelist(token thor.Address, allowed bool) error {
	if !allowed {
		s.whitelist.Delete(token)
		return nil
	}
	return s.whitelist.Set(token, true)
}

func (s *Service) IsWhitelisted(token thor.Address) (bool, error) {
	return s.whitelist.Get(token)
}

func (s *Service) SetPaused(paused bool) error {
	return s.paused.Upsert(paused)
}

func (s *Service) Paused() (bool, error) {
	return s.paused.Get()
}

//
// Votes
//

// Allocation returns the current votes of a lock, nil if it has none.
func (s *Service) Allocation(id uint64) (*Allocation, error) {
	return s.allocations.Get(solidity.Uint64Key(id))
}

// HasVotes reports whether the lock holds an allocation that must be reset first.
func (s *Service) HasVotes(id uint64) (bool, error) {
	a, err := s.Allocation(id)
	return a != nil, err
}

// Vote replaces the allocation of a lock, splitting power across gauges by weight.
// The votes land in the next epoch. A lock votes at most once per epoch unless reset.
func (s *Service) Vote(id uint64, power *big.Int, gauges []thor.Address, weights []uint64, now uint64) error {
	if len(gauges) != len(weights) || len(gauges) == 0 {
		return errors.WithMessagef(reverts.ErrMismatchArrayLen, "%d gauges, %d weights", len(gauges), len(weights))
	}
	current, err := s.Allocation(id)
	if err != nil {
		return err
	}
	if current != nil && current.Epoch == s.schedule.Next(now) {
		return errors.WithMessagef(reverts.ErrAlreadyVoted, "lock %d", id)
	}
	if power.Sign() == 0 {
		return errors.WithMessagef(reverts.ErrZeroAmount, "lock %d has no voting power", id)
	}

	seen := make(map[thor.Address]struct{}, len(gauges))
	for i, g := range gauges {
		if weights[i] == 0 {
			return errors.WithMessagef(reverts.ErrZeroAmount, "zero weight for gauge %v", g)
		}
		if _, ok := seen[g]; ok {
			return errors.WithMessagef(reverts.ErrDuplicateGauge, "gauge %v", g)
		}
		seen[g] = struct{}{}
		alive, err := s.IsAlive(g)
		if err != nil {
			return err
		}
		if !alive {
			return errors.WithMessagef(reverts.ErrGaugeNotAlive, "gauge %v", g)
		}
	}

	if err := s.reset(id, current, now); err != nil {
		return err
	}
	return s.vote(id, power, gauges, weights, now)
}

func (s *Service) vote(id uint64, power *big.Int, gauges []thor.Address, weights []uint64, now uint64) error {
	totalWeight := new(big.Int)
	for _, w := range weights {
		totalWeight.Add(totalWeight, new(big.Int).SetUint64(w))
	}

	target := s.schedule.Next(now)
	alloc := &Allocation{Epoch: target, Total: new(big.Int)}
	for i, g := range gauges {
		amount, err := thor.MulDiv(power, new(big.Int).SetUint64(weights[i]), totalWeight)
		if err != nil {
			return err
		}
		if amount.Sign() == 0 {
			continue
		}
		if err := s.addWeight(g, target, amount); err != nil {
			return err
		}
		if err := s.depositor.Deposit(g, id, target, amount); err != nil {
			return err
		}
		alloc.Votes = append(alloc.Votes, Vote{Gauge: g, Weight: weights[i], Amount: amount})
		alloc.Total.Add(alloc.Total, amount)
	}
	if len(alloc.Votes) == 0 {
		return nil
	}
	return s.allocations.Set(solidity.Uint64Key(id), alloc)
}

// Reset clears the allocation of a lock. Deposits are only withdrawn from a bucket that
// is still upcoming, settled and running epochs keep them.
func (s *Service) Reset(id uint64, now uint64) error {
	current, err := s.Allocation(id)
	if err != nil {
		return err
	}
	return s.reset(id, current, now)
}

func (s *Service) reset(id uint64, alloc *Allocation, now uint64) error {
	if alloc == nil {
		return nil
	}
	if alloc.Epoch > now {
		for _, v := range alloc.Votes {
			if err := s.subWeight(v.Gauge, alloc.Epoch, v.Amount); err != nil {
				return err
			}
			if err := s.depositor.Withdraw(v.Gauge, id, alloc.Epoch, v.Amount); err != nil {
				return err
			}
		}
	}
	s.allocations.Delete(solidity.Uint64Key(id))
	return nil
}

// Poke re-applies the weights of the current allocation with the given power.
// Votes for gauges killed since are dropped.
func (s *Service) Poke(id uint64, power *big.Int, now uint64) error {
	current, err := s.Allocation(id)
	if err != nil || current == nil {
		return err
	}
	if err := s.reset(id, current, now); err != nil {
		return err
	}
	if power.Sign() == 0 {
		return nil
	}

	var (
		gauges  []thor.Address
		weights []uint64
	)
	for _, v := range current.Votes {
		alive, err := s.IsAlive(v.Gauge)
		if err != nil {
			return err
		}
		if alive {
			gauges = append(gauges, v.Gauge)
			weights = append(weights, v.Weight)
		}
	}
	if len(gauges) == 0 {
		return nil
	}
	return s.vote(id, power, gauges, weights, now)
}

func (s *Service) addWeight(g thor.Address, e uint64, amount *big.Int) error {
	key := gaugeEpochKey{g, e}
	w, err := s.GaugeWeightAt(g, e)
	if err != nil {
		return err
	}
	if err := s.gaugeWeights.Set(key, w.Add(w, amount)); err != nil {
		return err
	}
	total, err := s.TotalWeightAt(e)
	if err != nil {
		return err
	}
	return s.totalWeights.Set(solidity.Uint64Key(e), total.Add(total, amount))
}

func (s *Service) subWeight(g thor.Address, e uint64, amount *big.Int) error {
	w, err := s.GaugeWeightAt(g, e)
	if err != nil {
		return err
	}
	total, err := s.TotalWeightAt(e)
	if err != nil {
		return err
	}
	if w.Cmp(amount) < 0 || total.Cmp(amount) < 0 {
		return errors.New("gauge weight underflow")
	}
	if err := s.gaugeWeights.Set(gaugeEpochKey{g, e}, w.Sub(w, amount)); err != nil {
		return err
	}
	return s.totalWeights.Set(solidity.Uint64Key(e), total.Sub(total, amount))
}

// GaugeWeightAt returns the votes a gauge received for epoch e.
func (s *Service) GaugeWeightAt(g thor.Address, e uint64) (*big.Int, error) {
	w, err := s.gaugeWeights.Get(gaugeEpochKey{g, s.schedule.Start(e)})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gauge weight")
	}
	if w == nil {
		return new(big.Int), nil
	}
	return w, nil
}

// TotalWeightAt returns the votes all gauges received for epoch e.
func (s *Service) TotalWeightAt(e uint64) (*big.Int, error) {
	w, err := s.totalWeights.Get(solidity.Uint64Key(s.schedule.Start(e)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get total weight")
	}
	if w == nil {
		return new(big.Int), nil
	}
	return w, nil
}

//
// Emissions
//

// NotifyEmissions splits amount, plus what previous rounds left over, across alive gauges
// by their weight in the running epoch. It returns the share credited to each gauge.
func (s *Service) NotifyEmissions(amount *big.Int, now uint64) (map[thor.Address]*big.Int, error) {
	pool, err := s.leftover.Get()
	if err != nil {
		return nil, err
	}
	pool.Add(pool, amount)

	e := s.schedule.Start(now)
	total, err := s.TotalWeightAt(e)
	if err != nil {
		return nil, err
	}
	shares := make(map[thor.Address]*big.Int)
	if total.Sign() == 0 {
		s.leftover.Set(pool)
		return shares, nil
	}

	gauges, err := s.Gauges()
	if err != nil {
		return nil, err
	}
	distributed := new(big.Int)
	for _, g := range gauges {
		alive, err := s.IsAlive(g)
		if err != nil {
			return nil, err
		}
		if !alive {
			continue
		}
		w, err := s.GaugeWeightAt(g, e)
		if err != nil {
			return nil, err
		}
		if w.Sign() == 0 {
			continue
		}
		share, err := thor.MulDiv(pool, w, total)
		if err != nil {
			return nil, err
		}
		if share.Sign() == 0 {
			continue
		}
		c, err := s.Claimable(g)
		if err != nil {
			return nil, err
		}
		if err := s.claimable.Set(g, c.Add(c, share)); err != nil {
			return nil, err
		}
		shares[g] = share
		distributed.Add(distributed, share)
	}
	s.leftover.Set(pool.Sub(pool, distributed))
	return shares, nil
}

// Claimable returns the emissions credited to a gauge.
func (s *Service) Claimable(g thor.Address) (*big.Int, error) {
	c, err := s.claimable.Get(g)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return new(big.Int), nil
	}
	return c, nil
}

// Leftover returns emissions waiting for the next split.
func (s *Service) Leftover() (*big.Int, error) {
	return s.leftover.Get()
}
