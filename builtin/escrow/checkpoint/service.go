// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package checkpoint

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/builtin/solidity"
	"github.com/vechain/vevote/thor"
)

var (
	slotUserPoints      = thor.NameToSlot("user-points")
	slotGlobalPoints    = thor.NameToSlot("global-points")
	slotPermanentPoints = thor.NameToSlot("permanent-points")
	slotSlopeChanges    = thor.NameToSlot("slope-changes")
	slotBiasChanges     = thor.NameToSlot("bias-changes")
	slotPermanentTotal  = thor.NameToSlot("permanent-total")
)

// Service keeps the append-only voting power histories and the schedule of slope changes.
type Service struct {
	userPoints      *solidity.ArrayMapping[solidity.Uint64Key, Point]
	globalPoints    *solidity.Array[Point]
	permanentPoints *solidity.Array[PermanentPoint]
	slopeChanges    *solidity.Mapping[solidity.Uint64Key, *big.Int]
	biasChanges     *solidity.Mapping[solidity.Uint64Key, *big.Int]
	permanentTotal  *solidity.Uint256

	epochWidth uint64
}

func New(sctx *solidity.Context, epochWidth uint64) *Service {
	return &Service{
		userPoints:      solidity.NewArrayMapping[solidity.Uint64Key, Point](sctx, slotUserPoints),
		globalPoints:    solidity.NewArray[Point](sctx, slotGlobalPoints),
		permanentPoints: solidity.NewArray[PermanentPoint](sctx, slotPermanentPoints),
		slopeChanges:    solidity.NewMapping[solidity.Uint64Key, *big.Int](sctx, slotSlopeChanges),
		biasChanges:     solidity.NewMapping[solidity.Uint64Key, *big.Int](sctx, slotBiasChanges),
		permanentTotal:  solidity.NewUint256(sctx, slotPermanentTotal),
		epochWidth:      epochWidth,
	}
}

// userPoint derives the point of a locked balance set at now: the whole amount,
// decaying to zero at End.
func (s *Service) userPoint(l LockedBalance, now uint64) Point {
	p := newPoint(now)
	if l.Amount == nil || l.Amount.Sign() == 0 {
		return p
	}
	if l.Permanent {
		p.Permanent.Set(l.Amount)
		return p
	}
	if l.End > now {
		p.Bias.Set(l.Amount)
		p.Slope.Div(l.Amount, new(big.Int).SetUint64(l.End-now))
		p.End = l.End
	}
	return p
}

// carried returns what lock id contributes at now while holding prev.
// A running decaying lock contributes its last point decayed to now.
func (s *Service) carried(id uint64, prev LockedBalance, now uint64) (Point, error) {
	if id == 0 || prev.Permanent || prev.End <= now {
		return s.userPoint(prev, now), nil
	}
	last, ok, err := s.LastUserPoint(id)
	if err != nil {
		return Point{}, errors.Wrap(err, "failed to get last user point")
	}
	if !ok || last.End != prev.End {
		return Point{}, errors.Errorf("lock %d has no point ending at %d", id, prev.End)
	}
	p := last.Copy()
	p.Bias = last.BalanceAt(now)
	p.Timestamp = now
	return p, nil
}

// SlopeChange returns the magnitude of slope that ends at ts.
func (s *Service) SlopeChange(ts uint64) (*big.Int, error) {
	v, err := s.slopeChanges.Get(solidity.Uint64Key(ts))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get slope change")
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

// BiasChange returns the rounding remainder of bias that drops at ts.
func (s *Service) BiasChange(ts uint64) (*big.Int, error) {
	v, err := s.biasChanges.Get(solidity.Uint64Key(ts))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bias change")
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

// schedule adds the end of point p to the changes due at p.End, or takes it off with cancel.
func (s *Service) schedule(p Point, cancel bool) error {
	key := solidity.Uint64Key(p.End)
	dSlope, err := s.SlopeChange(p.End)
	if err != nil {
		return err
	}
	dBias, err := s.BiasChange(p.End)
	if err != nil {
		return err
	}
	if cancel {
		subClamp(dSlope, p.Slope)
		subClamp(dBias, p.remainder())
	} else {
		dSlope.Add(dSlope, p.Slope)
		dBias.Add(dBias, p.remainder())
	}
	if err := s.slopeChanges.Set(key, dSlope); err != nil {
		return errors.Wrap(err, "failed to set slope change")
	}
	if err := s.biasChanges.Set(key, dBias); err != nil {
		return errors.Wrap(err, "failed to set bias change")
	}
	return nil
}

// Checkpoint records the transition of lock id from prev to next at now.
// An id of zero only advances the global history.
func (s *Service) Checkpoint(id uint64, prev, next LockedBalance, now uint64) error {
	uOld, err := s.carried(id, prev, now)
	if err != nil {
		return err
	}
	uNew := s.userPoint(next, now)

	last, err := s.advance(now)
	if err != nil {
		return err
	}
	if id != 0 {
		last.Slope.Add(last.Slope, uNew.Slope)
		subClamp(last.Slope, uOld.Slope)
		last.Bias.Add(last.Bias, uNew.Bias)
		subClamp(last.Bias, uOld.Bias)
	}
	if _, err := s.globalPoints.Push(last); err != nil {
		return errors.Wrap(err, "failed to push global point")
	}

	if uOld.End > now {
		if err := s.schedule(uOld, true); err != nil {
			return err
		}
	}
	if uNew.End > now {
		if err := s.schedule(uNew, false); err != nil {
			return err
		}
	}

	if delta := new(big.Int).Sub(uNew.Permanent, uOld.Permanent); delta.Sign() != 0 {
		total, err := s.permanentTotal.Get()
		if err != nil {
			return err
		}
		total.Add(total, delta)
		if total.Sign() < 0 {
			return errors.New("permanent total underflow")
		}
		s.permanentTotal.Set(total)
		if _, err := s.permanentPoints.Push(PermanentPoint{Timestamp: now, Amount: total}); err != nil {
			return errors.Wrap(err, "failed to push permanent point")
		}
	}

	if id == 0 {
		return nil
	}
	if _, err := s.userPoints.Of(solidity.Uint64Key(id)).Push(uNew); err != nil {
		return errors.Wrap(err, "failed to push user point")
	}
	return nil
}

// dueAt returns the slope and bias changes scheduled at ts.
func (s *Service) dueAt(ts uint64) (*big.Int, *big.Int, error) {
	dSlope, err := s.SlopeChange(ts)
	if err != nil {
		return nil, nil, err
	}
	dBias, err := s.BiasChange(ts)
	if err != nil {
		return nil, nil, err
	}
	return dSlope, dBias, nil
}

// advance walks the global history from its last point to now, epoch by epoch,
// recording a point at every crossed boundary. It returns the running point at now.
func (s *Service) advance(now uint64) (Point, error) {
	last, ok, err := s.globalPoints.Last()
	if err != nil {
		return Point{}, errors.Wrap(err, "failed to get last global point")
	}
	if !ok {
		return newPoint(now), nil
	}
	if now < last.Timestamp {
		return Point{}, errors.WithMessagef(reverts.ErrInvalidTimestamp, "%d before last checkpoint %d", now, last.Timestamp)
	}

	p := newPoint(now)
	p.Bias.Set(last.Bias)
	p.Slope.Set(last.Slope)
	lastTs := last.Timestamp
	ti := thor.EpochStart(lastTs, s.epochWidth)
	for {
		ti += s.epochWidth
		dSlope, dBias := new(big.Int), new(big.Int)
		if ti > now {
			ti = now
		} else if dSlope, dBias, err = s.dueAt(ti); err != nil {
			return Point{}, err
		}
		subClamp(p.Bias, new(big.Int).Mul(p.Slope, new(big.Int).SetUint64(ti-lastTs)))
		subClamp(p.Bias, dBias)
		subClamp(p.Slope, dSlope)
		lastTs = ti
		if ti == now {
			break
		}
		boundary := p.Copy()
		boundary.Timestamp = ti
		if _, err := s.globalPoints.Push(boundary); err != nil {
			return Point{}, errors.Wrap(err, "failed to push global point")
		}
	}
	return p, nil
}

// LastUserPoint returns the latest point of a lock.
func (s *Service) LastUserPoint(id uint64) (Point, bool, error) {
	return s.userPoints.Of(solidity.Uint64Key(id)).Last()
}

// UserPoints returns the number of points recorded for a lock.
func (s *Service) UserPoints(id uint64) (uint64, error) {
	return s.userPoints.Of(solidity.Uint64Key(id)).Len()
}

// UserPointAt returns the idx-th point of a lock.
func (s *Service) UserPointAt(id uint64, idx uint64) (Point, error) {
	return s.userPoints.Of(solidity.Uint64Key(id)).At(idx)
}

// GlobalPoints returns the number of global points.
func (s *Service) GlobalPoints() (uint64, error) {
	return s.globalPoints.Len()
}

// BalanceOfAt returns the voting power of a lock at t, zero before its first point.
func (s *Service) BalanceOfAt(id uint64, t uint64) (*big.Int, error) {
	_, p, ok, err := s.userPoints.Of(solidity.Uint64Key(id)).Search(func(p Point) bool {
		return p.Timestamp <= t
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search user points")
	}
	if !ok {
		return new(big.Int), nil
	}
	return p.BalanceAt(t), nil
}

// DecayingSupplyAt returns the total voting power of decaying locks at t.
func (s *Service) DecayingSupplyAt(t uint64) (*big.Int, error) {
	_, p, ok, err := s.globalPoints.Search(func(p Point) bool {
		return p.Timestamp <= t
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search global points")
	}
	if !ok {
		return new(big.Int), nil
	}
	return s.supplyAt(p, t)
}

// supplyAt walks a global point forward to t applying scheduled changes.
func (s *Service) supplyAt(p Point, t uint64) (*big.Int, error) {
	bias := new(big.Int).Set(p.Bias)
	slope := new(big.Int).Set(p.Slope)
	lastTs := p.Timestamp
	ti := thor.EpochStart(lastTs, s.epochWidth)
	for {
		ti += s.epochWidth
		dSlope, dBias := new(big.Int), new(big.Int)
		if ti > t {
			ti = t
		} else {
			var err error
			if dSlope, dBias, err = s.dueAt(ti); err != nil {
				return nil, err
			}
		}
		subClamp(bias, new(big.Int).Mul(slope, new(big.Int).SetUint64(ti-lastTs)))
		subClamp(bias, dBias)
		if ti == t {
			break
		}
		subClamp(slope, dSlope)
		lastTs = ti
	}
	return bias, nil
}

// PermanentSupplyAt returns the total permanently locked amount at t.
func (s *Service) PermanentSupplyAt(t uint64) (*big.Int, error) {
	_, p, ok, err := s.permanentPoints.Search(func(p PermanentPoint) bool {
		return p.Timestamp <= t
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search permanent points")
	}
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(p.Amount), nil
}

// TotalSupplyAt returns decaying plus permanent voting power at t.
func (s *Service) TotalSupplyAt(t uint64) (*big.Int, error) {
	decaying, err := s.DecayingSupplyAt(t)
	if err != nil {
		return nil, err
	}
	permanent, err := s.PermanentSupplyAt(t)
	if err != nil {
		return nil, err
	}
	return decaying.Add(decaying, permanent), nil
}
