// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package script applies a YAML list of timestamped operations to a ledger.
package script

import (
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vechain/vevote/builtin/escrow"
	"github.com/vechain/vevote/builtin/escrow/bribe"
	"github.com/vechain/vevote/thor"
)

// Step is one operation. Only the fields used by Op are read.
// Amounts are whole tokens in decimal notation, such as "12.5".
type Step struct {
	At       uint64         `yaml:"at"`
	Op       string         `yaml:"op"`
	Caller   thor.Address   `yaml:"caller"`
	To       thor.Address   `yaml:"to"`
	Token    thor.Address   `yaml:"token"`
	Gauge    thor.Address   `yaml:"gauge"`
	Gauges   []thor.Address `yaml:"gauges"`
	Weights  []uint64       `yaml:"weights"`
	Tokens   []thor.Address `yaml:"tokens"`
	Lock     uint64         `yaml:"lock"`
	Target   uint64         `yaml:"target"`
	Amount   string         `yaml:"amount"`
	Duration uint64         `yaml:"duration"`
	Kind     string         `yaml:"kind"`
	Flag     bool           `yaml:"flag"`
	// Revert marks a step expected to fail with an error containing it.
	Revert string `yaml:"revert"`
}

// Minter credits tokens to holders ahead of the operations using them.
type Minter interface {
	Mint(token, holder thor.Address, amount *big.Int) error
}

// MinterFunc adapts a function to Minter.
type MinterFunc func(token, holder thor.Address, amount *big.Int) error

func (f MinterFunc) Mint(token, holder thor.Address, amount *big.Int) error {
	return f(token, holder, amount)
}

// Result is the outcome of one step. Lock and Gauge are set by operations creating them.
type Result struct {
	Index   int
	Step    *Step
	Time    uint64
	Lock    uint64
	Gauge   thor.Address
	Amounts []*big.Int
	Err     error
}

func Load(path string) ([]*Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open script")
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) ([]*Step, error) {
	var steps []*Step
	if err := yaml.NewDecoder(r).Decode(&steps); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "parse script")
	}
	for i, s := range steps {
		if s == nil {
			return nil, errors.Errorf("step %d: empty", i)
		}
		if _, ok := ops[s.Op]; !ok {
			return nil, errors.Errorf("step %d: unknown op %q", i, s.Op)
		}
	}
	return steps, nil
}

// ParseAmount converts whole tokens to base units.
func ParseAmount(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "amount %q", s)
	}
	d = d.Shift(18)
	if !d.IsInteger() {
		return nil, errors.Errorf("amount %q has too many decimals", s)
	}
	return d.BigInt(), nil
}

type Runner struct {
	escrow *escrow.Escrow
	minter Minter
	now    uint64
}

// NewRunner creates a runner whose steps without a time run at now.
func NewRunner(esc *escrow.Escrow, minter Minter, now uint64) *Runner {
	return &Runner{escrow: esc, minter: minter, now: now}
}

// Run applies steps in order and stops at the first unexpected outcome, whose result is
// returned last along with the error.
func (r *Runner) Run(steps []*Step) ([]*Result, error) {
	results := make([]*Result, 0, len(steps))
	for i, s := range steps {
		if s.At != 0 {
			r.now = s.At
		}
		fn, ok := ops[s.Op]
		if !ok {
			return results, errors.Errorf("step %d: unknown op %q", i, s.Op)
		}
		res := &Result{Index: i, Step: s, Time: r.now}
		res.Err = fn(r, s, escrow.Call{Caller: s.Caller, Time: r.now}, res)
		results = append(results, res)

		switch {
		case s.Revert == "" && res.Err != nil:
			return results, errors.WithMessagef(res.Err, "step %d %s", i, s.Op)
		case s.Revert != "" && res.Err == nil:
			return results, errors.Errorf("step %d %s: expected revert %q", i, s.Op, s.Revert)
		case s.Revert != "" && !strings.Contains(res.Err.Error(), s.Revert):
			return results, errors.Errorf("step %d %s: expected revert %q, got %v", i, s.Op, s.Revert, res.Err)
		}
	}
	return results, nil
}

type op func(r *Runner, s *Step, call escrow.Call, res *Result) error

func withAmount(fn func(r *Runner, s *Step, call escrow.Call, res *Result, amount *big.Int) error) op {
	return func(r *Runner, s *Step, call escrow.Call, res *Result) error {
		amount, err := ParseAmount(s.Amount)
		if err != nil {
			return err
		}
		return fn(r, s, call, res, amount)
	}
}

func withKind(fn func(r *Runner, s *Step, call escrow.Call, res *Result, kind bribe.Kind) error) op {
	return func(r *Runner, s *Step, call escrow.Call, res *Result) error {
		kind := bribe.External
		if s.Kind != "" {
			var err error
			if kind, err = bribe.ParseKind(s.Kind); err != nil {
				return err
			}
		}
		return fn(r, s, call, res, kind)
	}
}

var ops map[string]op

func init() {
	ops = map[string]op{
		"fund": withAmount(func(r *Runner, s *Step, _ escrow.Call, _ *Result, amount *big.Int) error {
			return r.minter.Mint(s.Token, s.To, amount)
		}),
		"checkpoint": func(r *Runner, _ *Step, call escrow.Call, _ *Result) error {
			return r.escrow.Checkpoint(call)
		},
		"createLock": withAmount(func(r *Runner, s *Step, call escrow.Call, res *Result, amount *big.Int) (err error) {
			res.Lock, err = r.escrow.CreateLock(call, amount, s.Duration)
			return err
		}),
		"createLockFor": withAmount(func(r *Runner, s *Step, call escrow.Call, res *Result, amount *big.Int) (err error) {
			res.Lock, err = r.escrow.CreateLockFor(call, s.To, amount, s.Duration)
			return err
		}),
		"createLockWithoutBoost": withAmount(func(r *Runner, s *Step, call escrow.Call, res *Result, amount *big.Int) (err error) {
			res.Lock, err = r.escrow.CreateLockWithoutBoost(call, amount, s.Duration)
			return err
		}),
		"increaseAmount": withAmount(func(r *Runner, s *Step, call escrow.Call, _ *Result, amount *big.Int) error {
			return r.escrow.IncreaseAmount(call, s.Lock, amount)
		}),
		"depositFor": withAmount(func(r *Runner, s *Step, call escrow.Call, _ *Result, amount *big.Int) error {
			return r.escrow.DepositFor(call, s.Lock, amount)
		}),
		"increaseUnlockTime": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.IncreaseUnlockTime(call, s.Lock, s.Duration)
		},
		"merge": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.Merge(call, s.Lock, s.Target)
		},
		"lockPermanent": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.LockPermanent(call, s.Lock)
		},
		"unlockPermanent": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.UnlockPermanent(call, s.Lock)
		},
		"withdraw": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.Withdraw(call, s.Lock)
		},
		"burnToBribes": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.BurnToBribes(call, s.Lock)
		},
		"approve": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.Approve(call, s.Lock, s.To)
		},
		"transfer": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.Transfer(call, s.Lock, s.To)
		},
		"createGauge": func(r *Runner, _ *Step, call escrow.Call, res *Result) (err error) {
			res.Gauge, err = r.escrow.CreateGauge(call)
			return err
		},
		"killGauge": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.KillGauge(call, s.Gauge)
		},
		"reviveGauge": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.ReviveGauge(call, s.Gauge)
		},
		"whitelistToken": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.WhitelistToken(call, s.Token, s.Flag)
		},
		"setVotingPaused": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.SetVotingPaused(call, s.Flag)
		},
		"vote": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.Vote(call, s.Lock, s.Gauges, s.Weights)
		},
		"reset": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.Reset(call, s.Lock)
		},
		"poke": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.Poke(call, s.Lock)
		},
		"notifyEmissions": withAmount(func(r *Runner, _ *Step, call escrow.Call, _ *Result, amount *big.Int) error {
			return r.escrow.NotifyEmissions(call, amount)
		}),
		"notifyReward": withKind(func(r *Runner, s *Step, call escrow.Call, res *Result, kind bribe.Kind) error {
			return withAmount(func(r *Runner, s *Step, call escrow.Call, _ *Result, amount *big.Int) error {
				return r.escrow.NotifyReward(call, s.Gauge, kind, s.Token, amount)
			})(r, s, call, res)
		}),
		"claim": withKind(func(r *Runner, s *Step, call escrow.Call, res *Result, kind bribe.Kind) (err error) {
			res.Amounts, err = r.escrow.Claim(call, s.Gauge, kind, s.Lock, s.Tokens)
			return err
		}),
		"claimBribes": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.ClaimBribes(call, s.Lock, s.Gauges, s.Tokens)
		},
		"createManagedLock": func(r *Runner, s *Step, call escrow.Call, res *Result) (err error) {
			res.Lock, err = r.escrow.CreateManagedLock(call, s.To)
			return err
		},
		"attach": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.AttachToManagedNFT(call, s.Lock, s.Target)
		},
		"detach": func(r *Runner, s *Step, call escrow.Call, _ *Result) error {
			return r.escrow.DettachFromManagedNFT(call, s.Lock)
		},
	}
}
