// Package lrsearch selects a learning rate by training short trials
// over a log-uniform candidate grid and comparing validation losses.
package lrsearch

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/sngrad-ml/sngrad/internal/autodiff"
	"github.com/sngrad-ml/sngrad/internal/data"
	"github.com/sngrad-ml/sngrad/internal/nn"
	"github.com/sngrad-ml/sngrad/internal/optim"
	"github.com/sngrad-ml/sngrad/internal/trainer"
)

// ErrNoViableRate reports that every candidate produced a non-finite
// validation loss.
var ErrNoViableRate = errors.New("no viable learning rate")

// Config controls the search.
type Config struct {
	LRMin         float64 // Lower bracket bound, must be positive
	LRMax         float64 // Upper bracket bound, must exceed LRMin
	NumCandidates int     // Candidate count, must be at least 1
	TrialEpochs   int     // Training epochs per trial, must be at least 1
	Seed          int64   // Every trial re-initializes parameters from this seed
}

func (c Config) validate() error {
	if c.LRMin <= 0 {
		return fmt.Errorf("%w: lr min %v must be positive", optim.ErrConfig, c.LRMin)
	}
	if c.LRMax <= c.LRMin {
		return fmt.Errorf("%w: lr max %v must exceed lr min %v", optim.ErrConfig, c.LRMax, c.LRMin)
	}
	if c.NumCandidates < 1 {
		return fmt.Errorf("%w: num candidates %d must be at least 1", optim.ErrConfig, c.NumCandidates)
	}
	if c.TrialEpochs < 1 {
		return fmt.Errorf("%w: trial epochs %d must be at least 1", optim.ErrConfig, c.TrialEpochs)
	}
	return nil
}

// Candidates returns n learning rates spaced log-uniformly over
// [lrMin, lrMax], inclusive of both endpoints. With n == 1 only lrMin
// is returned.
func Candidates(lrMin, lrMax float64, n int) ([]float64, error) {
	if lrMin <= 0 {
		return nil, fmt.Errorf("%w: lr min %v must be positive", optim.ErrConfig, lrMin)
	}
	if lrMax <= lrMin {
		return nil, fmt.Errorf("%w: lr max %v must exceed lr min %v", optim.ErrConfig, lrMax, lrMin)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: candidate count %d must be at least 1", optim.ErrConfig, n)
	}
	if n == 1 {
		return []float64{lrMin}, nil
	}

	logMin := math.Log(lrMin)
	logMax := math.Log(lrMax)
	rates := make([]float64, n)
	for i := range rates {
		frac := float64(i) / float64(n-1)
		rates[i] = math.Exp(logMin + frac*(logMax-logMin))
	}
	// Pin the endpoints against rounding drift
	rates[0] = lrMin
	rates[n-1] = lrMax
	return rates, nil
}

// Trial records the outcome of one candidate.
type Trial struct {
	LR      float64
	ValLoss float64 // NaN when the trial diverged
	Viable  bool
}

// Result is the outcome of a search.
type Result struct {
	LR      float64 // Selected learning rate
	ValLoss float64 // Its validation loss
	Trials  []Trial // All trials in candidate order
}

// Search trains one short trial per candidate rate and picks the rate
// with the strictly lowest finite validation loss.
//
// Every trial starts from identical parameters built with the
// configured seed, so candidates differ only in their learning rate.
// A trial that diverges (numeric instability during training or a
// non-finite validation loss) is recorded as non-viable and skipped.
// Candidates are visited in ascending order and selection uses a
// strict comparison, so ties resolve to the smaller rate. When no
// trial is viable the search returns ErrNoViableRate.
func Search[B autodiff.BackwardCapable](
	model *nn.MLP[B],
	newOptimizer func(lr float64) (optim.Optimizer[B], error),
	trainBatches, valBatches []*data.Batch[B],
	cfg Config,
) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(trainBatches) == 0 || len(valBatches) == 0 {
		return nil, fmt.Errorf("%w: search needs training and validation batches", optim.ErrConfig)
	}

	rates, err := Candidates(cfg.LRMin, cfg.LRMax, cfg.NumCandidates)
	if err != nil {
		return nil, err
	}

	result := &Result{ValLoss: math.Inf(1)}
	found := false
	for _, lr := range rates {
		trial := runTrial(model, newOptimizer, trainBatches, valBatches, cfg, lr)
		result.Trials = append(result.Trials, trial)
		if trial.Viable && trial.ValLoss < result.ValLoss {
			result.LR = trial.LR
			result.ValLoss = trial.ValLoss
			found = true
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: all %d candidates in [%v, %v] diverged",
			ErrNoViableRate, len(rates), cfg.LRMin, cfg.LRMax)
	}
	return result, nil
}

func runTrial[B autodiff.BackwardCapable](
	model *nn.MLP[B],
	newOptimizer func(lr float64) (optim.Optimizer[B], error),
	trainBatches, valBatches []*data.Batch[B],
	cfg Config,
	lr float64,
) Trial {
	failed := Trial{LR: lr, ValLoss: math.NaN(), Viable: false}

	opt, err := newOptimizer(lr)
	if err != nil {
		log.Printf("lr search: candidate %.6g: %v", lr, err)
		return failed
	}

	params := model.Init(cfg.Seed)
	params, err = trainer.Run(model, opt, params, trainBatches, nil,
		trainer.Config{Epochs: cfg.TrialEpochs, StatsEvery: cfg.TrialEpochs}, nil, nil)
	if err != nil {
		if !errors.Is(err, optim.ErrNumeric) {
			log.Printf("lr search: candidate %.6g: %v", lr, err)
		}
		return failed
	}

	valLoss, _, err := trainer.Evaluate(model, params, valBatches)
	if err != nil || math.IsNaN(valLoss) || math.IsInf(valLoss, 0) {
		return failed
	}
	return Trial{LR: lr, ValLoss: valLoss, Viable: true}
}
