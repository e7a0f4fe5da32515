package trainer

import (
	"fmt"
	"time"

	"github.com/sngrad-ml/sngrad/internal/data"
	"github.com/sngrad-ml/sngrad/internal/metrics"
	"github.com/sngrad-ml/sngrad/internal/nn"
	"github.com/sngrad-ml/sngrad/internal/optim"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Config controls a training run.
type Config struct {
	// Epochs is the number of passes over the training batches.
	Epochs int

	// StatsEvery sets the evaluation cadence in epochs. The final
	// epoch is always evaluated regardless. Zero means every epoch.
	StatsEvery int

	// PickLearningRate, when set, runs before the first epoch and
	// overrides the optimizer's learning rate with its result. The
	// learning rate search hooks in here.
	PickLearningRate func() (float64, error)
}

// Run trains the model and returns the final parameter tree.
//
// The loop itself owns no learning logic: it hands batches to the
// optimizer, keeps epoch timing, and reports statistics at the
// configured cadence to the sink and the run log. A nil sink or log
// simply disables that output.
func Run[B tensor.Backend](
	model *nn.MLP[B],
	opt optim.Optimizer[B],
	params *nn.ParamTree[B],
	trainBatches, testBatches []*data.Batch[B],
	cfg Config,
	sink metrics.Sink,
	runLog *RunLog,
) (*nn.ParamTree[B], error) {
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("%w: epochs %d must be positive", optim.ErrConfig, cfg.Epochs)
	}
	if cfg.StatsEvery < 0 {
		return nil, fmt.Errorf("%w: stats cadence %d must not be negative", optim.ErrConfig, cfg.StatsEvery)
	}
	if len(trainBatches) == 0 {
		return nil, fmt.Errorf("%w: no training batches", optim.ErrConfig)
	}
	statsEvery := cfg.StatsEvery
	if statsEvery == 0 {
		statsEvery = 1
	}
	if sink == nil {
		sink = metrics.Nop{}
	}

	if cfg.PickLearningRate != nil {
		lr, err := cfg.PickLearningRate()
		if err != nil {
			return nil, err
		}
		if err := opt.SetLearningRate(lr); err != nil {
			return nil, err
		}
	}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		start := time.Now()
		var err error
		for _, batch := range trainBatches {
			params, err = opt.Step(params, batch)
			if err != nil {
				return nil, fmt.Errorf("epoch %d: %w", epoch, err)
			}
		}
		epochTime := time.Since(start).Seconds()

		if epoch%statsEvery != 0 && epoch != cfg.Epochs {
			continue
		}

		trainLoss, trainAcc, err := Evaluate(model, params, trainBatches)
		if err != nil {
			return nil, err
		}
		testLoss, testAcc := trainLoss, trainAcc
		if len(testBatches) > 0 {
			testLoss, testAcc, err = Evaluate(model, params, testBatches)
			if err != nil {
				return nil, err
			}
		}

		sink.Scalar("epoch_time", epochTime, epoch)
		sink.Scalar("train_loss", trainLoss, epoch)
		sink.Scalar("test_loss", testLoss, epoch)
		sink.Scalar("train_accuracy", trainAcc, epoch)
		sink.Scalar("test_accuracy", testAcc, epoch)

		if runLog != nil {
			if err := runLog.Append(epoch, epochTime, trainLoss, testLoss, trainAcc, testAcc); err != nil {
				return nil, err
			}
		}
	}

	return params, nil
}
