// Package main runs signal-to-noise gradient training experiments.
//
// With the default configuration it trains the same network twice, once
// with plain SGD and once with SNG, so the two runs can be compared
// from their training logs. Each run writes <optimizer>_training.txt
// with one line per evaluated epoch.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/sngrad-ml/sngrad/config"
	"github.com/sngrad-ml/sngrad/internal/autodiff"
	"github.com/sngrad-ml/sngrad/internal/backend/cpu"
	"github.com/sngrad-ml/sngrad/internal/backend/webgpu"
	"github.com/sngrad-ml/sngrad/internal/data"
	"github.com/sngrad-ml/sngrad/internal/lrsearch"
	"github.com/sngrad-ml/sngrad/internal/metrics"
	"github.com/sngrad-ml/sngrad/internal/nn"
	"github.com/sngrad-ml/sngrad/internal/optim"
	"github.com/sngrad-ml/sngrad/internal/trainer"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML experiment config")
	optimizer := flag.String("optimizer", "", "override the configured optimizer: sgd, sng, or both")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
	}
	if *optimizer != "" {
		cfg.Optimizer = *optimizer
		if err := cfg.Validate(); err != nil {
			log.Fatal(err)
		}
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config) error {
	switch cfg.Device {
	case "webgpu":
		gpu, err := webgpu.New()
		if err != nil {
			return fmt.Errorf("device webgpu: %w", err)
		}
		defer gpu.Release()
		return runOn(cfg, autodiff.New(gpu))
	default:
		return runOn(cfg, autodiff.New(cpu.New()))
	}
}

func runOn[B autodiff.BackwardCapable](cfg config.Config, backend B) error {
	trainSet, testSet, err := loadDataset(cfg)
	if err != nil {
		return err
	}

	optimizers := []string{cfg.Optimizer}
	if cfg.Optimizer == "both" {
		optimizers = []string{"sgd", "sng"}
	}

	for _, name := range optimizers {
		fmt.Printf("Experiment %s\n", name)
		if err := runExperiment(cfg, name, backend, trainSet, testSet); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func runExperiment[B autodiff.BackwardCapable](
	cfg config.Config,
	optimizerName string,
	backend B,
	trainSet, testSet *data.Dataset,
) error {
	model, err := nn.NewMLP(cfg.LayerSizes, backend)
	if err != nil {
		return err
	}

	trainBatches, err := data.Batches(trainSet, cfg.BatchSize, backend)
	if err != nil {
		return err
	}
	testBatches, err := data.Batches(testSet, cfg.BatchSize, backend)
	if err != nil {
		return err
	}

	newOptimizer := func(lr float64) (optim.Optimizer[B], error) {
		if optimizerName == "sgd" {
			return optim.NewSGD(model, backend, optim.SGDConfig{LR: lr})
		}
		return optim.NewSNG(model, backend, optim.SNGConfig{
			LR:        lr,
			NumShards: cfg.NumShards,
			RMax:      cfg.RMax,
			Epsilon:   cfg.Epsilon,
		})
	}

	loopCfg := trainer.Config{
		Epochs:     cfg.NumEpochs,
		StatsEvery: cfg.StatsEveryEpochs,
	}
	stepSize := cfg.StepSize
	if stepSize == 0 {
		// Placeholder rate; the search hook below overrides it before
		// the first epoch.
		stepSize = cfg.LRSearch.LRMin
		loopCfg.PickLearningRate = func() (float64, error) {
			searchTrain, searchVal, err := trainSet.Split(0.9)
			if err != nil {
				return 0, err
			}
			sTrain, err := data.Batches(searchTrain, cfg.BatchSize, backend)
			if err != nil {
				return 0, err
			}
			sVal, err := data.Batches(searchVal, cfg.BatchSize, backend)
			if err != nil {
				return 0, err
			}
			result, err := lrsearch.Search(model, newOptimizer, sTrain, sVal, lrsearch.Config{
				LRMin:         cfg.LRSearch.LRMin,
				LRMax:         cfg.LRSearch.LRMax,
				NumCandidates: cfg.LRSearch.NumCandidates,
				TrialEpochs:   cfg.LRSearch.TrialEpochs,
				Seed:          cfg.Seed,
			})
			if err != nil {
				return 0, err
			}
			fmt.Printf("best_lr = %v\n", result.LR)
			return result.LR, nil
		}
	}

	opt, err := newOptimizer(stepSize)
	if err != nil {
		return err
	}

	runLog, err := trainer.OpenRunLog(fmt.Sprintf("%s_training.txt", optimizerName))
	if err != nil {
		return err
	}
	defer runLog.Close()

	params := model.Init(cfg.Seed)
	_, err = trainer.Run(model, opt, params, trainBatches, testBatches, loopCfg, metrics.Log{}, runLog)
	return err
}

func loadDataset(cfg config.Config) (train, test *data.Dataset, err error) {
	switch cfg.Dataset {
	case "mnist":
		return data.LoadMNIST(cfg.DataDir)
	case "csv":
		ds, err := data.LoadCSV(cfg.DataDir, cfg.NumClasses)
		if err != nil {
			return nil, nil, err
		}
		return ds.Split(0.9)
	case "synthetic":
		in := cfg.LayerSizes[0]
		out := cfg.LayerSizes[len(cfg.LayerSizes)-1]
		ds := data.Synthetic(10*cfg.BatchSize, in, out, cfg.Seed)
		return ds.Split(0.9)
	default:
		return nil, nil, fmt.Errorf("unknown dataset %q", cfg.Dataset)
	}
}
