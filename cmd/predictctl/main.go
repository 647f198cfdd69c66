// predictctl drives a running prediction service and scores model artifacts.
//
// Usage:
//
//	predictctl stress --url http://localhost:5000/predict --requests 1000 --concurrency 8
//	predictctl check --url http://localhost:5000/titanic/v0.0.1/predict
//	predictctl score --model models/titanic.model.json --data internal/model/testdata/train.csv
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"predict-api/internal/loadtest"
	"predict-api/internal/model"

	"github.com/urfave/cli/v2"
)

const defaultURL = "http://localhost:5000/predict"

func main() {
	app := &cli.App{
		Name:  "predictctl",
		Usage: "Load, smoke and accuracy checks for the prediction service",
		Commands: []*cli.Command{
			stressCommand(),
			checkCommand(),
			scoreCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func bodyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "body",
		Usage: "Path to a JSON request body (defaults to one test passenger)",
	}
}

func readBody(c *cli.Context) ([]byte, error) {
	path := c.String("body")
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

func stressCommand() *cli.Command {
	return &cli.Command{
		Name:  "stress",
		Usage: "Replay one request body and report latency",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: defaultURL, Usage: "Predict endpoint", EnvVars: []string{"PREDICT_URL"}},
			bodyFlag(),
			&cli.IntFlag{Name: "requests", Aliases: []string{"n"}, Value: 1000, Usage: "Total requests, 0 runs until interrupted"},
			&cli.IntFlag{Name: "concurrency", Aliases: []string{"c"}, Value: 1, Usage: "Concurrent workers"},
			&cli.DurationFlag{Name: "think", Value: 0, Usage: "Pause between requests per worker"},
			&cli.Float64Flag{Name: "rate", Usage: "Max requests per second, 0 is unlimited"},
		},
		Action: func(c *cli.Context) error {
			body, err := readBody(c)
			if err != nil {
				return err
			}
			summary, err := loadtest.Stress(c.Context, loadtest.StressOptions{
				URL:         c.String("url"),
				Body:        body,
				Requests:    c.Int("requests"),
				Concurrency: c.Int("concurrency"),
				Think:       c.Duration("think"),
				Rate:        c.Float64("rate"),
			})
			if err != nil {
				return err
			}
			fmt.Println(summary.String())
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Send one request and validate the response shape",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: defaultURL, Usage: "Predict endpoint", EnvVars: []string{"PREDICT_URL"}},
			bodyFlag(),
			&cli.IntSliceFlag{Name: "labels", Value: cli.NewIntSlice(0, 1), Usage: "Allowed labels"},
		},
		Action: func(c *cli.Context) error {
			body, err := readBody(c)
			if err != nil {
				return err
			}
			labels, err := loadtest.Check(c.Context, loadtest.CheckOptions{
				URL:    c.String("url"),
				Body:   body,
				Labels: c.IntSlice("labels"),
			})
			if err != nil {
				return err
			}
			fmt.Printf("ok %v\n", labels)
			return nil
		},
	}
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Score a model artifact on the tail of a labelled CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "model", Value: "models/*.model.json", Usage: "Artifact path or glob", EnvVars: []string{"MODEL"}},
			&cli.StringFlag{Name: "data", Required: true, Usage: "Labelled CSV"},
			&cli.IntFlag{Name: "tail", Value: 100, Usage: "Score the last N rows"},
			&cli.Float64Flag{Name: "threshold", Value: 0.85, Usage: "Minimum accuracy"},
		},
		Action: func(c *cli.Context) error {
			p, err := model.Load(c.String("model"))
			if err != nil {
				return err
			}
			steps := p.Steps()
			if len(steps) != 2 {
				return fmt.Errorf("expected a two step pipeline, got %d steps", len(steps))
			}
			if _, ok := steps[0].Estimator.(*model.ColumnTransformer); !ok {
				return fmt.Errorf("first step is %T, want a column transformer", steps[0].Estimator)
			}

			data, err := model.ReadCSVFile(c.String("data"))
			if err != nil {
				return err
			}
			features, labels, err := data.SplitLabels(p.LabelColumn())
			if err != nil {
				return err
			}
			if c.Int("tail") <= 0 {
				return fmt.Errorf("tail must be positive")
			}
			n := min(c.Int("tail"), features.Len())
			acc, err := p.Score(c.Context, features.Tail(n), labels[len(labels)-n:])
			if err != nil {
				return err
			}
			fmt.Printf("accuracy=%.4f rows=%d model=%s\n", acc, n, p.Info().Name)
			if acc < c.Float64("threshold") {
				return cli.Exit(fmt.Sprintf("accuracy %.4f below threshold %.2f", acc, c.Float64("threshold")), 1)
			}
			return nil
		},
	}
}
