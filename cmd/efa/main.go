package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/cenkalti/backoff/v4"
	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/efa-transit/internal/config"
	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/infrastructure/efa"
	"github.com/efa-transit/internal/pkg/errors"
	"github.com/efa-transit/internal/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:        "efa",
		Usage:       "query an EFA timetable server",
		Description: "Autocomplete, nearby stations, departure boards and trip search against any provider in the registry.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Value: "vrr", EnvVars: []string{"EFA_PROVIDER"}, Usage: "provider id"},
			&cli.StringFlag{Name: "base-url", EnvVars: []string{"EFA_BASE_URL"}, Usage: "override the provider base url"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "http timeout per request"},
			&cli.IntFlag{Name: "retries", Value: 2, Usage: "retries for transient upstream errors"},
			&cli.BoolFlag{Name: "raw", Usage: "print go structures instead of json"},
			&cli.StringFlag{Name: "log-level", Value: "error", EnvVars: []string{"LOG_LEVEL"}},
		},
		Commands: []*cli.Command{
			{
				Name:  "providers",
				Usage: "list known providers",
				Action: func(c *cli.Context) error {
					for _, id := range efa.ProviderIDs() {
						pc, err := efa.Lookup(id)
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "%-10s %-45s %s\n", pc.ID, pc.Name, pc.BaseURL)
					}
					return nil
				},
			},
			{
				Name:      "suggest",
				Usage:     "autocomplete locations",
				ArgsUsage: "<text>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("expected exactly one search text", 2)
					}
					return run(c, true, func(ctx context.Context, client *efa.Client) (any, error) {
						return client.AutocompleteStations(ctx, c.Args().First())
					})
				},
			},
			{
				Name:  "nearby",
				Usage: "stations near a station or coordinate",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "id", Usage: "station id"},
					&cli.Float64Flag{Name: "lat", Usage: "latitude in degrees"},
					&cli.Float64Flag{Name: "lon", Usage: "longitude in degrees"},
					&cli.IntFlag{Name: "max-distance", Usage: "meters, 0 for server default"},
					&cli.IntFlag{Name: "max-stations", Usage: "0 for server default"},
				},
				Action: func(c *cli.Context) error {
					location, err := nearbyLocation(c.Int("id"), c.Float64("lat"), c.Float64("lon"))
					if err != nil {
						return cli.Exit(err.Error(), 2)
					}
					return run(c, true, func(ctx context.Context, client *efa.Client) (any, error) {
						return client.QueryNearbyStations(ctx, location, c.Int("max-distance"), c.Int("max-stations"))
					})
				},
			},
			{
				Name:      "departures",
				Usage:     "departure board of a station",
				ArgsUsage: "<station id>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "max departures, 0 for server default"},
					&cli.BoolFlag{Name: "equivs", Usage: "include equivalent stops"},
				},
				Action: func(c *cli.Context) error {
					var stationID int
					if _, err := fmt.Sscan(c.Args().First(), &stationID); err != nil || stationID <= 0 {
						return cli.Exit("expected a numeric station id", 2)
					}
					return run(c, true, func(ctx context.Context, client *efa.Client) (any, error) {
						return client.QueryDepartures(ctx, stationID, c.Int("limit"), c.Bool("equivs"))
					})
				},
			},
			{
				Name:  "trip",
				Usage: "search connections",
				Flags: append(append(append(
					locationFlags("from", true),
					locationFlags("via", false)...),
					locationFlags("to", true)...),
					&cli.StringFlag{Name: "time", Usage: "\"2006-01-02 15:04\" in the provider time zone, default now"},
					&cli.BoolFlag{Name: "arrival", Usage: "time is the arrival time"},
					&cli.StringSliceFlag{Name: "product", Usage: "product filter, repeatable (I R S U T B C F P)"},
					&cli.StringFlag{Name: "walk-speed", Value: string(domain.WalkSpeedNormal)},
					&cli.StringFlag{Name: "accessibility", Value: string(domain.AccessibilityNeutral)},
					&cli.BoolFlag{Name: "bike"},
					&cli.IntFlag{Name: "num", Usage: "number of connections, 0 for server default"},
				),
				Action: func(c *cli.Context) error {
					q, err := tripQuery(c)
					if err != nil {
						return cli.Exit(err.Error(), 2)
					}
					return run(c, true, func(ctx context.Context, client *efa.Client) (any, error) {
						return client.QueryConnections(ctx, q)
					})
				},
			},
			{
				Name:      "more",
				Usage:     "earlier or later connections for a context token",
				ArgsUsage: "<context token>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "earlier", Usage: "query earlier instead of later"},
				},
				Action: func(c *cli.Context) error {
					queryContext, err := domain.ParseContext(c.Args().First())
					if err != nil {
						return cli.Exit(err.Error(), 2)
					}
					// токен одноразовый, повтор запроса вернул бы SESSION_EXPIRED
					return run(c, false, func(ctx context.Context, client *efa.Client) (any, error) {
						return client.QueryMoreConnections(ctx, queryContext, !c.Bool("earlier"))
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run создает клиент, выполняет запрос с повторами и печатает результат
func run(c *cli.Context, retry bool, query func(ctx context.Context, client *efa.Client) (any, error)) error {
	log, err := logger.New(c.String("log-level"))
	if err != nil {
		return err
	}
	defer log.Sync()

	client, err := efa.New(&config.EFAConfig{
		Provider: c.String("provider"),
		BaseURL:  c.String("base-url"),
		Timeout:  c.Duration("timeout"),
	}, log)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	retries := uint64(c.Int("retries"))
	if !retry {
		retries = 0
	}

	result, err := withRetry(c.Context, retries, log, func() (any, error) {
		return query(c.Context, client)
	})
	if err != nil {
		appErr := errors.FromEngine(err)
		return cli.Exit(fmt.Sprintf("%s: %v", appErr.Code, err), 1)
	}

	return printResult(c.App.Writer, result, c.Bool("raw"))
}

// withRetry повторяет запрос при ошибках ввода-вывода и протокола
func withRetry(ctx context.Context, retries uint64, log *zap.Logger, op func() (any, error)) (any, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)

	return backoff.RetryNotifyWithData(func() (any, error) {
		result, err := op()
		if err != nil && !errors.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return result, err
	}, policy, func(err error, next time.Duration) {
		log.Warn("Retrying EFA request", zap.Duration("in", next), zap.Error(err))
	})
}

func printResult(w io.Writer, result any, raw bool) error {
	if raw {
		_, err := pretty.Fprintf(w, "%# v\n", result)
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}
