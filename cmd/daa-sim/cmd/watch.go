package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/picogrid/daidalus-go/cmd/daa-sim/config"
	"github.com/picogrid/daidalus-go/pkg/daidalus/daa"
	"github.com/picogrid/daidalus-go/pkg/daidalus/daalog"
	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
	"github.com/picogrid/daidalus-go/pkg/daidalus/params"
	"github.com/picogrid/daidalus-go/pkg/feed"
)

var (
	watchFeedName   string
	watchOwnshipID  string
	watchTickSec    float64
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream traffic from a configured feed into a running engine",
	Long:  `Polls a configured upstream entity-tracking feed at a fixed rate, feeding its tracks into a live engine instance and printing alert/band output as they update.`,
	RunE:  watchFeed,
}

func init() {
	watchCmd.Flags().StringVar(&watchFeedName, "feed", "", "configured feed endpoint name")
	watchCmd.Flags().StringVar(&watchOwnshipID, "ownship", "", "track ID from the feed to treat as ownship")
	watchCmd.Flags().Float64Var(&watchTickSec, "interval", 2, "poll interval in seconds")
}

func watchFeed(cmd *cobra.Command, args []string) error {
	endpoint, err := selectFeedEndpoint()
	if err != nil {
		return err
	}
	if watchOwnshipID == "" {
		if err := survey.AskOne(&survey.Input{Message: "Track ID to treat as ownship:"}, &watchOwnshipID, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	log := newLogger()
	client, err := buildFeedClient(endpoint, log)
	if err != nil {
		return err
	}

	engine := daa.NewWithParameters(params.Default())
	engine.SetLogger(log)

	start := time.Now()
	sink := &ownshipRoutingSink{engine: engine, ownshipID: watchOwnshipID, start: start}
	f := feed.New(feed.Config{Client: client, Sink: sink, Logger: log})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	since := start.Add(-1 * time.Minute)
	ticker := time.NewTicker(time.Duration(watchTickSec * float64(time.Second)))
	defer ticker.Stop()

	fmt.Printf("watching feed %s, ownship=%s, interval=%.1fs\n", endpoint.Name, watchOwnshipID, watchTickSec)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			next, err := f.Poll(ctx, since)
			if err != nil {
				log.Error(fmt.Sprintf("poll failed: %v", err))
				continue
			}
			since = next
			if sink.haveOwnship {
				printSnapshot(engine, sink.trafficIDs)
			}
		}
	}
}

func selectFeedEndpoint() (*config.FeedEndpoint, error) {
	cfg, err := config.LoadFeeds()
	if err != nil {
		return nil, err
	}
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("no feed endpoints configured; run 'daa-sim env add' first")
	}
	if watchFeedName != "" {
		for i := range cfg.Endpoints {
			if cfg.Endpoints[i].Name == watchFeedName {
				return &cfg.Endpoints[i], nil
			}
		}
		return nil, fmt.Errorf("feed %s not found", watchFeedName)
	}
	names := make([]string, len(cfg.Endpoints))
	for i, e := range cfg.Endpoints {
		names[i] = e.Name
	}
	var selected string
	if err := survey.AskOne(&survey.Select{Message: "Select feed:", Options: names}, &selected); err != nil {
		return nil, err
	}
	for i := range cfg.Endpoints {
		if cfg.Endpoints[i].Name == selected {
			return &cfg.Endpoints[i], nil
		}
	}
	return nil, fmt.Errorf("feed not found")
}

func buildFeedClient(e *config.FeedEndpoint, log daalog.Logger) (*feed.Client, error) {
	var src feed.TokenSource
	if e.Realm != "" {
		var username, password string
		if err := survey.AskOne(&survey.Input{Message: "Username:"}, &username, survey.WithValidator(survey.Required)); err != nil {
			return nil, err
		}
		if err := survey.AskOne(&survey.Password{Message: "Password:"}, &password, survey.WithValidator(survey.Required)); err != nil {
			return nil, err
		}
		ts, err := feed.NewOAuthTokenSource(context.Background(), feed.OAuthConfig{
			BaseURL:  e.URL,
			Realm:    e.Realm,
			ClientID: e.ClientID,
		}, username, password, log)
		if err != nil {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
		src = ts
	}

	apiKey := ""
	if e.APIKey != "" {
		apiKey = os.Getenv(e.APIKey)
	}

	return feed.NewClient(feed.ClientConfig{
		BaseURL:     e.URL,
		APIKey:      apiKey,
		TokenSource: src,
		Logger:      log,
	})
}

// ownshipRoutingSink implements feed.Sink, routing the configured
// ownship track ID to SetOwnshipState and every other track to
// AddTrafficState on the same engine instance.
type ownshipRoutingSink struct {
	engine      *daa.Daidalus
	ownshipID   string
	start       time.Time
	haveOwnship bool
	trafficIDs  []string
}

func (s *ownshipRoutingSink) AddTrafficState(id string, lla geom.LatLonAlt, groundVel geom.Vector3D, alerterIndex int, sigma *detectors.Sigma6) (int, error) {
	elapsed := time.Since(s.start).Seconds()
	if id == s.ownshipID {
		s.engine.SetOwnshipState(id, lla, groundVel, alerterIndex, elapsed)
		s.haveOwnship = true
		return 0, nil
	}
	idx, err := s.engine.AddTrafficState(id, lla, groundVel, alerterIndex, sigma)
	if err == nil {
		s.trafficIDs = appendUnique(s.trafficIDs, id)
	}
	return idx, err
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func printSnapshot(engine *daa.Daidalus, trafficIDs []string) {
	for _, id := range trafficIDs {
		fmt.Printf("  %-12s alert=%d\n", id, engine.AlertLevel(id))
	}
}
